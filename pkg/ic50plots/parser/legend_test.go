package parser

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/models"
)

// newLegendFixture builds a workbook with a legend column. cells maps
// cell references (e.g. "B3") to values on the given sheet.
func newLegendFixture(t *testing.T, sheetName string, cells map[string]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		t.Fatalf("Failed to rename sheet: %v", err)
	}
	for ref, value := range cells {
		if err := f.SetCellValue(sheetName, ref, value); err != nil {
			t.Fatalf("Failed to set cell %s: %v", ref, err)
		}
	}

	tmpFile := filepath.Join(t.TempDir(), "20260115_BXPC3_NTA12_NNH4_paste.xlsx")
	if err := f.SaveAs(tmpFile); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}
	return tmpFile
}

func openFixture(t *testing.T, path string) *excelize.File {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open test file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExtractLegend(t *testing.T) {
	path := newLegendFixture(t, "Analyzed Data", map[string]string{
		"B2": "some header",
		"B3": "XLFit Chart 1",
		"B4": "Staurosporine_BXPC3",
		"B5": "TA101_BXPC3",
		"B6": "TA102_BXPC3",
		// B7 left empty: terminal condition
		"B8": "after the gap, must not be read",
	})
	f := openFixture(t, path)

	entries, sheet, err := ExtractLegend(f, "test.xlsx", DefaultLegendParams())
	if err != nil {
		t.Fatalf("ExtractLegend failed: %v", err)
	}
	if sheet != "Analyzed Data" {
		t.Errorf("Expected sheet 'Analyzed Data', got %q", sheet)
	}

	want := []models.LegendEntry{
		{Raw: "Staurosporine_BXPC3", CompoundID: "Staurosporine", SampleID: "BXPC3"},
		{Raw: "TA101_BXPC3", CompoundID: "TA101", SampleID: "BXPC3"},
		{Raw: "TA102_BXPC3", CompoundID: "TA102", SampleID: "BXPC3"},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("Expected entries %v, got %v", want, entries)
	}
}

func TestExtractLegendBlankRowsBeforeFirstLabel(t *testing.T) {
	// Some instrument exports leave spacer rows between the marker and the
	// first legend label; only a blank after at least one label terminates.
	path := newLegendFixture(t, "Analyzed Data", map[string]string{
		"B3": "XLFit Chart 1",
		// B4 left empty: spacer row, must be skipped
		"B5": "TA101_BXPC3",
		"B6": "TA102_BXPC3",
		// B7 left empty: terminal condition
		"B8": "after the gap, must not be read",
	})
	f := openFixture(t, path)

	entries, _, err := ExtractLegend(f, "test.xlsx", DefaultLegendParams())
	if err != nil {
		t.Fatalf("ExtractLegend failed: %v", err)
	}

	want := []models.LegendEntry{
		{Raw: "TA101_BXPC3", CompoundID: "TA101", SampleID: "BXPC3"},
		{Raw: "TA102_BXPC3", CompoundID: "TA102", SampleID: "BXPC3"},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("Expected entries %v, got %v", want, entries)
	}
}

func TestExtractLegendSheetFallback(t *testing.T) {
	path := newLegendFixture(t, "Data analysis for IC50", map[string]string{
		"B3": "XLFit Chart 1",
		"B4": "TA101_BXPC3",
	})
	f := openFixture(t, path)

	_, sheet, err := ExtractLegend(f, "test.xlsx", DefaultLegendParams())
	if err != nil {
		t.Fatalf("ExtractLegend failed: %v", err)
	}
	if sheet != "Data analysis for IC50" {
		t.Errorf("Expected fallback sheet, got %q", sheet)
	}
}

func TestExtractLegendNoAnalysisSheet(t *testing.T) {
	path := newLegendFixture(t, "Raw Data", map[string]string{
		"B3": "XLFit Chart 1",
	})
	f := openFixture(t, path)

	_, _, err := ExtractLegend(f, "test.xlsx", DefaultLegendParams())
	var cwErr *CorruptWorkbookError
	if !errors.As(err, &cwErr) {
		t.Fatalf("Expected CorruptWorkbookError, got %v", err)
	}
}

func TestExtractLegendMarkerMissing(t *testing.T) {
	path := newLegendFixture(t, "Analyzed Data", map[string]string{
		"B3": "just some text",
		"B4": "TA101_BXPC3",
	})
	f := openFixture(t, path)

	_, _, err := ExtractLegend(f, "test.xlsx", DefaultLegendParams())
	var lnfErr *LegendNotFoundError
	if !errors.As(err, &lnfErr) {
		t.Fatalf("Expected LegendNotFoundError, got %v", err)
	}
	if lnfErr.Sheet != "Analyzed Data" {
		t.Errorf("Expected sheet in error, got %q", lnfErr.Sheet)
	}
}

func TestExtractLegendMalformedEntry(t *testing.T) {
	path := newLegendFixture(t, "Analyzed Data", map[string]string{
		"B3": "XLFit Chart 1",
		"B4": "TA101_BXPC3",
		"B5": "NoSeparatorHere",
	})
	f := openFixture(t, path)

	_, _, err := ExtractLegend(f, "test.xlsx", DefaultLegendParams())
	var mlErr *MalformedLegendEntryError
	if !errors.As(err, &mlErr) {
		t.Fatalf("Expected MalformedLegendEntryError, got %v", err)
	}
	if mlErr.Entry != "NoSeparatorHere" {
		t.Errorf("Expected offending entry in error, got %q", mlErr.Entry)
	}
}

func TestExtractLegendMarkerBeyondScanLimit(t *testing.T) {
	params := DefaultLegendParams()
	params.ScanRows = 5

	path := newLegendFixture(t, "Analyzed Data", map[string]string{
		"B10": "XLFit Chart 1",
		"B11": "TA101_BXPC3",
	})
	f := openFixture(t, path)

	_, _, err := ExtractLegend(f, "test.xlsx", params)
	var lnfErr *LegendNotFoundError
	if !errors.As(err, &lnfErr) {
		t.Fatalf("Expected LegendNotFoundError, got %v", err)
	}
}

func TestNormalizeCompounds(t *testing.T) {
	entry := func(compound, sample string) models.LegendEntry {
		return models.LegendEntry{Raw: compound + "_" + sample, CompoundID: compound, SampleID: sample}
	}

	tests := []struct {
		name           string
		entries        []models.LegendEntry
		control        string
		requireControl bool
		want           []string
		wantErr        bool
	}{
		{
			name: "control excluded",
			entries: []models.LegendEntry{
				entry("Staurosporine", "BXPC3"),
				entry("TA101", "BXPC3"),
				entry("TA102", "BXPC3"),
			},
			control:        "Staurosporine",
			requireControl: true,
			want:           []string{"TA101", "TA102"},
		},
		{
			name: "duplicates preserved in order",
			entries: []models.LegendEntry{
				entry("TA101", "BXPC3"),
				entry("Staurosporine", "BXPC3"),
				entry("TA101", "BXPC3-2"),
			},
			control:        "Staurosporine",
			requireControl: true,
			want:           []string{"TA101", "TA101"},
		},
		{
			name: "control match is case-sensitive",
			entries: []models.LegendEntry{
				entry("staurosporine", "BXPC3"),
				entry("TA101", "BXPC3"),
			},
			control:        "Staurosporine",
			requireControl: false,
			want:           []string{"staurosporine", "TA101"},
		},
		{
			name: "control repeated removes every occurrence",
			entries: []models.LegendEntry{
				entry("Staurosporine", "BXPC3"),
				entry("TA101", "BXPC3"),
				entry("Staurosporine", "BXPC3-2"),
			},
			control:        "Staurosporine",
			requireControl: true,
			want:           []string{"TA101"},
		},
		{
			name: "missing control rejected when required",
			entries: []models.LegendEntry{
				entry("TA101", "BXPC3"),
			},
			control:        "Staurosporine",
			requireControl: true,
			wantErr:        true,
		},
		{
			name: "missing control tolerated when not required",
			entries: []models.LegendEntry{
				entry("TA101", "BXPC3"),
			},
			control:        "Staurosporine",
			requireControl: false,
			want:           []string{"TA101"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCompounds(tt.entries, "test.xlsx", "Analyzed Data", tt.control, tt.requireControl)
			if tt.wantErr {
				var mlErr *MalformedLegendEntryError
				if !errors.As(err, &mlErr) {
					t.Fatalf("Expected MalformedLegendEntryError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeCompounds failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
