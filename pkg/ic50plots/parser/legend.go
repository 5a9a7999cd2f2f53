// Package parser provides workbook legend parsing and media selection.
package parser

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/models"
)

// LegendParams holds parameters for chart legend extraction.
type LegendParams struct {
	// SheetNames are candidate analysis sheet names, tried in order.
	SheetNames []string
	// Column is the 1-based legend column.
	Column int
	// MarkerKeywords must all appear in a cell for it to be the marker.
	MarkerKeywords []string
	// ScanRows bounds the marker search from the top of the sheet.
	ScanRows int
	// Separator splits a label into compound and sample identifiers.
	Separator string
}

// DefaultLegendParams returns legend parameters matching CCSP output.
func DefaultLegendParams() LegendParams {
	return LegendParams{
		SheetNames:     []string{"Analyzed Data", "Data analysis for IC50"},
		Column:         2,
		MarkerKeywords: []string{"XLFit", "Chart"},
		ScanRows:       50,
		Separator:      "_",
	}
}

// ExtractLegend scans the analysis sheet for the chart legend marker and
// returns the ordered legend entries that follow it, plus the resolved
// sheet name. Blank rows between the marker and the first label are
// skipped; reading stops at the first empty cell after at least one label.
func ExtractLegend(f *excelize.File, workbook string, p LegendParams) ([]models.LegendEntry, string, error) {
	sheet, err := resolveSheet(f, workbook, p.SheetNames)
	if err != nil {
		return nil, "", err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, sheet, &CorruptWorkbookError{Workbook: workbook, Reason: "cannot read sheet " + sheet, Err: err}
	}

	column := make([]string, len(rows))
	for i, row := range rows {
		if p.Column-1 < len(row) {
			column[i] = strings.TrimSpace(row[p.Column-1])
		}
	}

	markerRow := -1
	scanLimit := len(column)
	if p.ScanRows > 0 && p.ScanRows < scanLimit {
		scanLimit = p.ScanRows
	}
	for i := 0; i < scanLimit; i++ {
		if isMarker(column[i], p.MarkerKeywords) {
			markerRow = i
			break
		}
	}
	if markerRow < 0 {
		return nil, sheet, &LegendNotFoundError{
			Workbook: workbook,
			Sheet:    sheet,
			Marker:   strings.Join(p.MarkerKeywords, "+"),
		}
	}

	var entries []models.LegendEntry
	for i := markerRow + 1; i < len(column); i++ {
		raw := column[i]
		if raw == "" {
			if len(entries) > 0 {
				break
			}
			continue
		}

		compound, sample, ok := splitLabel(raw, p.Separator)
		if !ok {
			return nil, sheet, &MalformedLegendEntryError{
				Workbook: workbook,
				Sheet:    sheet,
				Entry:    raw,
				Reason:   "missing separator " + p.Separator,
			}
		}

		entries = append(entries, models.LegendEntry{
			Raw:        raw,
			CompoundID: compound,
			SampleID:   sample,
		})
	}

	return entries, sheet, nil
}

// NormalizeCompounds removes the control compound from the legend by exact
// identifier match and returns the remaining compound identifiers in order.
// Duplicate identifiers from distinct rows are preserved as distinct
// entries, since plot order is positional, not set-based.
func NormalizeCompounds(entries []models.LegendEntry, workbook, sheet, control string, requireControl bool) ([]string, error) {
	compounds := make([]string, 0, len(entries))
	controlSeen := 0
	for _, e := range entries {
		if e.CompoundID == control {
			controlSeen++
			continue
		}
		compounds = append(compounds, e.CompoundID)
	}

	if requireControl && controlSeen == 0 {
		return nil, &MalformedLegendEntryError{
			Workbook: workbook,
			Sheet:    sheet,
			Entry:    control,
			Reason:   "control compound absent from legend",
		}
	}

	return compounds, nil
}

// resolveSheet returns the first candidate sheet present in the workbook.
func resolveSheet(f *excelize.File, workbook string, candidates []string) (string, error) {
	sheets := f.GetSheetList()
	for _, want := range candidates {
		for _, have := range sheets {
			if have == want {
				return want, nil
			}
		}
	}
	return "", &CorruptWorkbookError{
		Workbook: workbook,
		Reason:   "no analysis sheet among " + strings.Join(candidates, ", "),
	}
}

// isMarker reports whether text contains every marker keyword.
func isMarker(text string, keywords []string) bool {
	if text == "" || len(keywords) == 0 {
		return false
	}
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}

// splitLabel splits a legend label on the first separator occurrence.
func splitLabel(raw, sep string) (compound, sample string, ok bool) {
	compound, sample, ok = strings.Cut(raw, sep)
	if !ok || compound == "" {
		return "", "", false
	}
	return compound, sample, true
}
