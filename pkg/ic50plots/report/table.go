// Package report accumulates per-workbook plots into a summary table and
// renders it as a self-contained HTML document.
package report

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/models"
)

// SummaryTable maps (cell line, compound) to converted plot images.
// Columns follow first-seen compound order across workbooks; rows are
// sorted alphabetically by cell line at render time. Add is serialized so
// workbooks may be processed in parallel.
type SummaryTable struct {
	mu      sync.Mutex
	columns []string
	seen    map[string]bool
	rows    map[string]map[string][]byte
}

// NewSummaryTable returns an empty summary table.
func NewSummaryTable() *SummaryTable {
	return &SummaryTable{
		seen: make(map[string]bool),
		rows: make(map[string]map[string][]byte),
	}
}

// Add merges one workbook's plot set. Callers must only pass fully
// extracted sets; partial results from a failed workbook never reach the
// table.
func (t *SummaryTable) Add(set models.PlotSet) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[set.CellLine]
	if !ok {
		row = make(map[string][]byte)
		t.rows[set.CellLine] = row
	}

	for _, p := range set.Plots {
		if !t.seen[p.Compound] {
			t.seen[p.Compound] = true
			t.columns = append(t.columns, p.Compound)
		}
		if p.PNG != nil {
			row[p.Compound] = p.PNG
		}
	}
}

// Compounds returns the column order: first-seen compound order across
// all added workbooks.
func (t *SummaryTable) Compounds() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// CellLines returns the row order: cell lines sorted alphabetically.
func (t *SummaryTable) CellLines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.rows))
	for cl := range t.rows {
		out = append(out, cl)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cell line rows.
func (t *SummaryTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Overrides customize rendering without altering the underlying keys.
type Overrides struct {
	// CompoundNames maps compound identifiers to display names shown
	// under the identifier in column headers.
	CompoundNames map[string]string
	// CellColors maps cell line identifiers to row label background colors.
	CellColors map[string]string
}

// LoadMapping reads a plain JSON key-value mapping file.
func LoadMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

type headerView struct {
	ID          string
	DisplayName string
}

type cellView struct {
	Src template.URL
	Alt string
}

type rowView struct {
	CellLine string
	Color    string
	Cells    []cellView
}

type tableView struct {
	Headers      []headerView
	Rows         []rowView
	NumCompounds int
	NumCellLines int
}

// RenderHTML writes the summary table as one HTML document with every
// image embedded base64-encoded, so the output has no external file
// dependencies.
func (t *SummaryTable) RenderHTML(w io.Writer, ov Overrides) error {
	compounds := t.Compounds()
	cellLines := t.CellLines()

	view := tableView{
		NumCompounds: len(compounds),
		NumCellLines: len(cellLines),
	}

	for _, c := range compounds {
		view.Headers = append(view.Headers, headerView{
			ID:          c,
			DisplayName: ov.CompoundNames[c],
		})
	}

	t.mu.Lock()
	for _, cl := range cellLines {
		row := rowView{
			CellLine: cl,
			Color:    ov.CellColors[cl],
		}
		if row.Color == "" {
			row.Color = "#FFFFFF"
		}
		for _, c := range compounds {
			var cell cellView
			if png := t.rows[cl][c]; png != nil {
				cell.Src = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
				cell.Alt = c + "_" + cl
			}
			row.Cells = append(row.Cells, cell)
		}
		view.Rows = append(view.Rows, row)
	}
	t.mu.Unlock()

	return summaryTemplate.Execute(w, view)
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>IC50 Plots - % Inhibition</title>
    <style>
        body { margin: 20px; background: #fff; font-family: Arial, sans-serif; }
        h1 { color: #333; text-align: center; margin-bottom: 5px; }
        h2 { color: #666; text-align: center; font-weight: normal; margin-top: 0; }
        table { border-collapse: collapse; margin: 20px auto; background: white; }
        th, td { border: 1px solid #ccc; padding: 5px; text-align: center; vertical-align: middle; }
        th { background-color: #2E7D32; color: white; font-size: 11px; padding: 8px 5px; max-width: 120px; }
        th .compound-id { font-weight: bold; display: block; }
        th .compound-name { font-weight: normal; font-size: 10px; display: block; margin-top: 2px; }
        th.cell-line-header { background-color: #1565C0; min-width: 80px; }
        td.cell-line { font-weight: bold; font-size: 12px; }
        td img { width: 160px; height: auto; display: block; }
        .caption { text-align: center; color: #666; font-size: 12px; margin-top: 10px; }
    </style>
</head>
<body>
    <h1>IC50 Dose-Response Curves (% Inhibition)</h1>
    <h2>CCSP Screening Data</h2>
    <table>
        <tr>
            <th class="cell-line-header">Cell Line</th>
{{- range .Headers}}
            <th><span class="compound-id">{{.ID}}</span>{{if .DisplayName}}<span class="compound-name">{{.DisplayName}}</span>{{end}}</th>
{{- end}}
        </tr>
{{- range .Rows}}
        <tr>
            <td class="cell-line" style="background-color: {{.Color}};">{{.CellLine}}</td>
{{- range .Cells}}
{{- if .Src}}
            <td><img src="{{.Src}}" alt="{{.Alt}}"></td>
{{- else}}
            <td>-</td>
{{- end}}
{{- end}}
        </tr>
{{- end}}
    </table>
    <p class="caption">{{.NumCompounds}} test compounds &times; {{.NumCellLines}} cell lines (% Inhibition plots only)</p>
</body>
</html>
`))
