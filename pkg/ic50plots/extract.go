package ic50plots

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/convert"
	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/models"
	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/parser"
	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/report"
)

// ExtractWorkbook runs the full pipeline for one workbook: legend parse,
// compound normalization, media selection, and per-image conversion. A
// returned error is workbook-fatal; conversion failures degrade to nil
// images within the returned plot set.
func ExtractWorkbook(ctx context.Context, wb models.Workbook, opts Options, conv convert.Converter) (models.PlotSet, error) {
	name := filepath.Base(wb.Path)

	f, err := excelize.OpenFile(wb.Path)
	if err != nil {
		return models.PlotSet{}, &parser.CorruptWorkbookError{Workbook: name, Reason: "cannot open workbook", Err: err}
	}
	defer f.Close()

	entries, sheet, err := parser.ExtractLegend(f, name, opts.legendParams())
	if err != nil {
		return models.PlotSet{}, err
	}

	compounds, err := parser.NormalizeCompounds(entries, name, sheet, opts.ControlCompound, opts.RequireControl)
	if err != nil {
		return models.PlotSet{}, err
	}

	media, err := parser.ListMedia(wb.Path, name, opts.mediaParams())
	if err != nil {
		return models.PlotSet{}, err
	}

	selected, err := parser.SelectPlots(media, len(compounds), name, opts.mediaParams())
	if err != nil {
		return models.PlotSet{}, err
	}

	// The legend and the media directory have no explicit cross-reference;
	// correctness rests entirely on this positional binding, so the length
	// invariant is checked here and nowhere else.
	if len(selected) != len(compounds) {
		return models.PlotSet{}, fmt.Errorf("workbook %q: %d selected images for %d compounds", name, len(selected), len(compounds))
	}

	set := models.PlotSet{
		CellLine: wb.CellLine,
		Plots:    make([]models.Plot, len(compounds)),
	}
	for i, compound := range compounds {
		png, err := conv.Convert(ctx, selected[i].Name, selected[i].Data)
		if err != nil {
			slog.Warn("plot conversion failed, cell degrades to empty",
				"workbook", name, "entry", selected[i].Name, "compound", compound, "error", err)
			png = nil
		}
		set.Plots[i] = models.Plot{Compound: compound, PNG: png}
	}

	return set, nil
}

// Run processes workbooks and accumulates successful plot sets into the
// summary table. Workbook-fatal errors exclude that workbook and the run
// continues; Run fails only when nothing could be processed.
func Run(ctx context.Context, workbooks []models.Workbook, opts Options, conv convert.Converter, table *report.SummaryTable) error {
	if len(workbooks) == 0 {
		return ErrNoWorkbooksFound
	}

	limit := opts.Parallelism
	if limit < 1 {
		limit = 1
	}

	var succeeded atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, wb := range workbooks {
		wb := wb
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			slog.Info("processing workbook", "cell_line", wb.CellLine, "path", wb.Path)
			set, err := ExtractWorkbook(ctx, wb, opts, conv)
			if err != nil {
				slog.Error("workbook excluded from summary",
					"workbook", wb.Path, "cell_line", wb.CellLine, "error", err)
				return nil
			}

			table.Add(set)
			succeeded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if succeeded.Load() == 0 {
		return ErrNoWorkbooksProcessed
	}
	return nil
}

func (o Options) legendParams() parser.LegendParams {
	return parser.LegendParams{
		SheetNames:     o.SheetNames,
		Column:         o.LegendColumn,
		MarkerKeywords: o.MarkerKeywords,
		ScanRows:       o.LegendScanRows,
		Separator:      o.Separator,
	}
}

func (o Options) mediaParams() parser.MediaParams {
	return parser.MediaParams{
		Dir:             o.MediaDir,
		Extension:       o.PlotExtension,
		SizeThreshold:   o.SizeThreshold,
		SequencePattern: o.SequencePattern,
	}
}
