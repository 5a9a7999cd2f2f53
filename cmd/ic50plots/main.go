// Package main provides the CLI entry point for ic50plots-go.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots"
	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/convert"
	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/finder"
	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/report"
)

var (
	configPath      string
	compoundMapPath string
	cellColorsPath  string
	threshold       int64
	control         string
	converterCmd    string
	timeoutSeconds  int
	parallelism     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ic50plots [input] [output.html]",
		Short: "Extract IC50 dose-response plots from CCSP workbooks",
		Long: `ic50plots-go extracts % Inhibition dose-response plot images embedded in
CCSP assay workbooks (*_paste.xlsx), pairs them with the test compounds
listed in the XLFit Chart legend, and assembles one self-contained HTML
summary table (cell lines x compounds). The control compound is excluded.

The input is a directory searched recursively or a zip upload.`,
		Args: cobra.ExactArgs(2),
		RunE: run,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML pipeline tuning file")
	rootCmd.Flags().StringVar(&compoundMapPath, "compound-map", "", "JSON file mapping compound IDs to display names")
	rootCmd.Flags().StringVar(&cellColorsPath, "cell-colors", "", "JSON file mapping cell lines to background colors")
	rootCmd.Flags().Int64Var(&threshold, "threshold", 0, "Decorative image size threshold in bytes")
	rootCmd.Flags().StringVar(&control, "control", "", "Control compound identifier to exclude")
	rootCmd.Flags().StringVar(&converterCmd, "converter", "", "Vector-to-raster converter command")
	rootCmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "Per-image conversion timeout in seconds")
	rootCmd.Flags().IntVar(&parallelism, "parallel", 0, "Number of workbooks processed concurrently")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]

	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	overrides, err := loadOverrides()
	if err != nil {
		return err
	}

	workbooks, cleanup, err := finder.FindWorkbooks(inputPath)
	if err != nil {
		return fmt.Errorf("resolving input: %w", err)
	}
	defer cleanup()

	if len(workbooks) == 0 {
		return fmt.Errorf("%w under %s", ic50plots.ErrNoWorkbooksFound, inputPath)
	}
	slog.Info("found workbooks", "count", len(workbooks))

	table := report.NewSummaryTable()
	conv := convert.NewInkscape(opts.ConverterCommand, opts.ConvertTimeout, opts.MinPNGSize)

	if err := ic50plots.Run(context.Background(), workbooks, opts, conv, table); err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()

	if err := table.RenderHTML(out, overrides); err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}

	slog.Info("summary written", "path", outputPath,
		"cell_lines", table.Len(), "compounds", len(table.Compounds()))
	return nil
}

func loadOptions(cmd *cobra.Command) (ic50plots.Options, error) {
	opts := ic50plots.DefaultOptions()

	if configPath != "" {
		var err error
		opts, err = ic50plots.LoadOptions(configPath)
		if err != nil {
			return opts, fmt.Errorf("loading config: %w", err)
		}
	}

	// Flags override both defaults and the config file.
	if cmd.Flags().Changed("threshold") {
		opts.SizeThreshold = threshold
	}
	if cmd.Flags().Changed("control") {
		opts.ControlCompound = control
	}
	if cmd.Flags().Changed("converter") {
		opts.ConverterCommand = converterCmd
	}
	if cmd.Flags().Changed("timeout") {
		opts.ConvertTimeout = time.Duration(timeoutSeconds) * time.Second
	}
	if cmd.Flags().Changed("parallel") {
		opts.Parallelism = parallelism
	}

	return opts, nil
}

func loadOverrides() (report.Overrides, error) {
	var ov report.Overrides

	if compoundMapPath != "" {
		m, err := report.LoadMapping(compoundMapPath)
		if err != nil {
			return ov, fmt.Errorf("loading compound map: %w", err)
		}
		ov.CompoundNames = m
		slog.Info("loaded compound name mapping", "entries", len(m))
	}

	if cellColorsPath != "" {
		m, err := report.LoadMapping(cellColorsPath)
		if err != nil {
			return ov, fmt.Errorf("loading cell colors: %w", err)
		}
		ov.CellColors = m
		slog.Info("loaded cell color mapping", "entries", len(m))
	}

	return ov, nil
}
