// Package ic50plots extracts dose-response plot images from assay
// workbooks and assembles a cross-tabulated HTML summary.
package ic50plots

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options configures the extraction pipeline. The size threshold and
// sequence pattern are heuristics tuned against observed instrument
// output, not format guarantees, so both are configurable.
type Options struct {
	// SheetNames are candidate analysis sheet names, tried in order.
	SheetNames []string
	// LegendColumn is the 1-based column scanned for the legend (B = 2).
	LegendColumn int
	// MarkerKeywords must all appear in a cell for it to be the legend marker.
	MarkerKeywords []string
	// LegendScanRows bounds the marker scan from the top of the sheet.
	LegendScanRows int
	// Separator splits a legend label into compound and sample identifiers.
	Separator string
	// ControlCompound is excluded from extraction by exact identifier match.
	ControlCompound string
	// RequireControl rejects legends that do not contain the control compound.
	RequireControl bool
	// MediaDir is the archive subdirectory holding embedded images.
	MediaDir string
	// PlotExtension filters media entries to the plot image format.
	PlotExtension string
	// SizeThreshold is the byte size at or below which a media entry is
	// considered decorative rather than a plot.
	SizeThreshold int64
	// SequencePattern is a regexp whose first capture group is the
	// sequence number embedded in a media entry name.
	SequencePattern string
	// ConverterCommand is the external vector-to-raster converter binary.
	ConverterCommand string
	// ConvertTimeout bounds a single conversion; expiry is a conversion failure.
	ConvertTimeout time.Duration
	// MinPNGSize is the minimum byte size for a converted image to be
	// accepted as a real raster.
	MinPNGSize int64
	// Parallelism is the number of workbooks processed concurrently.
	Parallelism int
}

// DefaultOptions returns pipeline defaults matching CCSP instrument output.
func DefaultOptions() Options {
	return Options{
		SheetNames:       []string{"Analyzed Data", "Data analysis for IC50"},
		LegendColumn:     2,
		MarkerKeywords:   []string{"XLFit", "Chart"},
		LegendScanRows:   50,
		Separator:        "_",
		ControlCompound:  "Staurosporine",
		RequireControl:   true,
		MediaDir:         "xl/media",
		PlotExtension:    ".emf",
		SizeThreshold:    3000,
		SequencePattern:  `image(\d+)\.emf`,
		ConverterCommand: "inkscape",
		ConvertTimeout:   60 * time.Second,
		MinPNGSize:       1000,
		Parallelism:      1,
	}
}

// FileOptions is the YAML tuning file schema. Nil fields keep defaults.
type FileOptions struct {
	SheetNames            []string `yaml:"sheet_names"`
	LegendColumn          *int     `yaml:"legend_column"`
	MarkerKeywords        []string `yaml:"marker_keywords"`
	LegendScanRows        *int     `yaml:"legend_scan_rows"`
	Separator             *string  `yaml:"separator"`
	ControlCompound       *string  `yaml:"control_compound"`
	RequireControl        *bool    `yaml:"require_control"`
	MediaDir              *string  `yaml:"media_dir"`
	PlotExtension         *string  `yaml:"plot_extension"`
	SizeThreshold         *int64   `yaml:"size_threshold"`
	SequencePattern       *string  `yaml:"sequence_pattern"`
	ConverterCommand      *string  `yaml:"converter_command"`
	ConvertTimeoutSeconds *int     `yaml:"convert_timeout_seconds"`
	MinPNGSize            *int64   `yaml:"min_png_size"`
	Parallelism           *int     `yaml:"parallelism"`
}

// LoadOptions reads a YAML tuning file and overlays it on defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}

	var fo FileOptions
	if err := yaml.Unmarshal(data, &fo); err != nil {
		return opts, err
	}

	return opts.Apply(fo), nil
}

// Apply overlays non-nil file options onto o and returns the result.
func (o Options) Apply(fo FileOptions) Options {
	if len(fo.SheetNames) > 0 {
		o.SheetNames = fo.SheetNames
	}
	if fo.LegendColumn != nil {
		o.LegendColumn = *fo.LegendColumn
	}
	if len(fo.MarkerKeywords) > 0 {
		o.MarkerKeywords = fo.MarkerKeywords
	}
	if fo.LegendScanRows != nil {
		o.LegendScanRows = *fo.LegendScanRows
	}
	if fo.Separator != nil {
		o.Separator = *fo.Separator
	}
	if fo.ControlCompound != nil {
		o.ControlCompound = *fo.ControlCompound
	}
	if fo.RequireControl != nil {
		o.RequireControl = *fo.RequireControl
	}
	if fo.MediaDir != nil {
		o.MediaDir = *fo.MediaDir
	}
	if fo.PlotExtension != nil {
		o.PlotExtension = *fo.PlotExtension
	}
	if fo.SizeThreshold != nil {
		o.SizeThreshold = *fo.SizeThreshold
	}
	if fo.SequencePattern != nil {
		o.SequencePattern = *fo.SequencePattern
	}
	if fo.ConverterCommand != nil {
		o.ConverterCommand = *fo.ConverterCommand
	}
	if fo.ConvertTimeoutSeconds != nil {
		o.ConvertTimeout = time.Duration(*fo.ConvertTimeoutSeconds) * time.Second
	}
	if fo.MinPNGSize != nil {
		o.MinPNGSize = *fo.MinPNGSize
	}
	if fo.Parallelism != nil {
		o.Parallelism = *fo.Parallelism
	}
	return o
}
