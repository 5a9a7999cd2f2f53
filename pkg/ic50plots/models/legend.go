package models

// LegendEntry is one raw label read from the chart legend column.
// Ordinal position in the legend is plot order.
type LegendEntry struct {
	// Raw is the unmodified cell text.
	Raw string
	// CompoundID is the compound identifier (text before the first separator).
	CompoundID string
	// SampleID is the sample identifier (text after the first separator).
	SampleID string
}
