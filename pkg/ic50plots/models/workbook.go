// Package models defines data structures for IC50 plot extraction.
package models

// Workbook represents one discovered input file.
type Workbook struct {
	// Path is the absolute or relative path to the xlsx file.
	Path string
	// CellLine is the cell line identifier parsed from the file name.
	CellLine string
}

// Plot pairs one compound with its converted raster image.
type Plot struct {
	// Compound is the compound identifier.
	Compound string
	// PNG is the converted image bytes; nil when conversion failed
	// and the cell degrades to empty.
	PNG []byte
}

// PlotSet is the full extraction result for one workbook.
type PlotSet struct {
	// CellLine is the cell line identifier for the source workbook.
	CellLine string
	// Plots are the compound/image pairs in legend order.
	Plots []Plot
}
