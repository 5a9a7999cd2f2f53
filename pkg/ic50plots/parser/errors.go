package parser

import "fmt"

// CorruptWorkbookError indicates the workbook could not be opened as an
// xlsx archive, has no usable analysis sheet, or lacks a media directory.
type CorruptWorkbookError struct {
	Workbook string
	Reason   string
	Err      error
}

func (e *CorruptWorkbookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt workbook %q: %s: %v", e.Workbook, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt workbook %q: %s", e.Workbook, e.Reason)
}

func (e *CorruptWorkbookError) Unwrap() error {
	return e.Err
}

// LegendNotFoundError indicates the chart legend marker row is absent
// from the analysis sheet.
type LegendNotFoundError struct {
	Workbook string
	Sheet    string
	Marker   string
}

func (e *LegendNotFoundError) Error() string {
	return fmt.Sprintf("legend marker %q not found in workbook %q sheet %q", e.Marker, e.Workbook, e.Sheet)
}

// MalformedLegendEntryError indicates a legend label that cannot be split
// into compound and sample identifiers, or a legend whose control compound
// usage violates expectations. Silently skipping such an entry would
// desynchronize the positional compound-to-image pairing.
type MalformedLegendEntryError struct {
	Workbook string
	Sheet    string
	Entry    string
	Reason   string
}

func (e *MalformedLegendEntryError) Error() string {
	return fmt.Sprintf("malformed legend entry %q in workbook %q sheet %q: %s", e.Entry, e.Workbook, e.Sheet, e.Reason)
}

// UnparseableMediaNameError indicates a media entry name without a
// parseable sequence number.
type UnparseableMediaNameError struct {
	Workbook string
	Entry    string
	Pattern  string
}

func (e *UnparseableMediaNameError) Error() string {
	return fmt.Sprintf("media entry %q in workbook %q does not match sequence pattern %q", e.Entry, e.Workbook, e.Pattern)
}

// InsufficientPlotImagesError indicates fewer qualifying plot images than
// compounds; under-filling would corrupt the compound-to-image correlation
// for every subsequent column in that row.
type InsufficientPlotImagesError struct {
	Workbook string
	Want     int
	Got      int
}

func (e *InsufficientPlotImagesError) Error() string {
	return fmt.Sprintf("workbook %q has %d qualifying plot images, need %d", e.Workbook, e.Got, e.Want)
}
