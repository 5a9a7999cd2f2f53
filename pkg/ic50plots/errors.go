package ic50plots

import "errors"

// ErrNoWorkbooksFound indicates the input path yielded no matching workbooks.
var ErrNoWorkbooksFound = errors.New("no workbooks found")

// ErrNoWorkbooksProcessed indicates every discovered workbook failed.
var ErrNoWorkbooksProcessed = errors.New("no workbooks processed successfully")
