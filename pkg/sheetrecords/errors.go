package sheetrecords

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/parser"
)

// ErrFileAccess indicates the file is missing, unreadable or not a valid workbook.
var ErrFileAccess = errors.New("cannot open workbook")

// ErrSheetNotFound indicates the requested worksheet is not in the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrMissingNameColumn indicates the header row has no "Name" column,
// so asset names cannot be derived.
var ErrMissingNameColumn = parser.ErrMissingNameColumn

// ErrShortRow indicates a data row was shorter than the header row
// under parser.RejectShortRows.
var ErrShortRow = parser.ErrShortRow

// ReadError represents a failed workbook read.
type ReadError struct {
	Path      string
	SheetName string // empty for workbook-level failures
	Row       int    // 1-based sheet row, 0 when not row specific
	Err       error
}

func (e *ReadError) Error() string {
	switch {
	case e.Row > 0:
		return fmt.Sprintf("read %q sheet %q row %d: %v", e.Path, e.SheetName, e.Row, e.Err)
	case e.SheetName != "":
		return fmt.Sprintf("read %q sheet %q: %v", e.Path, e.SheetName, e.Err)
	default:
		return fmt.Sprintf("read %q: %v", e.Path, e.Err)
	}
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func newReadError(path, sheetName string, row int, err error) *ReadError {
	return &ReadError{
		Path:      path,
		SheetName: sheetName,
		Row:       row,
		Err:       err,
	}
}
