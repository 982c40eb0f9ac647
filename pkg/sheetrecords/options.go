// Package sheetrecords reads worksheets into header-keyed string records.
package sheetrecords

import (
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/parser"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Options configures how workbooks are read.
type Options struct {
	// ShortRows decides how rows with fewer cells than the header row are handled.
	ShortRows parser.RowPolicy
	// FormattedValues applies each cell's number format, returning the display
	// text ("3.50", "1,234.50", "01-02-24") instead of the stored value.
	FormattedValues bool
	// Logger receives informational entries. If nil, nothing is logged.
	Logger *zap.Logger
	// Progress, if set, is called with the number of records built so far
	// after each data row.
	Progress func(records int)
}

// DefaultOptions returns default read options.
func DefaultOptions() Options {
	return Options{
		ShortRows: parser.PadShortRows,
	}
}

func (o Options) cellOptions() excelize.Options {
	return excelize.Options{RawCellValue: !o.FormattedValues}
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

func (o Options) progress(records int) {
	if o.Progress != nil {
		o.Progress(records)
	}
}
