package sheetrecords

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/models"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/parser"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ListSheetNames returns the worksheet names of the workbook at path in
// workbook order.
func ListSheetNames(path string, opts Options) ([]string, error) {
	f, err := openWorkbook(path, opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := f.GetSheetList()
	opts.logger().Info("read sheet names",
		zap.String("path", path),
		zap.Strings("sheets", names),
	)
	return names, nil
}

// ReadWorksheet reads the named worksheet into records, one per row below
// the header row.
func ReadWorksheet(path, sheetName string, opts Options) ([]models.Record, error) {
	return ReadWorksheetContext(context.Background(), path, sheetName, opts)
}

// ReadWorksheetContext is ReadWorksheet with cancellation checked before
// each row.
func ReadWorksheetContext(ctx context.Context, path, sheetName string, opts Options) ([]models.Record, error) {
	set, err := ReadRecordSet(ctx, path, sheetName, opts)
	if err != nil {
		return nil, err
	}
	return set.Records, nil
}

// ReadRecordSet reads the named worksheet and returns its header row along
// with the records.
func ReadRecordSet(ctx context.Context, path, sheetName string, opts Options) (*models.RecordSet, error) {
	f, err := openWorkbook(path, opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// excelize matches sheet names case-insensitively
	if !slices.Contains(f.GetSheetList(), sheetName) {
		return nil, newReadError(path, sheetName, 0, ErrSheetNotFound)
	}

	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, newReadError(path, sheetName, 0, fmt.Errorf("%w: %w", ErrFileAccess, err))
	}
	defer rows.Close()

	cellOpts := opts.cellOptions()
	var headers []string
	records := make([]models.Record, 0)
	rowNum := 0 // 1-based sheet row

	for rows.Next() {
		rowNum++
		if err := ctx.Err(); err != nil {
			return nil, newReadError(path, sheetName, rowNum, err)
		}

		cells, err := rows.Columns(cellOpts)
		if err != nil {
			return nil, newReadError(path, sheetName, rowNum, fmt.Errorf("%w: %w", ErrFileAccess, err))
		}

		if headers == nil {
			headers = parser.ParseHeaders(cells)
			if _, err := parser.RequireNameHeader(headers); err != nil {
				return nil, newReadError(path, sheetName, rowNum, err)
			}
			continue
		}

		record, err := parser.BuildRecord(headers, cells, opts.ShortRows)
		if err != nil {
			return nil, newReadError(path, sheetName, rowNum, err)
		}
		records = append(records, record)
		opts.progress(len(records))
	}
	if err := rows.Error(); err != nil {
		return nil, newReadError(path, sheetName, 0, fmt.Errorf("%w: %w", ErrFileAccess, err))
	}

	// No header row at all.
	if headers == nil {
		return nil, newReadError(path, sheetName, 0, ErrMissingNameColumn)
	}

	opts.logger().Debug("read worksheet",
		zap.String("path", path),
		zap.String("sheet", sheetName),
		zap.Strings("headers", headers),
		zap.Int("records", len(records)),
	)

	return &models.RecordSet{
		BookName:  filepath.Base(path),
		SheetName: sheetName,
		Headers:   headers,
		Records:   records,
	}, nil
}

// openWorkbook opens path read-only. Formula cells yield their cached values
// and, unless FormattedValues is set, number formats are not applied.
func openWorkbook(path string, opts Options) (*excelize.File, error) {
	f, err := excelize.OpenFile(path, opts.cellOptions())
	if err != nil {
		return nil, newReadError(path, "", 0, fmt.Errorf("%w: %w", ErrFileAccess, err))
	}
	return f, nil
}
