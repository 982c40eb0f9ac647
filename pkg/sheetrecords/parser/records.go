// Package parser turns worksheet rows into header-keyed records.
package parser

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/models"
)

// NameHeader is the header whose value becomes a record's asset name.
const NameHeader = "Name"

// ErrMissingNameColumn indicates the header row has no column named "Name".
var ErrMissingNameColumn = errors.New(`header row has no "Name" column`)

// ErrShortRow indicates a data row has fewer cells than the header row.
var ErrShortRow = errors.New("row has fewer cells than the header row")

// RowPolicy decides what happens to rows shorter than the header row.
type RowPolicy int

const (
	// PadShortRows fills missing trailing cells with "".
	PadShortRows RowPolicy = iota
	// RejectShortRows fails the read with ErrShortRow.
	RejectShortRows
)

// String returns the config spelling of the policy.
func (p RowPolicy) String() string {
	switch p {
	case PadShortRows:
		return "pad"
	case RejectShortRows:
		return "reject"
	default:
		return fmt.Sprintf("RowPolicy(%d)", int(p))
	}
}

// ParseRowPolicy parses "pad" or "reject". An empty string means pad.
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch s {
	case "", "pad":
		return PadShortRows, nil
	case "reject":
		return RejectShortRows, nil
	default:
		return PadShortRows, fmt.Errorf("invalid short row policy: %s (must be pad or reject)", s)
	}
}

// ParseHeaders returns the header names of the first row, by column position.
// Empty header cells are kept as "".
func ParseHeaders(row []string) []string {
	headers := make([]string, len(row))
	copy(headers, row)
	return headers
}

// RequireNameHeader returns the column index of the "Name" header.
// When "Name" appears more than once the last column is returned, matching
// the later-column-wins rule of BuildRecord.
func RequireNameHeader(headers []string) (int, error) {
	idx := -1
	for i, h := range headers {
		if h == NameHeader {
			idx = i
		}
	}
	if idx < 0 {
		return -1, ErrMissingNameColumn
	}
	return idx, nil
}

// BuildRecord zips headers with the row's cells.
// Cells past the last header are ignored. A repeated header keeps the value
// of its last column.
func BuildRecord(headers, cells []string, policy RowPolicy) (models.Record, error) {
	if len(cells) < len(headers) && policy == RejectShortRows {
		return models.Record{}, fmt.Errorf("%w: got %d cells, want %d", ErrShortRow, len(cells), len(headers))
	}

	data := make(map[string]string, len(headers))
	for colIdx, header := range headers {
		value := ""
		if colIdx < len(cells) {
			value = cells[colIdx]
		}
		data[header] = value
	}

	name, ok := data[NameHeader]
	if !ok {
		return models.Record{}, ErrMissingNameColumn
	}

	return models.Record{
		AssetName: name,
		Data:      data,
	}, nil
}
