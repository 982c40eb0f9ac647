// Package models defines data structures returned by worksheet reads.
package models

// Record represents one data row of a worksheet keyed by its header row.
type Record struct {
	// AssetName mirrors the value stored under the "Name" header.
	AssetName string `json:"asset_name"`
	// Data maps header name to the cell's text.
	Data map[string]string `json:"data"`
}

// Value returns the cell text stored under header and whether the header exists.
func (r Record) Value(header string) (string, bool) {
	v, ok := r.Data[header]
	return v, ok
}
