// Package output serializes worksheet read results.
package output

import (
	"encoding/json"

	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/models"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/parser"
)

// typedRecord is a Record whose values are JSON scalars instead of strings.
type typedRecord struct {
	AssetName string                 `json:"asset_name"`
	Data      map[string]interface{} `json:"data"`
}

type typedRecordSet struct {
	BookName  string        `json:"book_name"`
	SheetName string        `json:"sheet_name"`
	Headers   []string      `json:"headers"`
	Records   []typedRecord `json:"records"`
}

// RecordToJSON serializes a single record.
func RecordToJSON(rec models.Record, pretty bool) ([]byte, error) {
	return marshal(rec, pretty)
}

// RecordSetToJSON serializes a worksheet's records. With typed set, cell
// text that parses as a number or boolean is emitted as a JSON scalar and
// empty cells as null.
func RecordSetToJSON(set *models.RecordSet, pretty, typed bool) ([]byte, error) {
	if !typed {
		return marshal(set, pretty)
	}

	out := typedRecordSet{
		BookName:  set.BookName,
		SheetName: set.SheetName,
		Headers:   set.Headers,
		Records:   make([]typedRecord, 0, len(set.Records)),
	}
	for _, rec := range set.Records {
		out.Records = append(out.Records, typedRecord{
			AssetName: rec.AssetName,
			Data:      parser.TypedData(rec.Data),
		})
	}
	return marshal(out, pretty)
}

// SheetListToJSON serializes a workbook's sheet names.
func SheetListToJSON(list *models.SheetList, pretty bool) ([]byte, error) {
	return marshal(list, pretty)
}

func marshal(v interface{}, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
