package models

// SheetList represents the worksheet names of a workbook in workbook order.
type SheetList struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// Sheets lists sheet names in the order they appear in the workbook.
	Sheets []string `json:"sheets"`
}

// RecordSet represents the records read from one worksheet.
type RecordSet struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// SheetName is the worksheet the records came from.
	SheetName string `json:"sheet_name"`
	// Headers is the header row in column order.
	Headers []string `json:"headers"`
	// Records holds one entry per data row, in row order.
	Records []Record `json:"records"`
}
