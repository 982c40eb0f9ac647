package sheetrecords

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/models"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/parser"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sheetFixture struct {
	name string
	rows [][]interface{}
}

// writeWorkbook saves the fixtures as an xlsx file in a temp dir, sheets in
// the given order.
func writeWorkbook(t *testing.T, sheets ...sheetFixture) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cell, &s.rows[r]))
		}
	}

	path := filepath.Join(t.TempDir(), "Assets.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func itemsWorkbook(t *testing.T) string {
	return writeWorkbook(t, sheetFixture{
		name: "Items",
		rows: [][]interface{}{
			{"Name", "Weight"},
			{"Sword", 3.5},
			{"Shield", 8},
		},
	})
}

func TestListSheetNames(t *testing.T) {
	path := writeWorkbook(t,
		sheetFixture{name: "Sheet1", rows: [][]interface{}{{"Name"}}},
		sheetFixture{name: "Sheet2", rows: [][]interface{}{{"Name"}}},
	)

	core, logs := observer.New(zapcore.InfoLevel)
	opts := DefaultOptions()
	opts.Logger = zap.New(core)

	names, err := ListSheetNames(path, opts)
	require.NoError(t, err)
	require.Equal(t, []string{"Sheet1", "Sheet2"}, names)

	again, err := ListSheetNames(path, opts)
	require.NoError(t, err)
	require.Equal(t, names, again)

	entries := logs.FilterMessage("read sheet names").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	require.Equal(t, path, fields["path"])
	require.Equal(t, []interface{}{"Sheet1", "Sheet2"}, fields["sheets"])
}

func TestListSheetNamesKeepsWorkbookOrder(t *testing.T) {
	path := writeWorkbook(t,
		sheetFixture{name: "Zeta"},
		sheetFixture{name: "Alpha"},
		sheetFixture{name: "Mid"},
	)

	names, err := ListSheetNames(path, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []string{"Zeta", "Alpha", "Mid"}, names)
}

func TestReadWorksheet(t *testing.T) {
	path := itemsWorkbook(t)

	records, err := ReadWorksheet(path, "Items", DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []models.Record{
		{AssetName: "Sword", Data: map[string]string{"Name": "Sword", "Weight": "3.5"}},
		{AssetName: "Shield", Data: map[string]string{"Name": "Shield", "Weight": "8"}},
	}, records)
}

// formattedWorkbook holds a row whose numbers carry number formats: a custom
// "0.00", the built-in "#,##0.00" (id 4) and a date.
func formattedWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Items"))
	require.NoError(t, f.SetSheetRow("Items", "A1", &[]interface{}{"Name", "Weight", "Price", "Added"}))
	require.NoError(t, f.SetSheetRow("Items", "A2", &[]interface{}{
		"Sword", 3.5, 1234.5, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}))

	twoPlaces := "0.00"
	weight, err := f.NewStyle(&excelize.Style{CustomNumFmt: &twoPlaces})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Items", "B2", "B2", weight))
	price, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Items", "C2", "C2", price))
	added, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Items", "D2", "D2", added))

	path := filepath.Join(t.TempDir(), "Assets.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadWorksheetStoredValues(t *testing.T) {
	path := formattedWorkbook(t)

	records, err := ReadWorksheet(path, "Items", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, map[string]string{
		"Name":   "Sword",
		"Weight": "3.5",
		"Price":  "1234.5",
		"Added":  "45293",
	}, records[0].Data)
}

func TestReadWorksheetFormattedValues(t *testing.T) {
	path := formattedWorkbook(t)

	opts := DefaultOptions()
	opts.FormattedValues = true
	records, err := ReadWorksheet(path, "Items", opts)
	require.NoError(t, err)
	require.Len(t, records, 1)

	data := records[0].Data
	require.Equal(t, "3.50", data["Weight"])
	require.Equal(t, "1,234.50", data["Price"])
	require.NotEqual(t, "45293", data["Added"])
	require.Contains(t, data["Added"], "24")
}

// withCachedFormulaValue rewrites the first sheet of the workbook at path so
// the cell holding formula also carries value as its cached result, the way
// a spreadsheet application saves it.
func withCachedFormulaValue(t *testing.T, path, formula, value string) {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)

	type part struct {
		header *zip.FileHeader
		data   []byte
	}
	var parts []part
	formulaElem := regexp.MustCompile(`<f>` + regexp.QuoteMeta(formula) + `</f>(<v></v>|<v/>)?`)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		if zf.Name == "xl/worksheets/sheet1.xml" {
			require.True(t, formulaElem.Match(data), string(data))
			data = formulaElem.ReplaceAll(data, []byte(`<f>`+formula+`</f><v>`+value+`</v>`))
		}
		header := zf.FileHeader
		parts = append(parts, part{header: &header, data: data})
	}
	require.NoError(t, zr.Close())

	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for _, p := range parts {
		w, err := zw.Create(p.header.Name)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func TestReadWorksheetFormulaCachedValue(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Items"))
	require.NoError(t, f.SetSheetRow("Items", "A1", &[]interface{}{"Name", "Total"}))
	require.NoError(t, f.SetCellValue("Items", "A2", "Sword"))
	require.NoError(t, f.SetCellFormula("Items", "B2", "SUM(40,2)"))
	path := filepath.Join(t.TempDir(), "Assets.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	withCachedFormulaValue(t, path, "SUM(40,2)", "42")

	for _, formatted := range []bool{false, true} {
		opts := DefaultOptions()
		opts.FormattedValues = formatted
		records, err := ReadWorksheet(path, "Items", opts)
		require.NoError(t, err)
		require.Equal(t, []models.Record{
			{AssetName: "Sword", Data: map[string]string{"Name": "Sword", "Total": "42"}},
		}, records, "formatted=%v", formatted)
	}
}

func TestReadRecordSet(t *testing.T) {
	path := itemsWorkbook(t)

	set, err := ReadRecordSet(context.Background(), path, "Items", DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "Assets.xlsx", set.BookName)
	require.Equal(t, "Items", set.SheetName)
	require.Equal(t, []string{"Name", "Weight"}, set.Headers)
	require.Len(t, set.Records, 2)
}

func TestReadWorksheetRowOrderAndKeys(t *testing.T) {
	rows := [][]interface{}{{"Kind", "Name", "Cost"}}
	names := []string{"e", "d", "c", "b", "a"}
	for i, n := range names {
		rows = append(rows, []interface{}{"weapon", n, i})
	}
	path := writeWorkbook(t, sheetFixture{name: "Data", rows: rows})

	records, err := ReadWorksheet(path, "Data", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, records, len(names))

	for i, rec := range records {
		require.Equal(t, names[i], rec.AssetName)
		require.Equal(t, rec.Data["Name"], rec.AssetName)
		require.Len(t, rec.Data, 3)
		for _, h := range []string{"Kind", "Name", "Cost"} {
			_, ok := rec.Value(h)
			require.True(t, ok, "record %d missing header %q", i, h)
		}
	}
}

func TestReadWorksheetDuplicateHeaders(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{
		name: "Dup",
		rows: [][]interface{}{
			{"Name", "Name"},
			{"A", "B"},
		},
	})

	records, err := ReadWorksheet(path, "Dup", DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []models.Record{
		{AssetName: "B", Data: map[string]string{"Name": "B"}},
	}, records)
}

func TestReadWorksheetShortRows(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{
		name: "Items",
		rows: [][]interface{}{
			{"Name", "Weight", "Kind"},
			{"Sword", 3, "blade"},
			{"Rock"},
		},
	})

	records, err := ReadWorksheet(path, "Items", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, map[string]string{"Name": "Rock", "Weight": "", "Kind": ""}, records[1].Data)

	opts := DefaultOptions()
	opts.ShortRows = parser.RejectShortRows
	records, err = ReadWorksheet(path, "Items", opts)
	require.Nil(t, records)
	require.ErrorIs(t, err, ErrShortRow)

	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
	require.Equal(t, 3, readErr.Row)
	require.Equal(t, "Items", readErr.SheetName)
}

func TestReadWorksheetEmptyHeaderCell(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{
		name: "Items",
		rows: [][]interface{}{
			{"Name", "", "Weight"},
			{"Sword", "x", 2},
		},
	})

	records, err := ReadWorksheet(path, "Items", DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Name": "Sword", "": "x", "Weight": "2"}, records[0].Data)
}

func TestReadWorksheetMissingNameColumn(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{
		name: "Items",
		rows: [][]interface{}{
			{"Title", "Weight"},
			{"Sword", 3},
		},
	})

	records, err := ReadWorksheet(path, "Items", DefaultOptions())
	require.Nil(t, records)
	require.ErrorIs(t, err, ErrMissingNameColumn)

	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
	require.Equal(t, 1, readErr.Row)
}

func TestReadWorksheetHeaderOnly(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{
		name: "Items",
		rows: [][]interface{}{{"Name", "Weight"}},
	})

	records, err := ReadWorksheet(path, "Items", DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
}

func TestReadWorksheetEmptySheet(t *testing.T) {
	path := writeWorkbook(t,
		sheetFixture{name: "Items", rows: [][]interface{}{{"Name"}}},
		sheetFixture{name: "Blank"},
	)

	_, err := ReadWorksheet(path, "Blank", DefaultOptions())
	require.ErrorIs(t, err, ErrMissingNameColumn)
}

func TestReadWorksheetSheetNotFound(t *testing.T) {
	path := itemsWorkbook(t)

	for _, name := range []string{"Missing", "items", ""} {
		records, err := ReadWorksheet(path, name, DefaultOptions())
		require.Nil(t, records)
		require.ErrorIs(t, err, ErrSheetNotFound, "sheet %q", name)
		require.NotErrorIs(t, err, ErrFileAccess)
	}
}

func TestFileAccessErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("this is not a workbook"), 0644))

	paths := []string{
		filepath.Join(dir, "missing.xlsx"),
		corrupt,
	}

	for _, path := range paths {
		names, err := ListSheetNames(path, DefaultOptions())
		require.Nil(t, names)
		require.ErrorIs(t, err, ErrFileAccess, path)

		records, err := ReadWorksheet(path, "Items", DefaultOptions())
		require.Nil(t, records)
		require.ErrorIs(t, err, ErrFileAccess, path)

		var readErr *ReadError
		require.True(t, errors.As(err, &readErr))
		require.Equal(t, path, readErr.Path)
	}
}

func TestReadWorksheetContextCancelled(t *testing.T) {
	path := itemsWorkbook(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := ReadWorksheetContext(ctx, path, "Items", DefaultOptions())
	require.Nil(t, records)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadWorksheetProgress(t *testing.T) {
	path := itemsWorkbook(t)

	var seen []int
	opts := DefaultOptions()
	opts.Progress = func(n int) { seen = append(seen, n) }

	_, err := ReadWorksheet(path, "Items", opts)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, seen)
}

func TestReadErrorMessage(t *testing.T) {
	tests := []struct {
		err      *ReadError
		expected string
	}{
		{newReadError("a.xlsx", "", 0, ErrFileAccess), `read "a.xlsx": cannot open workbook`},
		{newReadError("a.xlsx", "S", 0, ErrSheetNotFound), `read "a.xlsx" sheet "S": sheet not found`},
		{newReadError("a.xlsx", "S", 4, ErrShortRow), `read "a.xlsx" sheet "S" row 4: row has fewer cells than the header row`},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error() = %q, expected %q", got, tt.expected)
		}
	}
}
