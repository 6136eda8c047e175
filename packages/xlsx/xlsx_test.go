package xlsx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func newTestWorkbook(t *testing.T) *spreadsheet.Workbook {
	t.Helper()
	wb := spreadsheet.NewWorkbook()
	for _, name := range []string{"Inputs", "Totals"} {
		_, _, err := wb.NewSheet(name)
		require.NoError(t, err)
	}
	set := func(sheet, addr, contents string) {
		require.NoError(t, wb.SetCellContents(sheet, addr, contents))
	}
	set("Inputs", "A1", "12.5")
	set("Inputs", "A2", "7")
	set("Inputs", "B1", "true")
	set("Inputs", "B2", "hello")
	set("Inputs", "C1", "'=not a formula")
	set("Totals", "A1", "=SUM(Inputs!A1:A2)")
	set("Totals", "B3", `=Inputs!B2&" world"`)
	return wb
}

func TestExportWritesFormulasAndValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, Export(newTestWorkbook(t), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Inputs", "Totals"}, f.GetSheetList())

	formula, err := f.GetCellFormula("Totals", "A1")
	require.NoError(t, err)
	assert.Equal(t, "SUM(Inputs!A1:A2)", formula)

	text, err := f.GetCellValue("Inputs", "B2")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, Export(newTestWorkbook(t), path))

	wb, err := Import(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inputs", "Totals"}, wb.ListSheets())

	tests := []struct {
		sheet, addr string
		contents    string
		value       string
	}{
		{"Inputs", "A1", "12.5", "12.5"},
		{"Inputs", "B1", "TRUE", "TRUE"},
		{"Inputs", "B2", "hello", "hello"},
		{"Inputs", "C1", "'=not a formula", "=not a formula"},
		{"Totals", "A1", "=SUM(Inputs!A1:A2)", "19.5"},
		{"Totals", "B3", `=Inputs!B2&" world"`, "hello world"},
	}
	for _, tt := range tests {
		contents, err := wb.GetCellContents(tt.sheet, tt.addr)
		require.NoError(t, err)
		assert.Equal(t, tt.contents, contents, "%s!%s", tt.sheet, tt.addr)

		v, err := wb.GetCellValue(tt.sheet, tt.addr)
		require.NoError(t, err)
		assert.Equal(t, tt.value, v.String(), "%s!%s", tt.sheet, tt.addr)
	}
}

func TestImportPlainFile(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", 100))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 200.5))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", 300.5))
	require.NoError(t, f.SetCellFormula("Sheet1", "A3", "A1+A2"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Header"))

	path := filepath.Join(t.TempDir(), "plain.xlsx")
	require.NoError(t, f.SaveAs(path))

	wb, err := Import(path)
	require.NoError(t, err)
	v, err := wb.GetCellValue("Sheet1", "A3")
	require.NoError(t, err)
	assert.Equal(t, "300.5", v.String())

	v, err = wb.GetCellValue("Sheet1", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Header", v.Text())
}

func TestExportEmptyWorkbook(t *testing.T) {
	err := Export(spreadsheet.NewWorkbook(), filepath.Join(t.TempDir(), "empty.xlsx"))
	assert.ErrorIs(t, err, ErrNoSheets)
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
