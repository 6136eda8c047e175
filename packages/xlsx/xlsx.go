// Package xlsx converts workbooks to and from Excel files.
package xlsx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

// ErrNoSheets is returned when exporting a workbook without sheets; an
// Excel file needs at least one.
var ErrNoSheets = errors.New("workbook has no sheets")

// Export writes every sheet of wb to path in order. formulas are written
// as formulas with their current value cached, literals as typed values.
func Export(wb *spreadsheet.Workbook, path string) error {
	names := wb.ListSheets()
	if len(names) == 0 {
		return ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with one sheet; reuse it for the first
	if err := f.SetSheetName(f.GetSheetName(0), names[0]); err != nil {
		return fmt.Errorf("sheet %q: %w", names[0], err)
	}
	for _, name := range names[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}

	for _, name := range names {
		cells, err := wb.Contents(name)
		if err != nil {
			return err
		}
		for addr, contents := range cells {
			cell := addr.String()
			value, err := wb.GetCellValue(name, cell)
			if err != nil {
				return err
			}
			if err := writeValue(f, name, cell, value); err != nil {
				return fmt.Errorf("write %s!%s: %w", name, cell, err)
			}
			if strings.HasPrefix(contents, "=") {
				if err := f.SetCellFormula(name, cell, contents[1:]); err != nil {
					return fmt.Errorf("write %s!%s: %w", name, cell, err)
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeValue(f *excelize.File, sheet, cell string, v spreadsheet.Value) error {
	switch v.Type() {
	case spreadsheet.CellValueTypeNumber:
		return f.SetCellDefault(sheet, cell, v.Number().String())
	case spreadsheet.CellValueTypeBoolean:
		return f.SetCellBool(sheet, cell, v.Bool())
	case spreadsheet.CellValueTypeEmpty:
		return nil
	default:
		return f.SetCellStr(sheet, cell, v.String())
	}
}

// Import reads every sheet of the Excel file at path into a new workbook.
// a cell's formula wins over its cached value.
func Import(path string, opts ...spreadsheet.Option) (*spreadsheet.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	wb := spreadsheet.NewWorkbook(opts...)
	err = wb.Batch(func() error {
		for _, name := range f.GetSheetList() {
			if _, _, err := wb.NewSheet(name); err != nil {
				return err
			}
			if err := importSheet(f, wb, name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wb, nil
}

func importSheet(f *excelize.File, wb *spreadsheet.Workbook, sheet string) error {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	for rowIdx, row := range rows {
		for colIdx, raw := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return err
			}
			contents, err := cellContents(f, sheet, cell, raw)
			if err != nil {
				return err
			}
			if contents == "" {
				continue
			}
			if err := wb.SetCellContents(sheet, cell, contents); err != nil {
				return err
			}
		}
	}
	return nil
}

// cellContents turns one Excel cell back into contents text.
func cellContents(f *excelize.File, sheet, cell, raw string) (string, error) {
	formula, err := f.GetCellFormula(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("read %s!%s: %w", sheet, cell, err)
	}
	if formula != "" {
		return "=" + formula, nil
	}
	if raw == "" {
		return "", nil
	}

	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("read %s!%s: %w", sheet, cell, err)
	}
	switch cellType {
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "TRUE") {
			return "TRUE", nil
		}
		return "FALSE", nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		// keep text that would otherwise read as a formula or a quote
		if strings.HasPrefix(raw, "=") || strings.HasPrefix(raw, "'") {
			return "'" + raw, nil
		}
	}
	return raw, nil
}
