package spreadsheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
)

const (
	keySheets       = "sheets"
	keyName         = "name"
	keyCellContents = "cell-contents"
)

type sheetDocument struct {
	Name         string            `json:"name"`
	CellContents map[string]string `json:"cell-contents"`
}

type workbookDocument struct {
	Sheets []sheetDocument `json:"sheets"`
}

// SaveJSON writes every sheet in order with the contents of its non-empty
// cells.
func (wb *Workbook) SaveJSON(w io.Writer) error {
	doc := workbookDocument{Sheets: make([]sheetDocument, 0, wb.NumSheets())}
	for _, name := range wb.ListSheets() {
		cells, err := wb.Contents(name)
		if err != nil {
			return err
		}
		sheet := sheetDocument{Name: name, CellContents: make(map[string]string)}
		for addr, contents := range cells {
			sheet.CellContents[addr.String()] = contents
		}
		doc.Sheets = append(doc.Sheets, sheet)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	return nil
}

// LoadJSON reads a workbook written by SaveJSON, replaying contents through
// SetCellContents in one batch. empty input yields an empty workbook.
func LoadJSON(r io.Reader, opts ...Option) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	wb := NewWorkbook(opts...)
	if len(bytes.TrimSpace(data)) == 0 {
		return wb, nil
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	err = wb.Batch(func() error {
		for _, sheet := range doc.Sheets {
			if _, _, err := wb.NewSheet(sheet.Name); err != nil {
				return err
			}
			for _, addr := range slices.Sorted(maps.Keys(sheet.CellContents)) {
				if err := wb.SetCellContents(sheet.Name, addr, sheet.CellContents[addr]); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	wb.logger.Info("workbook loaded", "sheets", len(doc.Sheets))
	return wb, nil
}

// decodeDocument walks the generic JSON tree so that a missing key and a
// value of the wrong type are reported as different errors.
func decodeDocument(data []byte) (workbookDocument, error) {
	var doc workbookDocument
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return doc, wrapError(InvalidArgument, err, "decode workbook")
	}
	top, ok := root.(map[string]any)
	if !ok {
		return doc, wrongType("document", "an object")
	}
	rawSheets, ok := top[keySheets]
	if !ok {
		return doc, missingKey(keySheets)
	}
	sheets, ok := rawSheets.([]any)
	if !ok {
		return doc, wrongType(keySheets, "a list")
	}

	for i, rawSheet := range sheets {
		where := fmt.Sprintf("%s[%d]", keySheets, i)
		sheet, ok := rawSheet.(map[string]any)
		if !ok {
			return doc, wrongType(where, "an object")
		}
		rawName, ok := sheet[keyName]
		if !ok {
			return doc, missingKey(where + "." + keyName)
		}
		name, ok := rawName.(string)
		if !ok {
			return doc, wrongType(where+"."+keyName, "a string")
		}
		rawCells, ok := sheet[keyCellContents]
		if !ok {
			return doc, missingKey(where + "." + keyCellContents)
		}
		cells, ok := rawCells.(map[string]any)
		if !ok {
			return doc, wrongType(where+"."+keyCellContents, "an object")
		}
		contents := make(map[string]string, len(cells))
		for addr, rawContents := range cells {
			text, ok := rawContents.(string)
			if !ok {
				return doc, wrongType(fmt.Sprintf("%s.%s[%q]", where, keyCellContents, addr), "a string")
			}
			contents[addr] = text
		}
		doc.Sheets = append(doc.Sheets, sheetDocument{Name: name, CellContents: contents})
	}
	return doc, nil
}

func missingKey(path string) error {
	return wrapError(FailedPrecondition, ErrMissingKey, "%s", path)
}

func wrongType(path, want string) error {
	return wrapError(FailedPrecondition, ErrWrongType, "%s must be %s", path, want)
}
