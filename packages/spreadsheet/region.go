package spreadsheet

import (
	"slices"
)

// MoveCells moves the block between two corners so that its top-left
// corner lands on to, optionally on another sheet. relative references in
// moved formulas shift with them; source cells not overwritten are
// cleared.
func (wb *Workbook) MoveCells(sheet, start, end, to, toSheet string) error {
	return wb.transferCells(true, sheet, start, end, to, toSheet)
}

// CopyCells copies the block between two corners so that its top-left
// corner lands on to, optionally on another sheet.
func (wb *Workbook) CopyCells(sheet, start, end, to, toSheet string) error {
	return wb.transferCells(false, sheet, start, end, to, toSheet)
}

// regionArgs resolves a sheet plus two corners.
func (wb *Workbook) regionArgs(sheet, start, end string) (*Worksheet, RangeAddress, error) {
	w, err := wb.sheet(sheet)
	if err != nil {
		return nil, RangeAddress{}, err
	}
	a, err := ParseAddress(start)
	if err != nil {
		return nil, RangeAddress{}, addressError(err, start)
	}
	b, err := ParseAddress(end)
	if err != nil {
		return nil, RangeAddress{}, addressError(err, end)
	}
	return w, NewRangeAddress(a, b), nil
}

// stagedCell is a source cell's contents read before any write.
type stagedCell struct {
	addr     Address
	contents string
}

func (wb *Workbook) stage(sheet string, area RangeAddress) []stagedCell {
	staged := make([]stagedCell, 0, area.Width()*area.Height())
	for addr := range area.Cells() {
		contents := ""
		if rec, ok := wb.storage.cells.lookup(cellKey{sheet: sheet, addr: addr}); ok {
			contents = rec.contents
		}
		staged = append(staged, stagedCell{addr: addr, contents: contents})
	}
	return staged
}

// paste writes contents at key unless both the contents and the target are
// empty.
func (wb *Workbook) paste(key cellKey, contents string) {
	if contents == "" {
		rec, ok := wb.storage.cells.lookup(key)
		if !ok || !rec.hasContents() {
			return
		}
	}
	wb.setCellContents(key, contents)
}

func (wb *Workbook) transferCells(move bool, sheet, start, end, to, toSheet string) error {
	src, area, err := wb.regionArgs(sheet, start, end)
	if err != nil {
		return err
	}
	dst := src
	if toSheet != "" {
		if dst, err = wb.sheet(toSheet); err != nil {
			return err
		}
	}
	target, err := ParseAddress(to)
	if err != nil {
		return addressError(err, to)
	}
	dcol, drow := target.Col-area.Start.Col, target.Row-area.Start.Row
	if far := area.End.Offset(dcol, drow); !far.InBounds() {
		return wrapError(OutOfRange, ErrOutOfBounds, "destination %s", far)
	}

	staged := wb.stage(src.key, area)
	err = wb.mutate(func() error {
		if move {
			for _, cell := range staged {
				if cell.contents != "" {
					wb.setCellContents(cellKey{sheet: src.key, addr: cell.addr}, "")
				}
			}
		}
		for _, cell := range staged {
			key := cellKey{sheet: dst.key, addr: cell.addr.Offset(dcol, drow)}
			wb.paste(key, shiftFormula(cell.contents, dcol, drow))
		}
		return nil
	})
	if err != nil {
		return err
	}
	verb := "copied"
	if move {
		verb = "moved"
	}
	wb.logger.Info("range "+verb, "sheet", src.name, "range", area.String(), "to", dst.name+"!"+target.String())
	return nil
}

// SortRegion sorts the rows of a block by the given 1-based columns of the
// block, tie-breaking left to right. a negative column sorts descending.
// the sort is stable and uses computed values.
func (wb *Workbook) SortRegion(sheet, start, end string, sortCols []int) error {
	w, area, err := wb.regionArgs(sheet, start, end)
	if err != nil {
		return err
	}
	if err := validateSortColumns(sortCols, area.Width()); err != nil {
		return err
	}

	type sortRow struct {
		src    int
		values []Value
	}
	rows := make([]sortRow, 0, area.Height())
	contents := make(map[int][]string, area.Height())
	for row, line := range area.Rows() {
		r := sortRow{src: row, values: make([]Value, len(line))}
		texts := make([]string, len(line))
		for i, addr := range line {
			if rec, ok := wb.storage.cells.lookup(cellKey{sheet: w.key, addr: addr}); ok {
				r.values[i] = rec.value
				texts[i] = rec.contents
			}
		}
		rows = append(rows, r)
		contents[row] = texts
	}

	slices.SortStableFunc(rows, func(a, b sortRow) int {
		for _, c := range sortCols {
			col := abs(c) - 1
			cmp := compareForSort(a.values[col], b.values[col])
			if c < 0 {
				cmp = -cmp
			}
			if cmp != 0 {
				return cmp
			}
		}
		return 0
	})

	return wb.mutate(func() error {
		for i, r := range rows {
			dest := area.Start.Row + i
			if r.src == dest {
				continue
			}
			for j, text := range contents[r.src] {
				key := cellKey{sheet: w.key, addr: Address{Row: dest, Col: area.Start.Col + j}}
				wb.paste(key, shiftFormula(text, 0, dest-r.src))
			}
		}
		return nil
	})
}

func validateSortColumns(sortCols []int, width int) error {
	if len(sortCols) == 0 {
		return wrapError(InvalidArgument, ErrInvalidSortSpec, "no sort columns")
	}
	seen := make(map[int]bool, len(sortCols))
	for _, c := range sortCols {
		col := abs(c)
		switch {
		case col == 0:
			return wrapError(InvalidArgument, ErrInvalidSortSpec, "sort column 0")
		case col > width:
			return wrapError(InvalidArgument, ErrInvalidSortSpec, "sort column %d exceeds width %d", col, width)
		case seen[col]:
			return wrapError(InvalidArgument, ErrInvalidSortSpec, "sort column %d repeated", col)
		}
		seen[col] = true
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
