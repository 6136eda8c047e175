package spreadsheet

import "iter"

// RangeAddress represents a rectangular block of cells within one sheet.
// Start is always the top-left corner and End the bottom-right.
type RangeAddress struct {
	Start Address
	End   Address
}

// NewRangeAddress builds the box spanned by two corners in any order.
func NewRangeAddress(a, b Address) RangeAddress {
	return RangeAddress{
		Start: Address{Row: min(a.Row, b.Row), Col: min(a.Col, b.Col)},
		End:   Address{Row: max(a.Row, b.Row), Col: max(a.Col, b.Col)},
	}
}

func (r RangeAddress) Width() int  { return r.End.Col - r.Start.Col + 1 }
func (r RangeAddress) Height() int { return r.End.Row - r.Start.Row + 1 }

func (r RangeAddress) Contains(a Address) bool {
	return a.Row >= r.Start.Row && a.Row <= r.End.Row && a.Col >= r.Start.Col && a.Col <= r.End.Col
}

// Offset shifts the whole range.
func (r RangeAddress) Offset(dcol, drow int) RangeAddress {
	return RangeAddress{Start: r.Start.Offset(dcol, drow), End: r.End.Offset(dcol, drow)}
}

func (r RangeAddress) String() string {
	return r.Start.String() + ":" + r.End.String()
}

// Cells iterates every address in the range, row by row.
func (r RangeAddress) Cells() iter.Seq[Address] {
	return func(yield func(Address) bool) {
		for row := r.Start.Row; row <= r.End.Row; row++ {
			for col := r.Start.Col; col <= r.End.Col; col++ {
				if !yield(Address{Row: row, Col: col}) {
					return
				}
			}
		}
	}
}

// Rows iterates the addresses of each row in the range.
func (r RangeAddress) Rows() iter.Seq2[int, []Address] {
	return func(yield func(int, []Address) bool) {
		for row := r.Start.Row; row <= r.End.Row; row++ {
			line := make([]Address, 0, r.Width())
			for col := r.Start.Col; col <= r.End.Col; col++ {
				line = append(line, Address{Row: row, Col: col})
			}
			if !yield(row, line) {
				return
			}
		}
	}
}

// CellRange is an evaluated range: the values of a block, row-major.
type CellRange struct {
	bounds RangeAddress
	values [][]Value
}

func (r *CellRange) GetBounds() RangeAddress { return r.bounds }

// At returns the value at the 0-based (row, col) offset inside the range.
func (r *CellRange) At(row, col int) Value { return r.values[row][col] }

// IterateValues yields every value in the range, row by row.
func (r *CellRange) IterateValues() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, line := range r.values {
			for _, v := range line {
				if !yield(v) {
					return
				}
			}
		}
	}
}
