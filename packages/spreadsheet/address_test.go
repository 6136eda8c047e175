package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLetters(t *testing.T) {
	cases := map[int]string{
		1:         "A",
		26:        "Z",
		27:        "AA",
		52:        "AZ",
		53:        "BA",
		702:       "ZZ",
		703:       "AAA",
		18278:     "ZZZ",
		MaxColumn: "ZZZZ",
	}
	for col, letters := range cases {
		assert.Equal(t, letters, ColumnLetters(col))
		index, err := ColumnIndex(letters)
		require.NoError(t, err)
		assert.Equal(t, col, index)
	}
	assert.Equal(t, "", ColumnLetters(0))
}

func TestColumnRoundTrip(t *testing.T) {
	for col := 1; col <= MaxColumn; col++ {
		index, err := ColumnIndex(ColumnLetters(col))
		if err != nil || index != col {
			t.Fatalf("column %d round-tripped to %d (%v)", col, index, err)
		}
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		text string
		want Address
		err  error
	}{
		{"A1", Address{Row: 1, Col: 1}, nil},
		{"b12", Address{Row: 12, Col: 2}, nil},
		{"ZZZZ9999", Address{Row: MaxRow, Col: MaxColumn}, nil},
		{" C3 ", Address{Row: 3, Col: 3}, nil},
		{"A0", Address{}, ErrOutOfBounds},
		{"A10000", Address{}, ErrOutOfBounds},
		{"AAAAA1", Address{}, ErrOutOfBounds},
		{"A00000000001", Address{}, ErrOutOfBounds},
		{"", Address{}, ErrInvalidAddress},
		{"1A", Address{}, ErrInvalidAddress},
		{"A", Address{}, ErrInvalidAddress},
		{"A1B", Address{}, ErrInvalidAddress},
		{"A-1", Address{}, ErrInvalidAddress},
		{"$A$1", Address{}, ErrInvalidAddress},
		{"É1", Address{}, ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseAddress(tt.text)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.InBounds())
		})
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		text   string
		col    bool
		row    bool
		render string
	}{
		{"A1", false, false, "A1"},
		{"$a1", true, false, "$A1"},
		{"A$1", false, true, "A$1"},
		{"$B$22", true, true, "$B$22"},
	}
	for _, tt := range tests {
		ref, err := ParseReference(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.col, ref.ColAbsolute, tt.text)
		assert.Equal(t, tt.row, ref.RowAbsolute, tt.text)
		assert.Equal(t, tt.render, ref.String())
	}

	_, err := ParseReference("$$A1")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseReference("A1$")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestReferenceShift(t *testing.T) {
	ref, err := ParseReference("$B2")
	require.NoError(t, err)

	moved := ref.Shift(3, 4)
	assert.Equal(t, "$B6", moved.String())

	ref, err = ParseReference("C$3")
	require.NoError(t, err)
	assert.Equal(t, "A$3", ref.Shift(-2, -2).String())
	assert.False(t, ref.Shift(-3, 0).InBounds())
}

func TestRangeAddress(t *testing.T) {
	r := NewRangeAddress(Address{Row: 3, Col: 2}, Address{Row: 1, Col: 4})
	assert.Equal(t, "B1:D3", r.String())
	assert.Equal(t, 3, r.Width())
	assert.Equal(t, 3, r.Height())
	assert.True(t, r.Contains(Address{Row: 2, Col: 3}))
	assert.False(t, r.Contains(Address{Row: 4, Col: 3}))

	var cells []string
	for addr := range NewRangeAddress(Address{Row: 1, Col: 1}, Address{Row: 2, Col: 2}).Cells() {
		cells = append(cells, addr.String())
	}
	assert.Equal(t, []string{"A1", "B1", "A2", "B2"}, cells)

	rows := map[int]int{}
	for row, line := range r.Rows() {
		rows[row] = len(line)
	}
	assert.Equal(t, map[int]int{1: 3, 2: 3, 3: 3}, rows)
}
