package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxColumn = 475254 // ZZZZ
	MaxRow    = 9999
)

// Address is a 1-based (row, column) cell location.
type Address struct {
	Row int
	Col int
}

// Reference is an address as written in a formula, remembering which axes
// were marked absolute with '$'.
type Reference struct {
	Address
	ColAbsolute bool
	RowAbsolute bool
}

func (a Address) InBounds() bool {
	return a.Row >= 1 && a.Row <= MaxRow && a.Col >= 1 && a.Col <= MaxColumn
}

func (a Address) String() string {
	return ColumnLetters(a.Col) + strconv.Itoa(a.Row)
}

// Offset returns the address shifted by (dcol, drow). the result may be out
// of bounds.
func (a Address) Offset(dcol, drow int) Address {
	return Address{Row: a.Row + drow, Col: a.Col + dcol}
}

// ColumnLetters converts a 1-based column index to letters (1 -> A,
// 27 -> AA). returns "" for indices < 1.
func ColumnLetters(col int) string {
	if col < 1 {
		return ""
	}
	var buf [8]byte
	i := len(buf)
	for col > 0 {
		col--
		i--
		buf[i] = byte('A' + col%26)
		col /= 26
	}
	return string(buf[i:])
}

// ColumnIndex converts column letters (any case) to a 1-based index.
func ColumnIndex(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("%w: empty column", ErrInvalidAddress)
	}
	if len(letters) > 4 {
		return 0, fmt.Errorf("%w: column %q", ErrOutOfBounds, letters)
	}
	index := 0
	for _, ch := range letters {
		switch {
		case ch >= 'A' && ch <= 'Z':
			index = index*26 + int(ch-'A') + 1
		case ch >= 'a' && ch <= 'z':
			index = index*26 + int(ch-'a') + 1
		default:
			return 0, fmt.Errorf("%w: column %q", ErrInvalidAddress, letters)
		}
	}
	return index, nil
}

// ParseAddress parses "B12" style text. '$' markers are not accepted here,
// use ParseReference for formula references.
func ParseAddress(text string) (Address, error) {
	if strings.ContainsRune(text, '$') {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, text)
	}
	ref, err := ParseReference(text)
	if err != nil {
		return Address{}, err
	}
	return ref.Address, nil
}

// ParseReference parses an optionally '$'-marked reference like "$A1",
// "B$2" or "$C$3".
func ParseReference(text string) (Reference, error) {
	var ref Reference
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "$") {
		ref.ColAbsolute = true
		s = s[1:]
	}
	letterEnd := 0
	for letterEnd < len(s) && isASCIILetter(s[letterEnd]) {
		letterEnd++
	}
	if letterEnd == 0 {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidAddress, text)
	}
	letters, rest := s[:letterEnd], s[letterEnd:]
	if strings.HasPrefix(rest, "$") {
		ref.RowAbsolute = true
		rest = rest[1:]
	}
	if rest == "" {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidAddress, text)
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return Reference{}, fmt.Errorf("%w: %q", ErrInvalidAddress, text)
		}
	}

	col, err := ColumnIndex(letters)
	if err != nil {
		return Reference{}, err
	}
	row, err := strconv.Atoi(rest)
	if err != nil || len(rest) > 5 {
		return Reference{}, fmt.Errorf("%w: row %q", ErrOutOfBounds, rest)
	}
	ref.Address = Address{Row: row, Col: col}
	if !ref.InBounds() {
		return Reference{}, fmt.Errorf("%w: %q", ErrOutOfBounds, text)
	}
	return ref, nil
}

// String renders the reference with its '$' markers.
func (r Reference) String() string {
	var sb strings.Builder
	if r.ColAbsolute {
		sb.WriteByte('$')
	}
	sb.WriteString(ColumnLetters(r.Col))
	if r.RowAbsolute {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.Itoa(r.Row))
	return sb.String()
}

// Shift moves the relative axes of the reference. absolute axes stay put.
func (r Reference) Shift(dcol, drow int) Reference {
	if !r.ColAbsolute {
		r.Col += dcol
	}
	if !r.RowAbsolute {
		r.Row += drow
	}
	return r
}

func isASCIILetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
