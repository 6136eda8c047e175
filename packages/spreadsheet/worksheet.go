package spreadsheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
)

// Worksheet is one sheet of a workbook. cell records live in the shared
// store keyed by the folded name; the worksheet only tracks identity,
// position and extent.
type Worksheet struct {
	name   string  // as given by the user
	key    string  // folded name
	extent Address // max column / max row with contents, zero when empty
}

func (w *Worksheet) Name() string { return w.name }

// Extent returns (columns, rows) covered by non-empty cells.
func (w *Worksheet) Extent() (int, int) { return w.extent.Col, w.extent.Row }

// WorksheetTable keeps worksheets in display order with a folded-name index.
type WorksheetTable struct {
	order []*Worksheet
	byKey map[string]*Worksheet
}

// NewWorksheetTable creates a new worksheet table
func NewWorksheetTable() *WorksheetTable {
	return &WorksheetTable{
		byKey: make(map[string]*Worksheet),
	}
}

// foldName is the case-insensitive identity of a sheet name.
func foldName(name string) string {
	return cases.Fold().String(name)
}

func (wt *WorksheetTable) Len() int { return len(wt.order) }

func (wt *WorksheetTable) Get(name string) (*Worksheet, bool) {
	w, ok := wt.byKey[foldName(name)]
	return w, ok
}

func (wt *WorksheetTable) getByKey(key string) (*Worksheet, bool) {
	w, ok := wt.byKey[key]
	return w, ok
}

func (wt *WorksheetTable) Contains(name string) bool {
	_, ok := wt.byKey[foldName(name)]
	return ok
}

// Index returns the display position of the sheet, or -1.
func (wt *WorksheetTable) Index(name string) int {
	key := foldName(name)
	for i, w := range wt.order {
		if w.key == key {
			return i
		}
	}
	return -1
}

// Names returns sheet names in display order with their original case.
func (wt *WorksheetTable) Names() []string {
	names := make([]string, len(wt.order))
	for i, w := range wt.order {
		names[i] = w.name
	}
	return names
}

// DefineWorksheet appends a validated, unique sheet and returns its index.
func (wt *WorksheetTable) DefineWorksheet(name string) (*Worksheet, int, error) {
	if err := validateSheetName(name); err != nil {
		return nil, -1, err
	}
	key := foldName(name)
	if _, exists := wt.byKey[key]; exists {
		return nil, -1, wrapError(AlreadyExists, ErrDuplicateSheet, "sheet %q", name)
	}
	w := &Worksheet{name: name, key: key}
	wt.byKey[key] = w
	wt.order = append(wt.order, w)
	return w, len(wt.order) - 1, nil
}

// UndefineWorksheet removes a sheet from the table.
func (wt *WorksheetTable) UndefineWorksheet(name string) (*Worksheet, error) {
	w, ok := wt.Get(name)
	if !ok {
		return nil, wrapError(NotFound, ErrSheetNotFound, "sheet %q", name)
	}
	delete(wt.byKey, w.key)
	for i, other := range wt.order {
		if other == w {
			wt.order = append(wt.order[:i], wt.order[i+1:]...)
			break
		}
	}
	return w, nil
}

// RenameWorksheet changes the name of a sheet in place. renaming to a name
// that differs only in case is allowed.
func (wt *WorksheetTable) RenameWorksheet(oldName, newName string) (*Worksheet, error) {
	w, ok := wt.Get(oldName)
	if !ok {
		return nil, wrapError(NotFound, ErrSheetNotFound, "sheet %q", oldName)
	}
	if err := validateSheetName(newName); err != nil {
		return nil, err
	}
	newKey := foldName(newName)
	if other, exists := wt.byKey[newKey]; exists && other != w {
		return nil, wrapError(AlreadyExists, ErrDuplicateSheet, "sheet %q", newName)
	}
	delete(wt.byKey, w.key)
	w.name = newName
	w.key = newKey
	wt.byKey[newKey] = w
	return w, nil
}

// MoveWorksheet repositions a sheet; index must be in [0, n-1].
func (wt *WorksheetTable) MoveWorksheet(name string, index int) error {
	from := wt.Index(name)
	if from < 0 {
		return wrapError(NotFound, ErrSheetNotFound, "sheet %q", name)
	}
	if index < 0 || index >= len(wt.order) {
		return wrapError(OutOfRange, ErrIndexOutOfRange, "index %d", index)
	}
	w := wt.order[from]
	wt.order = append(wt.order[:from], wt.order[from+1:]...)
	wt.order = append(wt.order[:index], append([]*Worksheet{w}, wt.order[index:]...)...)
	return nil
}

// nextDefaultName returns "Sheet<N>" for the smallest unused N.
func (wt *WorksheetTable) nextDefaultName() string {
	for n := 1; ; n++ {
		name := "Sheet" + strconv.Itoa(n)
		if !wt.Contains(name) {
			return name
		}
	}
}

// nextCopyName returns "<name>_<N>" for the smallest unused N >= 1.
func (wt *WorksheetTable) nextCopyName(name string) string {
	for n := 1; ; n++ {
		candidate := name + "_" + strconv.Itoa(n)
		if !wt.Contains(candidate) {
			return candidate
		}
	}
}

// sheetNamePunct lists the punctuation allowed in sheet names besides
// letters and digits.
const sheetNamePunct = ".?!,:;@#$%^&*()-_"

// validateSheetName accepts runs of letter, digit or punctuation graphemes
// separated by single spaces. quotes never pass, formulas use them to
// delimit sheet names.
func validateSheetName(name string) error {
	if name == "" {
		return wrapError(InvalidArgument, ErrInvalidSheetName, "empty sheet name")
	}
	prevSpace := true // forbids a leading space
	g := uniseg.NewGraphemes(name)
	for g.Next() {
		cluster := g.Str()
		if cluster == " " {
			if prevSpace {
				return wrapError(InvalidArgument, ErrInvalidSheetName, "sheet name %q has misplaced whitespace", name)
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		for _, r := range cluster {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) && !strings.ContainsRune(sheetNamePunct, r) {
				return wrapError(InvalidArgument, ErrInvalidSheetName, "sheet name %q contains %q", name, cluster)
			}
		}
	}
	if prevSpace {
		return wrapError(InvalidArgument, ErrInvalidSheetName, "sheet name %q has trailing whitespace", name)
	}
	return nil
}

var bareSheetName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// quoteSheetName renders a sheet name for use in a formula, adding single
// quotes only when the bare form would not lex as a qualifier.
func quoteSheetName(name string) string {
	if bareSheetName.MatchString(name) {
		return name
	}
	return "'" + name + "'"
}

// formatQualified renders sheet!ref, or ref alone when sheet is empty.
func formatQualified(sheet, ref string) string {
	if sheet == "" {
		return ref
	}
	return fmt.Sprintf("%s!%s", quoteSheetName(sheet), ref)
}

// splitLocation accepts "A1" or "Sheet!A1" style input for INDIRECT.
func splitLocation(text string) (string, string) {
	sheet, ref := splitSheetQualifier(strings.TrimSpace(text))
	return sheet, ref
}
