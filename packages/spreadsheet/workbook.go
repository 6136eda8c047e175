package spreadsheet

import (
	"io"
	"iter"
	"log/slog"
	"strings"
)

// CellRef names a cell by sheet name (original case) and address.
type CellRef struct {
	Sheet   string
	Address string
}

// Listener is called after a public operation with the cells whose values
// changed.
type Listener func(wb *Workbook, changed []CellRef)

type WorkbookInterface interface {
	// sheet methods

	ListSheets() []string
	NumSheets() int
	NewSheet(name string) (int, string, error)
	DeleteSheet(name string) error
	RenameSheet(oldName, newName string) error
	MoveSheet(name string, index int) error
	CopySheet(name string) (int, string, error)
	GetSheetExtent(name string) (int, int, error)

	// cell methods

	SetCellContents(sheet, address, contents string) error
	GetCellContents(sheet, address string) (string, error)
	GetCellValue(sheet, address string) (Value, error)
	Contents(sheet string) (iter.Seq2[Address, string], error)

	// region methods

	MoveCells(sheet, start, end, to, toSheet string) error
	CopyCells(sheet, start, end, to, toSheet string) error
	SortRegion(sheet, start, end string, sortCols []int) error

	// notification methods

	Register(listener Listener)
	Batch(fn func() error) error
}

var _ WorkbookInterface = (*Workbook)(nil)

// Workbook combines storage, parsing, dependency tracking and formula
// evaluation into one API. a Workbook is owned by a single goroutine.
type Workbook struct {
	storage   *Storage
	functions *BuiltInFunctions
	logger    *slog.Logger
	listeners []Listener

	// depth counts nested public operations; notifications flush when it
	// drops back to zero.
	depth       int
	changes     map[cellID]Value // first-seen old value per touched cell
	changeOrder []cellID

	// cells currently holding #REF!, retried when sheets appear.
	badRefs map[cellID]struct{}
}

// Option configures a Workbook.
type Option func(*Workbook)

// WithLogger sets the logger used for structural operations and
// recalculation statistics.
func WithLogger(logger *slog.Logger) Option {
	return func(wb *Workbook) {
		if logger != nil {
			wb.logger = logger
		}
	}
}

// NewWorkbook creates an empty workbook with no sheets.
func NewWorkbook(opts ...Option) *Workbook {
	wb := &Workbook{
		storage:   newStorage(),
		functions: NewDefaultBuiltInFunctions(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		changes:   make(map[cellID]Value),
		badRefs:   make(map[cellID]struct{}),
	}
	for _, opt := range opts {
		opt(wb)
	}
	return wb
}

// sheet resolves a sheet name or returns a NotFound error.
func (wb *Workbook) sheet(name string) (*Worksheet, error) {
	w, ok := wb.storage.worksheets.Get(name)
	if !ok {
		return nil, wrapError(NotFound, ErrSheetNotFound, "sheet %q", name)
	}
	return w, nil
}

// cell resolves a sheet name and address to a cell key.
func (wb *Workbook) cell(sheet, address string) (*Worksheet, cellKey, error) {
	w, err := wb.sheet(sheet)
	if err != nil {
		return nil, cellKey{}, err
	}
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, cellKey{}, addressError(err, address)
	}
	return w, cellKey{sheet: w.key, addr: addr}, nil
}

func (wb *Workbook) ListSheets() []string {
	return wb.storage.worksheets.Names()
}

func (wb *Workbook) NumSheets() int {
	return wb.storage.worksheets.Len()
}

// NewSheet appends a sheet and returns its index and name. an empty name
// picks the smallest unused Sheet<N>. formulas waiting on the new sheet
// are recomputed.
func (wb *Workbook) NewSheet(name string) (int, string, error) {
	if name == "" {
		name = wb.storage.worksheets.nextDefaultName()
	}
	index := -1
	err := wb.mutate(func() error {
		w, idx, err := wb.storage.worksheets.DefineWorksheet(name)
		if err != nil {
			return err
		}
		index = idx
		wb.retryReferences(w.key)
		return nil
	})
	if err != nil {
		return -1, "", err
	}
	wb.logger.Info("sheet created", "sheet", name, "index", index)
	return index, name, nil
}

// DeleteSheet removes a sheet and its cells. formulas elsewhere that read
// the sheet are recomputed and turn into #REF!.
func (wb *Workbook) DeleteSheet(name string) error {
	w, err := wb.sheet(name)
	if err != nil {
		return err
	}
	err = wb.mutate(func() error {
		if _, err := wb.storage.worksheets.UndefineWorksheet(name); err != nil {
			return err
		}
		affected := wb.detachSheet(w.key)
		for _, id := range affected {
			wb.reset(wb.storage.cells.get(id))
		}
		return nil
	})
	if err != nil {
		return err
	}
	wb.logger.Info("sheet deleted", "sheet", w.name)
	return nil
}

// detachSheet drops the cells of a removed sheet. cells still read by
// formulas on other sheets stay behind as empty placeholders. returns
// those readers.
func (wb *Workbook) detachSheet(sheet string) []cellID {
	cells := wb.storage.cells
	ids := cells.sheetCells(sheet)
	affected := make(map[cellID]struct{})

	for _, id := range ids {
		rec := cells.get(id)
		wb.storage.formulas.ReleaseCell(id)
		rec.formulaID = 0
		for pid := range rec.parents {
			parent := cells.get(pid)
			delete(parent.children, id)
			if parent.key.sheet != sheet {
				wb.storage.dependencyGraph.markForSweep(pid)
			}
		}
		clear(rec.parents)
	}
	for _, id := range ids {
		rec := cells.get(id)
		for cid := range rec.children {
			affected[cid] = struct{}{}
		}
		delete(wb.badRefs, id)
		delete(wb.changes, id)
		if len(rec.children) == 0 {
			cells.release(id)
			continue
		}
		rec.contents = ""
		rec.value = EmptyValue()
	}
	return sortedIDs(affected)
}

// RenameSheet renames a sheet and rewrites every formula naming it.
func (wb *Workbook) RenameSheet(oldName, newName string) error {
	w, err := wb.sheet(oldName)
	if err != nil {
		return err
	}
	oldKey := w.key
	rewrite := wb.storage.formulas.CellsReferencingWorksheet(oldKey)
	if _, err := wb.storage.worksheets.RenameWorksheet(oldName, newName); err != nil {
		return err
	}

	err = wb.mutate(func() error {
		if w.key != oldKey {
			wb.rekeySheet(oldKey, w.key)
		}
		for _, id := range rewrite {
			rec := wb.storage.cells.get(id)
			if rec == nil {
				continue
			}
			wb.setCellContents(rec.key, renameSheetInFormula(rec.contents, oldKey, w.name))
		}
		wb.retryReferences(w.key)
		return nil
	})
	if err != nil {
		return err
	}
	wb.logger.Info("sheet renamed", "from", oldName, "to", w.name)
	return nil
}

// rekeySheet moves every record of a sheet under a new folded name. a
// placeholder already waiting at the new key hands its readers over to the
// real record and is dropped.
func (wb *Workbook) rekeySheet(oldKey, newKey string) {
	cells := wb.storage.cells
	for _, id := range cells.sheetCells(oldKey) {
		rec := cells.get(id)
		key := cellKey{sheet: newKey, addr: rec.key.addr}
		if placeholder, ok := cells.lookup(key); ok {
			for cid := range placeholder.children {
				child := cells.get(cid)
				delete(child.parents, placeholder.id)
				child.parents[id] = struct{}{}
				rec.children[cid] = struct{}{}
			}
			for pid := range placeholder.parents {
				delete(cells.get(pid).children, placeholder.id)
			}
			delete(wb.changes, placeholder.id)
			delete(wb.badRefs, placeholder.id)
			cells.release(placeholder.id)
		}
		cells.rekey(id, key)
	}
}

// MoveSheet moves a sheet to index, which must be in [0, n-1].
func (wb *Workbook) MoveSheet(name string, index int) error {
	if err := wb.storage.worksheets.MoveWorksheet(name, index); err != nil {
		return err
	}
	wb.logger.Info("sheet moved", "sheet", name, "index", index)
	return nil
}

// CopySheet appends a copy of a sheet named <name>_<N> and returns its
// index and name.
func (wb *Workbook) CopySheet(name string) (int, string, error) {
	src, err := wb.sheet(name)
	if err != nil {
		return -1, "", err
	}
	copyName := wb.storage.worksheets.nextCopyName(src.name)
	index := -1
	err = wb.mutate(func() error {
		dst, idx, err := wb.storage.worksheets.DefineWorksheet(copyName)
		if err != nil {
			return err
		}
		index = idx
		for _, id := range wb.storage.cells.sheetCells(src.key) {
			rec := wb.storage.cells.get(id)
			if !rec.hasContents() {
				continue
			}
			wb.setCellContents(cellKey{sheet: dst.key, addr: rec.key.addr}, rec.contents)
		}
		wb.retryReferences(dst.key)
		return nil
	})
	if err != nil {
		return -1, "", err
	}
	wb.logger.Info("sheet copied", "from", src.name, "to", copyName)
	return index, copyName, nil
}

// GetSheetExtent returns (columns, rows) covered by cells with contents.
func (wb *Workbook) GetSheetExtent(name string) (int, int, error) {
	w, err := wb.sheet(name)
	if err != nil {
		return 0, 0, err
	}
	cols, rows := w.Extent()
	return cols, rows, nil
}

// SetCellContents sets the raw contents of a cell and recomputes every
// cell that depends on it. empty or whitespace-only contents clear it.
func (wb *Workbook) SetCellContents(sheet, address, contents string) error {
	_, key, err := wb.cell(sheet, address)
	if err != nil {
		return err
	}
	return wb.mutate(func() error {
		wb.setCellContents(key, contents)
		return nil
	})
}

// GetCellContents returns the trimmed contents of a cell, "" when it has
// none.
func (wb *Workbook) GetCellContents(sheet, address string) (string, error) {
	_, key, err := wb.cell(sheet, address)
	if err != nil {
		return "", err
	}
	if rec, ok := wb.storage.cells.lookup(key); ok {
		return rec.contents, nil
	}
	return "", nil
}

// GetCellValue returns the computed value of a cell.
func (wb *Workbook) GetCellValue(sheet, address string) (Value, error) {
	_, key, err := wb.cell(sheet, address)
	if err != nil {
		return Value{}, err
	}
	if rec, ok := wb.storage.cells.lookup(key); ok {
		return rec.value, nil
	}
	return EmptyValue(), nil
}

// Contents iterates the cells of a sheet that have contents, row by row.
// the sheet must not be modified while iterating.
func (wb *Workbook) Contents(sheet string) (iter.Seq2[Address, string], error) {
	w, err := wb.sheet(sheet)
	if err != nil {
		return nil, err
	}
	ids := wb.storage.cells.sheetCells(w.key)
	return func(yield func(Address, string) bool) {
		for _, id := range ids {
			rec := wb.storage.cells.get(id)
			if rec == nil || !rec.hasContents() {
				continue
			}
			if !yield(rec.key.addr, rec.contents) {
				return
			}
		}
	}, nil
}

// setCellContents is the single path every content change goes through.
func (wb *Workbook) setCellContents(key cellKey, contents string) {
	contents = strings.TrimSpace(contents)
	rec := wb.storage.cells.getOrCreate(key)
	rec.contents = contents
	if isFormula(contents) {
		rec.formulaID = wb.storage.formulas.InternFormula(contents, rec.id)
	} else {
		wb.storage.formulas.ReleaseCell(rec.id)
		rec.formulaID = 0
	}
	wb.assignValue(rec, wb.evaluateCell(rec))
	wb.propagate(rec.id)
	wb.storage.dependencyGraph.markForSweep(rec.id)
	wb.updateExtent(key, rec.hasContents())
}

// reset recomputes a cell by setting its own contents again.
func (wb *Workbook) reset(rec *cellRecord) {
	if rec == nil {
		return
	}
	wb.setCellContents(rec.key, rec.contents)
}

// evaluateCell computes a cell's value from its contents and rewires its
// parents to the cells the evaluation read.
func (wb *Workbook) evaluateCell(rec *cellRecord) Value {
	dg := wb.storage.dependencyGraph
	if !rec.isFormula() {
		dg.clearParents(rec.id)
		if !rec.hasContents() {
			return EmptyValue()
		}
		return parseLiteral(rec.contents)
	}
	ast, err := wb.storage.formulas.GetAST(rec.formulaID)
	if err != nil {
		dg.clearParents(rec.id)
		return ErrorValue(ErrorCodeParse, err.Error())
	}
	ec := newEvalContext(wb.storage, wb.functions, rec.key.sheet)
	v := ec.evaluateFormula(ast)
	dg.setParents(rec.id, ec.parents)
	return v
}

// assignValue stores a computed value, remembering the value the cell had
// when the current operation first touched it.
func (wb *Workbook) assignValue(rec *cellRecord, v Value) {
	if _, seen := wb.changes[rec.id]; !seen {
		wb.changes[rec.id] = rec.value
		wb.changeOrder = append(wb.changeOrder, rec.id)
	}
	rec.value = v
	if v.ErrorCode() == ErrorCodeRef {
		wb.badRefs[rec.id] = struct{}{}
	} else {
		delete(wb.badRefs, rec.id)
	}
}

// propagate recomputes everything downstream of a changed cell, marking
// cycles through it as #CIRCREF!.
func (wb *Workbook) propagate(id cellID) {
	dg := wb.storage.dependencyGraph
	if wb.markCycle(id) {
		return
	}
	order := dg.calculationOrder(id)
	for _, cid := range order {
		if cid == id {
			continue
		}
		rec := wb.storage.cells.get(cid)
		wb.assignValue(rec, wb.evaluateCell(rec))
	}
	if len(order) > 1 {
		wb.logger.Debug("recomputed dependents", "cells", len(order)-1)
	}
	wb.markCycle(id)
}

func (wb *Workbook) markCycle(id cellID) bool {
	cycle := wb.storage.dependencyGraph.findCycle(id)
	if cycle == nil {
		return false
	}
	for _, cid := range cycle {
		wb.assignValue(wb.storage.cells.get(cid), ErrorValue(ErrorCodeCircular, ""))
	}
	wb.logger.Debug("circular reference", "cells", len(cycle))
	return true
}

// retryReferences recomputes formulas that might resolve now that sheet
// exists: readers of its placeholders and every cell holding #REF!.
func (wb *Workbook) retryReferences(sheet string) {
	retry := make(map[cellID]struct{})
	for _, id := range wb.storage.cells.sheetCells(sheet) {
		for cid := range wb.storage.cells.get(id).children {
			retry[cid] = struct{}{}
		}
	}
	for id := range wb.badRefs {
		retry[id] = struct{}{}
	}
	for _, id := range sortedIDs(retry) {
		rec := wb.storage.cells.get(id)
		if rec == nil || !rec.isFormula() {
			continue
		}
		wb.reset(rec)
	}
}

// updateExtent grows the sheet extent for a filled cell; clearing a cell on
// the boundary rescans the sheet.
func (wb *Workbook) updateExtent(key cellKey, filled bool) {
	w, ok := wb.storage.worksheets.getByKey(key.sheet)
	if !ok {
		return
	}
	if filled {
		w.extent.Col = max(w.extent.Col, key.addr.Col)
		w.extent.Row = max(w.extent.Row, key.addr.Row)
		return
	}
	if key.addr.Col < w.extent.Col && key.addr.Row < w.extent.Row {
		return
	}
	w.extent = Address{}
	for _, id := range wb.storage.cells.sheetCells(key.sheet) {
		rec := wb.storage.cells.get(id)
		if !rec.hasContents() {
			continue
		}
		w.extent.Col = max(w.extent.Col, rec.key.addr.Col)
		w.extent.Row = max(w.extent.Row, rec.key.addr.Row)
	}
}
