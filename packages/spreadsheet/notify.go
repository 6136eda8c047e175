package spreadsheet

import (
	"slices"
)

// Register adds a listener. registering the same function twice makes it
// fire twice.
func (wb *Workbook) Register(listener Listener) {
	wb.listeners = append(wb.listeners, listener)
}

// Batch runs fn with notifications suppressed and then flushes a single
// notification covering everything fn changed. there is no rollback: work
// done before fn fails is kept.
func (wb *Workbook) Batch(fn func() error) error {
	return wb.mutate(fn)
}

// mutate wraps one public operation. nested calls share the outermost
// operation's change set.
func (wb *Workbook) mutate(fn func() error) error {
	wb.depth++
	defer func() {
		wb.depth--
		if wb.depth == 0 {
			wb.flush()
		}
	}()
	return fn()
}

// flush reports changed cells, then releases garbage records.
func (wb *Workbook) flush() {
	changed := wb.collectChanges()
	for _, id := range wb.storage.dependencyGraph.sweep() {
		delete(wb.badRefs, id)
	}
	if len(changed) == 0 {
		return
	}
	for _, listener := range wb.listeners {
		wb.notify(listener, changed)
	}
}

func (wb *Workbook) collectChanges() []CellRef {
	type change struct {
		sheet int
		addr  Address
		ref   CellRef
	}
	var changes []change
	for _, id := range wb.changeOrder {
		old, ok := wb.changes[id]
		if !ok {
			continue
		}
		delete(wb.changes, id)
		rec := wb.storage.cells.get(id)
		if rec == nil || old.Equal(rec.value) {
			continue
		}
		w, live := wb.storage.worksheets.getByKey(rec.key.sheet)
		if !live {
			continue
		}
		changes = append(changes, change{
			sheet: wb.storage.worksheets.Index(w.name),
			addr:  rec.key.addr,
			ref:   CellRef{Sheet: w.name, Address: rec.key.addr.String()},
		})
	}
	clear(wb.changes)
	wb.changeOrder = wb.changeOrder[:0]

	slices.SortFunc(changes, func(a, b change) int {
		if a.sheet != b.sheet {
			return compareInts(a.sheet, b.sheet)
		}
		return compareAddress(a.addr, b.addr)
	})
	refs := make([]CellRef, len(changes))
	for i, c := range changes {
		refs[i] = c.ref
	}
	return refs
}

// notify calls one listener; a panicking listener is logged and skipped.
func (wb *Workbook) notify(listener Listener, changed []CellRef) {
	defer func() {
		if r := recover(); r != nil {
			wb.logger.Warn("listener panicked", "panic", r)
		}
	}()
	listener(wb, slices.Clone(changed))
}
