package spreadsheet

import (
	"maps"
	"slices"
)

// cellID indexes the cell arena. ids are reused after a record is released.
type cellID int32

// cellKey identifies a cell by folded sheet name and address. records for a
// sheet that does not exist (yet) are placeholders.
type cellKey struct {
	sheet string
	addr  Address
}

// cellRecord is the arena entry for one cell. parent and child links are id
// sets kept symmetric by DependencyGraph.
type cellRecord struct {
	id        cellID
	key       cellKey
	contents  string // trimmed; "" means no contents
	value     Value
	formulaID uint32 // 0 when the contents are not a formula
	parents   map[cellID]struct{}
	children  map[cellID]struct{}
}

func (c *cellRecord) hasContents() bool { return c.contents != "" }

func (c *cellRecord) isFormula() bool { return c.formulaID != 0 }

// Storage bundles the tables a workbook is made of.
type Storage struct {
	worksheets      *WorksheetTable
	formulas        *FormulaTable
	dependencyGraph *DependencyGraph
	cells           *cellStore
}

func newStorage() *Storage {
	cells := newCellStore()
	return &Storage{
		worksheets:      NewWorksheetTable(),
		formulas:        NewFormulaTable(),
		dependencyGraph: NewDependencyGraph(cells),
		cells:           cells,
	}
}

// cellStore is the arena of cell records plus the key index.
type cellStore struct {
	records []*cellRecord
	free    []cellID
	index   map[string]map[Address]cellID // folded sheet -> address -> id
}

func newCellStore() *cellStore {
	return &cellStore{index: make(map[string]map[Address]cellID)}
}

func (s *cellStore) get(id cellID) *cellRecord {
	if id < 0 || int(id) >= len(s.records) {
		return nil
	}
	return s.records[id]
}

func (s *cellStore) lookup(key cellKey) (*cellRecord, bool) {
	id, ok := s.index[key.sheet][key.addr]
	if !ok {
		return nil, false
	}
	return s.records[id], true
}

func (s *cellStore) getOrCreate(key cellKey) *cellRecord {
	if rec, ok := s.lookup(key); ok {
		return rec
	}
	var id cellID
	if n := len(s.free); n > 0 {
		id = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		id = cellID(len(s.records))
		s.records = append(s.records, nil)
	}
	rec := &cellRecord{
		id:       id,
		key:      key,
		parents:  make(map[cellID]struct{}),
		children: make(map[cellID]struct{}),
	}
	s.records[id] = rec
	sheetIndex, ok := s.index[key.sheet]
	if !ok {
		sheetIndex = make(map[Address]cellID)
		s.index[key.sheet] = sheetIndex
	}
	sheetIndex[key.addr] = id
	return rec
}

// release drops a record from the arena. callers unlink edges first.
func (s *cellStore) release(id cellID) {
	rec := s.get(id)
	if rec == nil {
		return
	}
	if sheetIndex, ok := s.index[rec.key.sheet]; ok {
		delete(sheetIndex, rec.key.addr)
		if len(sheetIndex) == 0 {
			delete(s.index, rec.key.sheet)
		}
	}
	s.records[id] = nil
	s.free = append(s.free, id)
}

// sheetCells returns the ids of every record under a folded sheet name in
// row-major address order.
func (s *cellStore) sheetCells(sheet string) []cellID {
	sheetIndex := s.index[sheet]
	addrs := slices.SortedFunc(maps.Keys(sheetIndex), compareAddress)
	ids := make([]cellID, len(addrs))
	for i, a := range addrs {
		ids[i] = sheetIndex[a]
	}
	return ids
}

// rekey moves a record under a new key. any record already at that key must
// have been merged and released by the caller.
func (s *cellStore) rekey(id cellID, key cellKey) {
	rec := s.records[id]
	if sheetIndex, ok := s.index[rec.key.sheet]; ok {
		delete(sheetIndex, rec.key.addr)
		if len(sheetIndex) == 0 {
			delete(s.index, rec.key.sheet)
		}
	}
	rec.key = key
	sheetIndex, ok := s.index[key.sheet]
	if !ok {
		sheetIndex = make(map[Address]cellID)
		s.index[key.sheet] = sheetIndex
	}
	sheetIndex[key.addr] = id
}

func compareAddress(a, b Address) int {
	if a.Row != b.Row {
		return compareInts(a.Row, b.Row)
	}
	return compareInts(a.Col, b.Col)
}

// sortedIDs returns the members of an id set in ascending order so that
// traversals are deterministic.
func sortedIDs(set map[cellID]struct{}) []cellID {
	return slices.Sorted(maps.Keys(set))
}
