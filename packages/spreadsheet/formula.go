package spreadsheet

// parsedFormula caches the result of parsing one formula text. a parse
// failure is cached too; it evaluates to #ERROR!.
type parsedFormula struct {
	text string
	ast  ASTNode
	err  error
}

// FormulaTable stores parsed formulas centrally, shared by every cell whose
// contents are the same formula text, and tracks which sheets each formula
// names so that renames can find the formulas to rewrite.
type FormulaTable struct {
	// core formula storage

	textIndex map[string]uint32        // formula text -> formula ID
	astCache  map[uint32]parsedFormula // formula ID -> parsed AST
	refCounts map[uint32]int           // formula ID -> reference count

	// cell tracking

	cellsUsingFormula map[uint32]map[cellID]struct{} // formula ID -> cells using it
	formulaAtCell     map[cellID]uint32              // cell -> formula ID (reverse index)

	// worksheet tracking

	referencedWorksheets         map[uint32][]string            // formula ID -> folded sheet names it names
	formulasReferencingWorksheet map[string]map[uint32]struct{} // folded sheet name -> formula IDs

	nextID uint32
}

// NewFormulaTable creates a new formula table
func NewFormulaTable() *FormulaTable {
	return &FormulaTable{
		textIndex:                    make(map[string]uint32),
		astCache:                     make(map[uint32]parsedFormula),
		refCounts:                    make(map[uint32]int),
		cellsUsingFormula:            make(map[uint32]map[cellID]struct{}),
		formulaAtCell:                make(map[cellID]uint32),
		referencedWorksheets:         make(map[uint32][]string),
		formulasReferencingWorksheet: make(map[string]map[uint32]struct{}),
		nextID:                       1, // start at 1, reserve 0 for no formula
	}
}

// InternFormula attaches formula text to a cell, parsing it only if no other
// cell already uses the same text. any formula previously at the cell is
// released. returns the formula ID.
func (ft *FormulaTable) InternFormula(text string, cell cellID) uint32 {
	if id, ok := ft.formulaAtCell[cell]; ok {
		if ft.astCache[id].text == text {
			return id
		}
		ft.ReleaseCell(cell)
	}

	id, exists := ft.textIndex[text]
	if !exists {
		id = ft.nextID
		ft.nextID++
		ast, err := ParseFormula(text)
		ft.textIndex[text] = id
		ft.astCache[id] = parsedFormula{text: text, ast: ast, err: err}
		if err == nil {
			sheets := referencedSheets(ast)
			ft.referencedWorksheets[id] = sheets
			for _, sheet := range sheets {
				set, ok := ft.formulasReferencingWorksheet[sheet]
				if !ok {
					set = make(map[uint32]struct{})
					ft.formulasReferencingWorksheet[sheet] = set
				}
				set[id] = struct{}{}
			}
		}
	}

	ft.refCounts[id]++
	cells, ok := ft.cellsUsingFormula[id]
	if !ok {
		cells = make(map[cellID]struct{})
		ft.cellsUsingFormula[id] = cells
	}
	cells[cell] = struct{}{}
	ft.formulaAtCell[cell] = id
	return id
}

// ReleaseCell detaches whatever formula the cell holds, dropping the formula
// once no cell uses it.
func (ft *FormulaTable) ReleaseCell(cell cellID) {
	id, ok := ft.formulaAtCell[cell]
	if !ok {
		return
	}
	delete(ft.formulaAtCell, cell)
	delete(ft.cellsUsingFormula[id], cell)
	ft.refCounts[id]--
	if ft.refCounts[id] <= 0 {
		ft.removeFormula(id)
	}
}

func (ft *FormulaTable) removeFormula(id uint32) {
	parsed := ft.astCache[id]
	delete(ft.textIndex, parsed.text)
	delete(ft.astCache, id)
	delete(ft.refCounts, id)
	delete(ft.cellsUsingFormula, id)
	for _, sheet := range ft.referencedWorksheets[id] {
		delete(ft.formulasReferencingWorksheet[sheet], id)
		if len(ft.formulasReferencingWorksheet[sheet]) == 0 {
			delete(ft.formulasReferencingWorksheet, sheet)
		}
	}
	delete(ft.referencedWorksheets, id)
}

// GetAST returns the parsed formula, or the parse error.
func (ft *FormulaTable) GetAST(id uint32) (ASTNode, error) {
	parsed := ft.astCache[id]
	return parsed.ast, parsed.err
}

// CellsReferencingWorksheet returns every cell whose formula names the
// folded sheet in a reference, in ascending id order.
func (ft *FormulaTable) CellsReferencingWorksheet(sheet string) []cellID {
	set := make(map[cellID]struct{})
	for id := range ft.formulasReferencingWorksheet[sheet] {
		for cell := range ft.cellsUsingFormula[id] {
			set[cell] = struct{}{}
		}
	}
	return sortedIDs(set)
}

// Count returns the number of distinct formulas.
func (ft *FormulaTable) Count() int {
	return len(ft.astCache)
}
