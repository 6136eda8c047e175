package spreadsheet

// DependencyGraph maintains the parent/child links between cell records and
// answers the two graph questions recalculation needs: which cells form a
// cycle through a given cell, and in what order its dependents must be
// recomputed.
type DependencyGraph struct {
	cells *cellStore

	// records that may have become garbage during the current operation.
	// they are swept once the operation has finished so that ids held by
	// in-flight traversals stay valid.
	pendingGC map[cellID]struct{}
}

// NewDependencyGraph creates a dependency graph over the cell arena
func NewDependencyGraph(cells *cellStore) *DependencyGraph {
	return &DependencyGraph{
		cells:     cells,
		pendingGC: make(map[cellID]struct{}),
	}
}

// setParents replaces the parent set of a cell, creating placeholder
// records for parents that do not exist yet. child sets are updated to
// stay symmetric.
func (dg *DependencyGraph) setParents(id cellID, keys []cellKey) {
	rec := dg.cells.get(id)
	wanted := make(map[cellID]struct{}, len(keys))
	for _, key := range keys {
		parent := dg.cells.getOrCreate(key)
		wanted[parent.id] = struct{}{}
	}

	for pid := range rec.parents {
		if _, keep := wanted[pid]; keep {
			continue
		}
		delete(rec.parents, pid)
		if parent := dg.cells.get(pid); parent != nil {
			delete(parent.children, id)
			dg.markForSweep(pid)
		}
	}
	for pid := range wanted {
		if _, have := rec.parents[pid]; have {
			continue
		}
		rec.parents[pid] = struct{}{}
		dg.cells.get(pid).children[id] = struct{}{}
	}
}

// clearParents unlinks a cell from everything it reads.
func (dg *DependencyGraph) clearParents(id cellID) {
	dg.setParents(id, nil)
}

// children returns the direct dependents of a cell in id order.
func (dg *DependencyGraph) children(id cellID) []cellID {
	rec := dg.cells.get(id)
	if rec == nil {
		return nil
	}
	return sortedIDs(rec.children)
}

func (dg *DependencyGraph) markForSweep(id cellID) {
	dg.pendingGC[id] = struct{}{}
}

// isGarbage reports whether a record carries nothing worth keeping.
func isGarbage(rec *cellRecord) bool {
	return !rec.hasContents() && len(rec.parents) == 0 && len(rec.children) == 0
}

// sweep releases every pending record that turned out to be garbage and
// returns the released ids.
func (dg *DependencyGraph) sweep() []cellID {
	var released []cellID
	for _, id := range sortedIDs(dg.pendingGC) {
		rec := dg.cells.get(id)
		if rec == nil || !isGarbage(rec) {
			continue
		}
		dg.cells.release(id)
		released = append(released, id)
	}
	clear(dg.pendingGC)
	return released
}

// findCycle walks children breadth first from start. if the walk comes
// back to start, every cell visited on the way is returned; otherwise nil.
// cells already marked circular are not walked through again.
func (dg *DependencyGraph) findCycle(start cellID) []cellID {
	visited := make(map[cellID]struct{})
	var order []cellID
	queue := []cellID{start}
	found := false

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		order = append(order, id)

		for _, child := range dg.children(id) {
			if child == start {
				found = true
				continue
			}
			if rec := dg.cells.get(child); rec != nil && rec.value.ErrorCode() == ErrorCodeCircular {
				continue
			}
			if _, seen := visited[child]; !seen {
				queue = append(queue, child)
			}
		}
	}

	if !found {
		return nil
	}
	return order
}

// calculationOrder returns start plus every cell reachable from it through
// child links, topologically sorted (Kahn) within that subgraph. cells left
// over because they sit on a cycle are not returned.
func (dg *DependencyGraph) calculationOrder(start cellID) []cellID {
	reachable := map[cellID]struct{}{start: {}}
	stack := []cellID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range dg.children(id) {
			if _, seen := reachable[child]; seen {
				continue
			}
			reachable[child] = struct{}{}
			stack = append(stack, child)
		}
	}

	nodes := sortedIDs(reachable)
	inDegree := make(map[cellID]int, len(nodes))
	for _, id := range nodes {
		if _, ok := inDegree[id]; !ok {
			inDegree[id] = 0
		}
		for _, child := range dg.children(id) {
			inDegree[child]++
		}
	}

	// seed with the minimum in-degree so that a start cell sitting on a
	// cycle still yields an order.
	minDegree := inDegree[nodes[0]]
	for _, id := range nodes {
		minDegree = min(minDegree, inDegree[id])
	}
	queued := make(map[cellID]struct{})
	var queue []cellID
	for _, id := range nodes {
		if inDegree[id] == minDegree {
			queue = append(queue, id)
			queued[id] = struct{}{}
		}
	}

	order := make([]cellID, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, child := range dg.children(id) {
			inDegree[child]--
			if inDegree[child] > 0 {
				continue
			}
			if _, seen := queued[child]; seen {
				continue
			}
			queued[child] = struct{}{}
			queue = append(queue, child)
		}
	}
	return order
}

// parents returns the direct precedents of a cell in id order.
func (dg *DependencyGraph) parents(id cellID) []cellID {
	rec := dg.cells.get(id)
	if rec == nil {
		return nil
	}
	return sortedIDs(rec.parents)
}
