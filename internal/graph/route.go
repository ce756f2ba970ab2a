package graph

import "container/heap"

// FindRoute returns the cheapest sequence of gate traversals from startPos inside start
// to goal, or ok=false if goal cannot be reached. start == goal yields an empty route.
//
// This is uniform-cost search: there is no heuristic. Search state is keyed by
// PathElement (sector + gate pair), because the cost of the next leg depends on which
// gate the ship emerges from, not only on the sector it is in.
//
// Panics with *MalformedGraphError if the view references unknown sectors or gates.
func FindRoute(view View, start SectorID, startPos Vec2, goal SectorID) ([]PathElement, bool) {
	path, _, ok := FindRouteWithCost(view, start, startPos, goal)
	return path, ok
}

// FindRouteWithCost is FindRoute that also reports the accumulated cost of the route.
func FindRouteWithCost(view View, start SectorID, startPos Vec2, goal SectorID) ([]PathElement, Cost, bool) {
	startEdges := mustEdges(view, start)
	if start == goal {
		return []PathElement{}, 0, true
	}

	costs := make(map[PathElement]Cost)
	// cameFrom maps element -> the element travelled right before it
	cameFrom := make(map[PathElement]PathElement)
	open := &frontier{}

	// The first hop only pays the approach to the gate. Relaxation below charges
	// GateTraversalCost on every later hop, so subtracting it here keeps the first
	// crossing from being counted twice. Route costs from different start positions
	// in the same sector stay comparable only with this asymmetry; do not remove it.
	for _, e := range startEdges {
		c := edgeCost(view, startPos, e) - GateTraversalCost
		elem := PathElement{ExitSector: e.To, Gates: e.Gates}
		if old, seen := costs[elem]; seen && old <= c {
			continue
		}
		costs[elem] = c
		heap.Push(open, searchNode{elem: elem, cost: c})
	}

	for open.Len() > 0 {
		node := heap.Pop(open).(searchNode)
		current := node.elem
		if node.cost > costs[current] {
			continue // stale entry, a cheaper one was already expanded
		}
		if current.ExitSector == goal {
			return reconstructPath(cameFrom, current), node.cost, true
		}

		// The ship re-emerges at the partner gate in the sector it just entered.
		exitPos := mustGatePosition(view, current.Gates.To)
		for _, e := range mustEdges(view, current.ExitSector) {
			neighbor := PathElement{ExitSector: e.To, Gates: e.Gates}
			c := node.cost + edgeCost(view, exitPos, e)
			if old, seen := costs[neighbor]; seen && old <= c {
				continue
			}
			cameFrom[neighbor] = current
			costs[neighbor] = c
			heap.Push(open, searchNode{elem: neighbor, cost: c})
		}
	}

	return nil, 0, false
}

// searchNode is a frontier entry.
type searchNode struct {
	elem PathElement
	cost Cost
}

// frontier is a min-heap on cost. Ties fall back to sector id and gate pair so the
// expansion order, and therefore the chosen route, is reproducible.
type frontier []searchNode

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	a, b := f[i], f[j]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.elem.ExitSector != b.elem.ExitSector {
		return a.elem.ExitSector < b.elem.ExitSector
	}
	return a.elem.Gates.less(b.elem.Gates)
}
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x interface{}) { *f = append(*f, x.(searchNode)) }
func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}
