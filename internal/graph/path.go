package graph

// reconstructPath walks the predecessor chain back from end and returns the elements
// in travel order. Each element reads "leave through Gates, arrive in ExitSector".
func reconstructPath(cameFrom map[PathElement]PathElement, end PathElement) []PathElement {
	path := []PathElement{end}
	for cur := end; ; {
		prev, ok := cameFrom[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// RouteCost recomputes the cost of an already planned route with the same rules as
// FindRoute. ok is false if a step is not a direct connection of the previous sector.
func RouteCost(view View, start SectorID, startPos Vec2, route []PathElement) (Cost, bool) {
	var total Cost
	sector, pos := start, startPos
	for i, step := range route {
		edge, found := findEdge(mustEdges(view, sector), step)
		if !found {
			return 0, false
		}
		c := edgeCost(view, pos, edge)
		if i == 0 {
			c -= GateTraversalCost
		}
		total += c
		sector = step.ExitSector
		pos = mustGatePosition(view, step.Gates.To)
	}
	return total, true
}

func findEdge(edges []Edge, step PathElement) (Edge, bool) {
	for _, e := range edges {
		if e.To == step.ExitSector && e.Gates == step.Gates {
			return e, true
		}
	}
	return Edge{}, false
}
