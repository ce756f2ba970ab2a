package graph

// GateTraversalCost is the fixed price of jumping through one gate pair.
const GateTraversalCost Cost = 1000

// TravelCost returns the cost of leaving fromSector, starting at fromPos, towards toSector:
// the squared distance from fromPos to the gate leading there plus GateTraversalCost.
// Staying in the same sector costs nothing. ok is false if the sectors are not
// directly connected. With several gate pairs into toSector the cheapest one wins.
//
// Squared distance is used on purpose. It orders gates like the true distance without
// a square root, but it is not a metric and must not be used as an A* heuristic.
func TravelCost(view View, fromSector SectorID, fromPos Vec2, toSector SectorID) (cost Cost, ok bool) {
	if fromSector == toSector {
		return 0, true
	}
	for _, e := range mustEdges(view, fromSector) {
		if e.To != toSector {
			continue
		}
		c := edgeCost(view, fromPos, e)
		if !ok || c < cost {
			cost, ok = c, true
		}
	}
	return cost, ok
}

func edgeCost(view View, fromPos Vec2, e Edge) Cost {
	gate := mustGatePosition(view, e.Gates.From)
	return Cost(fromPos.DistanceSquared(gate)) + GateTraversalCost
}
