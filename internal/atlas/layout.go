package atlas

import (
	"math"

	"gatenav/internal/graph"
)

// SectorSize is the distance from a sector's anchor to its hex corners.
const SectorSize = 500.0

// HexToWorld returns the world anchor of the flat-top hex at axial (q, r).
func HexToWorld(q, r int) graph.Vec2 {
	return graph.Vec2{
		X: SectorSize * 1.5 * float64(q),
		Y: SectorSize * math.Sqrt(3) * (float64(r) + float64(q)/2),
	}
}

// HexDistance returns the number of hex steps between two axial coordinates.
func HexDistance(q1, r1, q2, r2 int) int {
	dq := q1 - q2
	dr := r1 - r2
	return (abs(dq) + abs(dr) + abs(dq+dr)) / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
