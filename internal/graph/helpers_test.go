package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// hex is an axial sector coordinate used to lay out test universes.
type hex struct{ q, r int }

var (
	left2          = hex{-2, 0}
	left           = hex{-1, 0}
	centerLeftTop  = hex{-1, 1}
	center         = hex{0, 0}
	centerRightTop = hex{1, 1}
	right          = hex{1, 0}
	right2         = hex{2, 0}
)

var (
	east = Vec2{X: 1}
	west = Vec2{X: -1}
)

const testSectorSize = 500.0

// testUniverse wraps a Universe with hex bookkeeping so tests can talk in coordinates.
type testUniverse struct {
	*Universe
	ids map[hex]SectorID
}

func newTestUniverse(sectors ...hex) *testUniverse {
	tu := &testUniverse{Universe: NewUniverse(), ids: make(map[hex]SectorID)}
	for i, h := range sectors {
		id := SectorID(i + 1)
		tu.ids[h] = id
		tu.AddSector(id, Vec2{
			X: testSectorSize * 1.5 * float64(h.q),
			Y: testSectorSize * math.Sqrt(3) * (float64(h.r) + float64(h.q)/2),
		})
	}
	return tu
}

func (tu *testUniverse) gate(t *testing.T, a hex, aLocal Vec2, b hex, bLocal Vec2) GatePair {
	t.Helper()
	pair, err := tu.AddGatePair(tu.ids[a], aLocal, tu.ids[b], bLocal)
	require.NoError(t, err)
	return pair
}

func (tu *testUniverse) exits(route []PathElement) []SectorID {
	out := make([]SectorID, len(route))
	for i, e := range route {
		out[i] = e.ExitSector
	}
	return out
}

// brokenView lets tests hand the searches a snapshot with dangling references.
type brokenView struct {
	edges map[SectorID][]Edge
	gates map[GateID]Vec2
}

func (b brokenView) Edges(s SectorID) ([]Edge, bool) {
	e, ok := b.edges[s]
	return e, ok
}

func (b brokenView) GatePosition(g GateID) (Vec2, bool) {
	p, ok := b.gates[g]
	return p, ok
}
