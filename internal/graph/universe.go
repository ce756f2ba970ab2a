package graph

import (
	"fmt"
	"sort"
)

// SectorInfo is the geometry the universe keeps per sector.
type SectorInfo struct {
	ID       SectorID
	WorldPos Vec2
}

// Universe holds sectors connected by gate pairs. It is the in-memory View used by the
// navigator; it is built once and treated as immutable afterwards.
type Universe struct {
	// Sectors maps sectorID -> anchor geometry
	Sectors map[SectorID]*SectorInfo
	// Adj maps sectorID -> outgoing edges in insertion order
	Adj map[SectorID][]Edge
	// GatePos maps gateID -> world position
	GatePos map[GateID]Vec2
	// GateSector maps gateID -> sector the gate sits in
	GateSector map[GateID]SectorID

	nextGate GateID
}

// NewUniverse creates an empty Universe with initialized maps.
func NewUniverse() *Universe {
	return &Universe{
		Sectors:    make(map[SectorID]*SectorInfo),
		Adj:        make(map[SectorID][]Edge),
		GatePos:    make(map[GateID]Vec2),
		GateSector: make(map[GateID]SectorID),
		nextGate:   1,
	}
}

// AddSector registers a sector with its world anchor.
func (u *Universe) AddSector(id SectorID, worldPos Vec2) {
	u.Sectors[id] = &SectorInfo{ID: id, WorldPos: worldPos}
	if _, ok := u.Adj[id]; !ok {
		u.Adj[id] = nil
	}
}

// AddGatePair creates two gates, one in each sector at the given local offsets,
// and connects them in both directions. Returns the pair as seen from fromSector.
func (u *Universe) AddGatePair(fromSector SectorID, fromLocal Vec2, toSector SectorID, toLocal Vec2) (GatePair, error) {
	a, ok := u.Sectors[fromSector]
	if !ok {
		return GatePair{}, fmt.Errorf("add gate pair: unknown sector %d", fromSector)
	}
	b, ok := u.Sectors[toSector]
	if !ok {
		return GatePair{}, fmt.Errorf("add gate pair: unknown sector %d", toSector)
	}

	fromGate := u.allocGate()
	toGate := u.allocGate()
	pair := GatePair{From: fromGate, To: toGate}

	u.AddGate(fromSector, fromGate, a.WorldPos.Add(fromLocal), toSector, toGate)
	u.AddGate(toSector, toGate, b.WorldPos.Add(toLocal), fromSector, fromGate)
	return pair, nil
}

// AddGate records a single directed edge: gate sits in sector at pos and leads to
// destGate in destSector. Callers restoring a persisted snapshot add both directions.
func (u *Universe) AddGate(sector SectorID, gate GateID, pos Vec2, destSector SectorID, destGate GateID) {
	u.GatePos[gate] = pos
	u.GateSector[gate] = sector
	u.Adj[sector] = append(u.Adj[sector], Edge{To: destSector, Gates: GatePair{From: gate, To: destGate}})
	if gate >= u.nextGate {
		u.nextGate = gate + 1
	}
	if destGate >= u.nextGate {
		u.nextGate = destGate + 1
	}
}

func (u *Universe) allocGate() GateID {
	id := u.nextGate
	u.nextGate++
	return id
}

// Edges implements View.
func (u *Universe) Edges(sector SectorID) ([]Edge, bool) {
	if _, ok := u.Sectors[sector]; !ok {
		return nil, false
	}
	return u.Adj[sector], true
}

// GatePosition implements View.
func (u *Universe) GatePosition(gate GateID) (Vec2, bool) {
	pos, ok := u.GatePos[gate]
	return pos, ok
}

// Sector returns the geometry of a sector.
func (u *Universe) Sector(id SectorID) (*SectorInfo, bool) {
	s, ok := u.Sectors[id]
	return s, ok
}

// SectorIDs returns all sector ids in ascending order.
func (u *Universe) SectorIDs() []SectorID {
	ids := make([]SectorID, 0, len(u.Sectors))
	for id := range u.Sectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GateCount returns the number of gates (two per connection).
func (u *Universe) GateCount() int {
	return len(u.GatePos)
}

// Validate checks that every edge resolves: destination sector exists, both gates have
// positions, and the partner gate links back. Searches panic on the first two; import
// paths call Validate to reject such snapshots early.
func (u *Universe) Validate() error {
	for _, id := range u.SectorIDs() {
		for _, e := range u.Adj[id] {
			if _, ok := u.Sectors[e.To]; !ok {
				return fmt.Errorf("sector %d: edge to unknown sector %d", id, e.To)
			}
			if _, ok := u.GatePos[e.Gates.From]; !ok {
				return fmt.Errorf("sector %d: unknown gate %d", id, e.Gates.From)
			}
			if _, ok := u.GatePos[e.Gates.To]; !ok {
				return fmt.Errorf("sector %d: unknown partner gate %d", id, e.Gates.To)
			}
			if !u.hasEdge(e.To, e.Gates.Reverse()) {
				return fmt.Errorf("sector %d: gate pair %d->%d has no reciprocal edge in sector %d",
					id, e.Gates.From, e.Gates.To, e.To)
			}
		}
	}
	return nil
}

func (u *Universe) hasEdge(sector SectorID, pair GatePair) bool {
	for _, e := range u.Adj[sector] {
		if e.Gates == pair {
			return true
		}
	}
	return false
}
