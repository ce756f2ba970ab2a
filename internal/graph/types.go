package graph

import "fmt"

// SectorID identifies a sector in the routing graph.
type SectorID int32

// GateID identifies one gate. Gates always come in pairs.
type GateID int32

// Cost is the scalar route cost. Squared in-sector distances are truncated to integers.
type Cost uint64

// Vec2 is a point in world space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// DistanceSquared returns the squared euclidean distance between v and o.
func (v Vec2) DistanceSquared(o Vec2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return dx*dx + dy*dy
}

// GatePair describes one traversable connector as seen from a sector:
// From is the gate inside that sector, To is its partner in the neighbor.
type GatePair struct {
	From GateID `json:"from"`
	To   GateID `json:"to"`
}

// Reverse returns the pair as seen from the other side.
func (p GatePair) Reverse() GatePair {
	return GatePair{From: p.To, To: p.From}
}

func (p GatePair) less(o GatePair) bool {
	if p.From != o.From {
		return p.From < o.From
	}
	return p.To < o.To
}

// Edge is an outgoing connection of a sector.
type Edge struct {
	To    SectorID
	Gates GatePair
}

// PathElement is one step of a route: leave through Gates and arrive in ExitSector.
// Two different gate pairs into the same sector are different elements.
type PathElement struct {
	ExitSector SectorID `json:"exit_sector"`
	Gates      GatePair `json:"gate_pair"`
}

// SearchResult is a region search match tagged with its hop distance from the start.
type SearchResult struct {
	Distance int      `json:"distance"`
	Sector   SectorID `json:"sector"`
}

// Less orders results by distance, then sector id.
func (r SearchResult) Less(o SearchResult) bool {
	if r.Distance != o.Distance {
		return r.Distance < o.Distance
	}
	return r.Sector < o.Sector
}

// View is the read-only graph snapshot consumed by the searches.
// Implementations must not be mutated while a search is running.
type View interface {
	// Edges returns the outgoing edges of sector. ok is false for an unknown sector.
	Edges(sector SectorID) (edges []Edge, ok bool)
	// GatePosition returns the world position of a gate. ok is false for an unknown gate.
	GatePosition(gate GateID) (pos Vec2, ok bool)
}

// Lookup returns the auxiliary record stored for a sector, if any.
type Lookup[T any] func(sector SectorID) (T, bool)

// Predicate decides whether an auxiliary record matches. It must not have side effects.
type Predicate[T any] func(record T) bool

// MalformedGraphError is the panic value raised when a View references a sector or gate
// it cannot resolve. It signals a broken snapshot, not a search outcome.
type MalformedGraphError struct {
	Sector SectorID
	Gate   GateID
	IsGate bool
}

func (e *MalformedGraphError) Error() string {
	if e.IsGate {
		return fmt.Sprintf("graph: gate %d is not part of the graph view", e.Gate)
	}
	return fmt.Sprintf("graph: sector %d is not part of the graph view", e.Sector)
}

func mustEdges(view View, sector SectorID) []Edge {
	edges, ok := view.Edges(sector)
	if !ok {
		panic(&MalformedGraphError{Sector: sector})
	}
	return edges
}

func mustGatePosition(view View, gate GateID) Vec2 {
	pos, ok := view.GatePosition(gate)
	if !ok {
		panic(&MalformedGraphError{Gate: gate, IsGate: true})
	}
	return pos
}
