package atlas

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gatenav/internal/graph"
)

// ErrUnknownSector is returned when a sector name or id does not resolve.
var ErrUnknownSector = errors.New("unknown sector")

// Sector is a named hex cell of the universe.
type Sector struct {
	ID       graph.SectorID `json:"id"`
	Name     string         `json:"name"`
	Q        int            `json:"q"`
	R        int            `json:"r"`
	WorldPos graph.Vec2     `json:"world_pos"`
}

// AsteroidField is the per-sector fact record consumed by region searches.
type AsteroidField struct {
	Sector    graph.SectorID `json:"sector"`
	Ware      string         `json:"ware"`
	Ore       int64          `json:"ore"`
	Asteroids int            `json:"asteroids"`
}

// Atlas is one complete universe snapshot: the routing graph plus sector metadata
// and asteroid fields. It is not mutated after it has been handed to the navigator.
type Atlas struct {
	Universe     *graph.Universe
	Sectors      map[graph.SectorID]*Sector
	SectorByName map[string]graph.SectorID // lowercase name -> id
	Fields       map[graph.SectorID]*AsteroidField
}

// New creates an empty Atlas.
func New() *Atlas {
	return &Atlas{
		Universe:     graph.NewUniverse(),
		Sectors:      make(map[graph.SectorID]*Sector),
		SectorByName: make(map[string]graph.SectorID),
		Fields:       make(map[graph.SectorID]*AsteroidField),
	}
}

// AddSector places a sector on the hex grid.
func (a *Atlas) AddSector(id graph.SectorID, name string, q, r int) *Sector {
	return a.AddSectorAt(id, name, q, r, HexToWorld(q, r))
}

// AddSectorAt adds a sector with an explicit world anchor, as restored from storage.
func (a *Atlas) AddSectorAt(id graph.SectorID, name string, q, r int, worldPos graph.Vec2) *Sector {
	s := &Sector{ID: id, Name: name, Q: q, R: r, WorldPos: worldPos}
	a.Sectors[id] = s
	if name != "" {
		a.SectorByName[strings.ToLower(name)] = id
	}
	a.Universe.AddSector(id, s.WorldPos)
	return s
}

// Connect builds a gate pair between two sectors at local offsets from their anchors.
func (a *Atlas) Connect(from graph.SectorID, fromLocal graph.Vec2, to graph.SectorID, toLocal graph.Vec2) (graph.GatePair, error) {
	return a.Universe.AddGatePair(from, fromLocal, to, toLocal)
}

// SetField stores the asteroid field of a sector, replacing any previous one.
func (a *Atlas) SetField(f AsteroidField) error {
	if _, ok := a.Sectors[f.Sector]; !ok {
		return fmt.Errorf("field: %w %d", ErrUnknownSector, f.Sector)
	}
	a.Fields[f.Sector] = &f
	return nil
}

// FieldFor is the auxiliary lookup for graph.FindInRange.
func (a *Atlas) FieldFor(id graph.SectorID) (AsteroidField, bool) {
	f, ok := a.Fields[id]
	if !ok {
		return AsteroidField{}, false
	}
	return *f, true
}

// Resolve accepts a numeric sector id or a case-insensitive sector name.
func (a *Atlas) Resolve(ref string) (graph.SectorID, error) {
	ref = strings.TrimSpace(ref)
	if id, ok := a.SectorByName[strings.ToLower(ref)]; ok {
		return id, nil
	}
	if n, err := strconv.ParseInt(ref, 10, 32); err == nil {
		if _, ok := a.Sectors[graph.SectorID(n)]; ok {
			return graph.SectorID(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSector, ref)
}

// Name returns the sector name, or its id when unnamed.
func (a *Atlas) Name(id graph.SectorID) string {
	if s, ok := a.Sectors[id]; ok && s.Name != "" {
		return s.Name
	}
	return strconv.Itoa(int(id))
}

// SectorNames returns all sector names sorted, for autocomplete.
func (a *Atlas) SectorNames() []string {
	names := make([]string, 0, len(a.Sectors))
	for _, s := range a.Sectors {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	sort.Strings(names)
	return names
}
