// Package nav serves route and region queries against the currently loaded atlas.
package nav

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"gatenav/internal/atlas"
	"gatenav/internal/graph"
	"gatenav/internal/logger"
)

var (
	// ErrNoSnapshot is returned until an atlas has been loaded.
	ErrNoSnapshot = errors.New("no atlas loaded")
	// ErrUnknownSector is returned for a sector id that is not part of the snapshot.
	ErrUnknownSector = errors.New("unknown sector")
)

// Step is one element of a planned route with display data.
type Step struct {
	graph.PathElement
	Name string     `json:"name"`
	Cost graph.Cost `json:"cost"` // cumulative
}

// Route is the outcome of a route query. Found is false when the goal is unreachable.
type Route struct {
	From     graph.SectorID `json:"from"`
	To       graph.SectorID `json:"to"`
	Elements []Step         `json:"elements"`
	Cost     graph.Cost     `json:"cost"`
	Hops     int            `json:"hops"`
	Found    bool           `json:"found"`
}

// Stats describes the loaded snapshot.
type Stats struct {
	Loaded       bool   `json:"loaded"`
	Version      uint64 `json:"version"`
	Sectors      int    `json:"sectors"`
	Gates        int    `json:"gates"`
	Fields       int    `json:"fields"`
	CachedRoutes int    `json:"cached_routes"`
}

type routeKey struct {
	version uint64
	from    graph.SectorID
	pos     graph.Vec2
	to      graph.SectorID
}

// Navigator holds one immutable atlas snapshot and answers queries against it.
// Loading a new snapshot swaps it in whole and drops every cached route.
type Navigator struct {
	mu       sync.RWMutex
	snapshot *atlas.Atlas
	version  uint64
	routes   map[routeKey]Route
	maxCache int
	group    singleflight.Group
}

// New creates a Navigator caching up to cacheSize routes (0 disables caching).
func New(cacheSize int) *Navigator {
	if cacheSize < 0 {
		cacheSize = 0
	}
	return &Navigator{
		routes:   make(map[routeKey]Route),
		maxCache: cacheSize,
	}
}

// Load installs a as the current snapshot. a must not be mutated afterwards.
func (n *Navigator) Load(a *atlas.Atlas) {
	n.mu.Lock()
	n.snapshot = a
	n.version++
	n.routes = make(map[routeKey]Route)
	v := n.version
	n.mu.Unlock()

	logger.Success("NAV", fmt.Sprintf("Snapshot v%d loaded: %d sectors, %d gates",
		v, len(a.Sectors), a.Universe.GateCount()))
}

// Snapshot returns the current atlas and its version.
func (n *Navigator) Snapshot() (*atlas.Atlas, uint64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.snapshot == nil {
		return nil, 0, ErrNoSnapshot
	}
	return n.snapshot, n.version, nil
}

// Route plans the cheapest route from pos inside from to the sector to.
// Identical concurrent queries are computed once.
func (n *Navigator) Route(from graph.SectorID, pos graph.Vec2, to graph.SectorID) (Route, error) {
	a, version, err := n.Snapshot()
	if err != nil {
		return Route{}, err
	}
	if err := checkSector(a, from); err != nil {
		return Route{}, err
	}
	if err := checkSector(a, to); err != nil {
		return Route{}, err
	}

	key := routeKey{version: version, from: from, pos: pos, to: to}
	if r, ok := n.cached(key); ok {
		return r, nil
	}

	sfKey := fmt.Sprintf("%d:%d:%g:%g:%d", version, from, pos.X, pos.Y, to)
	result, err, _ := n.group.Do(sfKey, func() (v interface{}, err error) {
		// singleflight wraps panics; carry a broken snapshot out as an error instead
		// and re-raise it below with its original type.
		defer func() {
			if rec := recover(); rec != nil {
				mg, ok := rec.(*graph.MalformedGraphError)
				if !ok {
					panic(rec)
				}
				err = mg
			}
		}()
		if r, ok := n.cached(key); ok {
			return r, nil
		}
		r := plan(a, from, pos, to)
		n.store(key, r)
		logger.Debug("NAV", fmt.Sprintf("Route %d -> %d: found=%v hops=%d cost=%d", from, to, r.Found, r.Hops, r.Cost))
		return r, nil
	})
	var mg *graph.MalformedGraphError
	if errors.As(err, &mg) {
		panic(mg)
	}
	if err != nil {
		return Route{}, err
	}
	return result.(Route), nil
}

func plan(a *atlas.Atlas, from graph.SectorID, pos graph.Vec2, to graph.SectorID) Route {
	r := Route{From: from, To: to, Elements: []Step{}}
	elements, cost, ok := graph.FindRouteWithCost(a.Universe, from, pos, to)
	if !ok {
		return r
	}
	r.Found = true
	r.Cost = cost
	r.Hops = len(elements)
	for i, e := range elements {
		partial, _ := RouteCost(a.Universe, from, pos, elements[:i+1])
		r.Elements = append(r.Elements, Step{PathElement: e, Name: a.Name(e.ExitSector), Cost: partial})
	}
	return r
}

// RouteCost recomputes the total cost of route with the routing cost model.
func RouteCost(view graph.View, from graph.SectorID, pos graph.Vec2, route []graph.PathElement) (graph.Cost, bool) {
	return graph.RouteCost(view, from, pos, route)
}

func (n *Navigator) cached(key routeKey) (Route, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	r, ok := n.routes[key]
	return r, ok
}

func (n *Navigator) store(key routeKey, r Route) {
	if n.maxCache == 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	// A snapshot swap while planning makes the result stale.
	if key.version != n.version {
		return
	}
	if len(n.routes) >= n.maxCache {
		n.routes = make(map[routeKey]Route)
	}
	n.routes[key] = r
}

// Search returns the sectors within maxRange hops of from whose asteroid field
// matches filter, nearest first.
func (n *Navigator) Search(from graph.SectorID, maxRange int, filter FieldFilter) ([]graph.SearchResult, error) {
	a, _, err := n.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := checkSector(a, from); err != nil {
		return nil, err
	}
	results := graph.FindInRange(a.Universe, from, maxRange, a.FieldFor, filter.Predicate())
	if results == nil {
		results = []graph.SearchResult{}
	}
	return results, nil
}

// Stats reports the size of the loaded snapshot and the route cache.
func (n *Navigator) Stats() Stats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	s := Stats{Version: n.version, CachedRoutes: len(n.routes)}
	if n.snapshot != nil {
		s.Loaded = true
		s.Sectors = len(n.snapshot.Sectors)
		s.Gates = n.snapshot.Universe.GateCount()
		s.Fields = len(n.snapshot.Fields)
	}
	return s
}

func checkSector(a *atlas.Atlas, id graph.SectorID) error {
	if _, ok := a.Sectors[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSector, id)
	}
	return nil
}
