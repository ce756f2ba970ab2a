package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gatenav/internal/atlas"
	"gatenav/internal/config"
	"gatenav/internal/db"
	"gatenav/internal/graph"
	"gatenav/internal/logger"
	"gatenav/internal/nav"
)

// Server is the HTTP API server that connects the navigator and the database.
type Server struct {
	cfg *config.Config
	db  *db.DB
	nav *nav.Navigator
	mu  sync.RWMutex // guards cfg
}

// NewServer creates a Server. database may be nil, in which case nothing is persisted.
func NewServer(cfg *config.Config, database *db.DB, navigator *nav.Navigator) *Server {
	return &Server{
		cfg: cfg,
		db:  database,
		nav: navigator,
	}
}

// Handler returns the HTTP handler with all API routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("GET /api/sectors/autocomplete", s.handleAutocomplete)
	mux.HandleFunc("POST /api/route/find", s.handleRouteFind)
	mux.HandleFunc("POST /api/sectors/search", s.handleSectorSearch)
	mux.HandleFunc("GET /api/history", s.handleGetHistory)
	mux.HandleFunc("POST /api/history/clear", s.handleClearHistory)

	s.mu.RLock()
	cors := newCORS(s.cfg.CORSOrigins)
	limiter := newRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst)
	s.mu.RUnlock()

	return cors.Handler(limiter.Middleware(recoverMiddleware(mux)))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// sectorRef is a sector given either as a JSON number (id) or a string (name or id).
type sectorRef string

func (r *sectorRef) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*r = sectorRef(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("sector must be a name or an id")
	}
	*r = sectorRef(s)
	return nil
}

// --- Handlers ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.nav.Stats())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, s.cfg)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := patch["route_cache_size"]; ok {
		json.Unmarshal(v, &s.cfg.RouteCacheSize)
	}
	if v, ok := patch["default_search_range"]; ok {
		json.Unmarshal(v, &s.cfg.DefaultSearchRange)
	}
	if v, ok := patch["max_search_range"]; ok {
		json.Unmarshal(v, &s.cfg.MaxSearchRange)
	}
	if v, ok := patch["history_limit"]; ok {
		json.Unmarshal(v, &s.cfg.HistoryLimit)
	}

	// Validate bounds
	if s.cfg.RouteCacheSize < 0 {
		s.cfg.RouteCacheSize = 0
	}
	if s.cfg.MaxSearchRange < 1 {
		s.cfg.MaxSearchRange = 1
	} else if s.cfg.MaxSearchRange > 100 {
		s.cfg.MaxSearchRange = 100
	}
	if s.cfg.DefaultSearchRange < 1 {
		s.cfg.DefaultSearchRange = 1
	} else if s.cfg.DefaultSearchRange > s.cfg.MaxSearchRange {
		s.cfg.DefaultSearchRange = s.cfg.MaxSearchRange
	}
	if s.cfg.HistoryLimit < 1 {
		s.cfg.HistoryLimit = 1
	} else if s.cfg.HistoryLimit > 1000 {
		s.cfg.HistoryLimit = 1000
	}

	if s.db != nil {
		if err := s.db.SaveConfig(s.cfg); err != nil {
			logger.Warn("API", fmt.Sprintf("Failed to save config: %v", err))
		}
	}
	writeJSON(w, s.cfg)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	a, _, err := s.nav.Snapshot()
	if q == "" || err != nil {
		writeJSON(w, map[string][]string{"sectors": {}})
		return
	}

	var prefix, contains []string
	for _, name := range a.SectorNames() {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, q) {
			prefix = append(prefix, name)
		} else if strings.Contains(lower, q) {
			contains = append(contains, name)
		}
	}
	results := append(prefix, contains...)
	if len(results) > 15 {
		results = results[:15]
	}
	if results == nil {
		results = []string{}
	}
	writeJSON(w, map[string][]string{"sectors": results})
}

func (s *Server) resolve(ref sectorRef) (graph.SectorID, error) {
	a, _, err := s.nav.Snapshot()
	if err != nil {
		return 0, err
	}
	return a.Resolve(string(ref))
}

// queryError maps navigator and lookup errors onto HTTP responses.
func queryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, nav.ErrNoSnapshot):
		writeError(w, 503, "atlas not loaded yet")
	case errors.Is(err, nav.ErrUnknownSector), errors.Is(err, atlas.ErrUnknownSector):
		writeError(w, 400, err.Error())
	default:
		writeError(w, 500, err.Error())
	}
}

func (s *Server) handleRouteFind(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From sectorRef `json:"from"`
		X    float64   `json:"x"`
		Y    float64   `json:"y"`
		To   sectorRef `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	if req.From == "" || req.To == "" {
		writeError(w, 400, "from and to are required")
		return
	}

	from, err := s.resolve(req.From)
	if err != nil {
		queryError(w, err)
		return
	}
	to, err := s.resolve(req.To)
	if err != nil {
		queryError(w, err)
		return
	}

	startTime := time.Now()
	route, err := s.nav.Route(from, graph.Vec2{X: req.X, Y: req.Y}, to)
	if err != nil {
		queryError(w, err)
		return
	}
	durationMs := time.Since(startTime).Milliseconds()
	logger.Info("API", fmt.Sprintf("RouteFind %d -> %d: found=%v hops=%d in %dms", from, to, route.Found, route.Hops, durationMs))

	if s.db != nil {
		s.db.InsertSearch(db.SearchRecord{
			Kind:        "route",
			FromSector:  int32(from),
			ToSector:    int32(to),
			ResultCount: route.Hops,
			Cost:        uint64(route.Cost),
			DurationMs:  durationMs,
		})
	}
	writeJSON(w, route)
}

func (s *Server) handleSectorSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From     sectorRef `json:"from"`
		MaxRange int       `json:"max_range"`
		nav.FieldFilter
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	if req.From == "" {
		writeError(w, 400, "from is required")
		return
	}
	from, err := s.resolve(req.From)
	if err != nil {
		queryError(w, err)
		return
	}

	s.mu.RLock()
	maxRange := s.cfg.ClampRange(req.MaxRange)
	s.mu.RUnlock()

	startTime := time.Now()
	results, err := s.nav.Search(from, maxRange, req.FieldFilter)
	if err != nil {
		queryError(w, err)
		return
	}
	durationMs := time.Since(startTime).Milliseconds()

	type match struct {
		graph.SearchResult
		Name      string `json:"name"`
		Ware      string `json:"ware"`
		Ore       int64  `json:"ore"`
		Asteroids int    `json:"asteroids"`
	}
	a, _, _ := s.nav.Snapshot()
	out := make([]match, 0, len(results))
	for _, res := range results {
		f, _ := a.FieldFor(res.Sector)
		out = append(out, match{SearchResult: res, Name: a.Name(res.Sector), Ware: f.Ware, Ore: f.Ore, Asteroids: f.Asteroids})
	}

	logger.Info("API", fmt.Sprintf("SectorSearch from %d range %d: %d matches in %dms", from, maxRange, len(out), durationMs))
	if s.db != nil {
		s.db.InsertSearch(db.SearchRecord{
			Kind:        "region",
			FromSector:  int32(from),
			ResultCount: len(out),
			DurationMs:  durationMs,
		})
	}
	writeJSON(w, map[string]interface{}{"from": from, "max_range": maxRange, "results": out, "count": len(out)})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, []db.SearchRecord{})
		return
	}
	s.mu.RLock()
	limit := s.cfg.HistoryLimit
	s.mu.RUnlock()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	writeJSON(w, s.db.GetHistory(limit))
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.ClearHistory(); err != nil {
			writeError(w, 500, err.Error())
			return
		}
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
