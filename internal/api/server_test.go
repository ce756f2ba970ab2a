package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"gatenav/internal/atlas"
	"gatenav/internal/config"
	"gatenav/internal/db"
	"gatenav/internal/graph"
	"gatenav/internal/nav"
)

func testAtlas(t *testing.T) *atlas.Atlas {
	t.Helper()
	a := atlas.New()
	a.AddSector(1, "Argon Prime", 0, 0)
	a.AddSector(2, "Black Hole Sun", 1, 0)
	a.AddSector(3, "Cardinal's Domain", 2, 0)
	a.AddSector(4, "Void", 6, 6)
	if _, err := a.Connect(1, graph.Vec2{X: 100}, 2, graph.Vec2{X: -100}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Connect(2, graph.Vec2{X: 100}, 3, graph.Vec2{X: -100}); err != nil {
		t.Fatal(err)
	}
	if err := a.SetField(atlas.AsteroidField{Sector: 3, Ware: "ore", Ore: 4000, Asteroids: 20}); err != nil {
		t.Fatal(err)
	}
	return a
}

// newTestServer returns a server with a loaded snapshot and a temporary database.
func newTestServer(t *testing.T) (*Server, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.Default()
	cfg.RateLimitRPS = 0
	n := nav.New(cfg.RouteCacheSize)
	n.Load(testAtlas(t))
	return NewServer(cfg, database, n), database
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out nav.Stats
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Loaded || out.Sectors != 4 || out.Gates != 4 || out.Fields != 1 {
		t.Errorf("stats = %+v", out)
	}
}

func TestHandleRouteFind_ByNameAndID(t *testing.T) {
	srv, database := newTestServer(t)
	h := srv.Handler()

	for _, body := range []string{
		`{"from":"argon prime","x":0,"y":0,"to":"Cardinal's Domain"}`,
		`{"from":1,"to":"3"}`,
	} {
		rec := do(t, h, http.MethodPost, "/api/route/find", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body %s", body, rec.Code, rec.Body.String())
		}
		var out nav.Route
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !out.Found || out.Hops != 2 || len(out.Elements) != 2 {
			t.Fatalf("route = %+v", out)
		}
		if out.Elements[0].Name != "Black Hole Sun" || out.Elements[1].ExitSector != 3 {
			t.Errorf("elements = %+v", out.Elements)
		}
	}

	history := database.GetHistory(10)
	if len(history) != 2 || history[0].Kind != "route" || history[0].ToSector != 3 {
		t.Errorf("history = %+v", history)
	}
}

func TestHandleRouteFind_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/route/find", `{"from":1,"to":"Void"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out nav.Route
	json.NewDecoder(rec.Body).Decode(&out)
	if out.Found || len(out.Elements) != 0 {
		t.Errorf("route = %+v, want not found", out)
	}
}

func TestHandleRouteFind_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"from":`},
		{"missing to", `{"from":1}`},
		{"unknown name", `{"from":"Nowhere","to":1}`},
		{"unknown id", `{"from":1,"to":999}`},
		{"wrong type", `{"from":true,"to":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/route/find", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandlers_NoSnapshot(t *testing.T) {
	srv := NewServer(config.Default(), nil, nav.New(0))
	h := srv.Handler()

	if rec := do(t, h, http.MethodPost, "/api/route/find", `{"from":1,"to":2}`); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("route status = %d, want 503", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/sectors/search", `{"from":1}`); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("search status = %d, want 503", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/history", ""); rec.Code != http.StatusOK {
		t.Errorf("history status = %d, want 200", rec.Code)
	}
}

func TestHandleSectorSearch(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/sectors/search", `{"from":"Argon Prime","max_range":3,"ware":"ore","min_ore":1000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		MaxRange int `json:"max_range"`
		Count    int `json:"count"`
		Results  []struct {
			Distance int    `json:"distance"`
			Sector   int32  `json:"sector"`
			Name     string `json:"name"`
			Ore      int64  `json:"ore"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || out.Results[0].Sector != 3 || out.Results[0].Distance != 2 || out.Results[0].Ore != 4000 {
		t.Errorf("search = %+v", out)
	}

	// Range 1 cannot reach the field two jumps away.
	rec = do(t, h, http.MethodPost, "/api/sectors/search", `{"from":1,"max_range":1}`)
	json.NewDecoder(rec.Body).Decode(&out)
	if out.Count != 0 || len(out.Results) != 0 {
		t.Errorf("range 1 search = %+v", out)
	}
}

func TestHandleSectorSearch_RangeIsClamped(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/sectors/search", `{"from":1,"max_range":10000}`)
	var out struct {
		MaxRange int `json:"max_range"`
	}
	json.NewDecoder(rec.Body).Decode(&out)
	if out.MaxRange != config.Default().MaxSearchRange {
		t.Errorf("max_range = %d, want %d", out.MaxRange, config.Default().MaxSearchRange)
	}
}

func TestHandleSetConfig_PersistsAndClamps(t *testing.T) {
	srv, database := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/config", `{"max_search_range":8,"default_search_range":50,"history_limit":-3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out config.Config
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.MaxSearchRange != 8 || out.DefaultSearchRange != 8 || out.HistoryLimit != 1 {
		t.Errorf("config = %+v", out)
	}

	stored := database.LoadConfig(config.Default())
	if stored.MaxSearchRange != 8 {
		t.Errorf("stored MaxSearchRange = %d, want 8", stored.MaxSearchRange)
	}

	if rec := do(t, h, http.MethodPost, "/api/config", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid json status = %d, want 400", rec.Code)
	}
}

func TestHandleHistory_LimitAndClear(t *testing.T) {
	srv, database := newTestServer(t)
	h := srv.Handler()
	for i := 0; i < 3; i++ {
		database.InsertSearch(db.SearchRecord{Kind: "region", FromSector: 1})
	}

	rec := do(t, h, http.MethodGet, "/api/history?limit=2", "")
	var records []db.SearchRecord
	json.NewDecoder(rec.Body).Decode(&records)
	if len(records) != 2 {
		t.Errorf("history len = %d, want 2", len(records))
	}

	do(t, h, http.MethodPost, "/api/history/clear", "")
	rec = do(t, h, http.MethodGet, "/api/history", "")
	records = nil
	json.NewDecoder(rec.Body).Decode(&records)
	if len(records) != 0 {
		t.Errorf("history after clear = %+v", records)
	}
}

func TestHandleAutocomplete(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/sectors/autocomplete?q=a", "")
	var out map[string][]string
	json.NewDecoder(rec.Body).Decode(&out)

	// Prefix matches first, then substring matches.
	want := []string{"Argon Prime", "Black Hole Sun", "Cardinal's Domain"}
	got := out["sectors"]
	if len(got) != len(want) {
		t.Fatalf("autocomplete = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("autocomplete[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecoverMiddleware_MalformedAtlas(t *testing.T) {
	a := testAtlas(t)
	// A one-way edge into a sector the snapshot does not know.
	a.Universe.Adj[4] = append(a.Universe.Adj[4], graph.Edge{To: 77, Gates: graph.GatePair{From: 900, To: 901}})
	a.Universe.GatePos[900] = graph.Vec2{}
	a.Universe.GatePos[901] = graph.Vec2{}

	cfg := config.Default()
	cfg.RateLimitRPS = 0
	n := nav.New(0)
	n.Load(a)
	srv := NewServer(cfg, nil, n)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/route/find", `{"from":"Void","to":1}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "malformed atlas") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(1, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != 204 || codes[1] != 204 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [204 204 429]", codes)
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "10.0.0.2:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 204 {
		t.Errorf("second client code = %d, want 204", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/route/find", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
