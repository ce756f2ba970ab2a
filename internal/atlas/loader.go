package atlas

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"gatenav/internal/graph"
	"gatenav/internal/logger"
)

type sectorLine struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Q    int    `json:"q"`
	R    int    `json:"r"`
}

type gateEnd struct {
	Sector int32   `json:"sector"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type gateLine struct {
	From gateEnd `json:"from"`
	To   gateEnd `json:"to"`
}

type fieldLine struct {
	Sector    int32  `json:"sector"`
	Ware      string `json:"ware"`
	Ore       int64  `json:"ore"`
	Asteroids int    `json:"asteroids"`
}

// Load reads sectors.jsonl, gates.jsonl and asteroid_fields.jsonl from dir.
// The files are parsed concurrently and then assembled in file order, so gate ids
// are stable across loads of the same files.
func Load(dir string) (*Atlas, error) {
	var (
		sectors []sectorLine
		gates   []gateLine
		fields  []fieldLine
	)

	logger.Info("ATLAS", fmt.Sprintf("Reading %s", dir))
	var g errgroup.Group
	g.Go(func() error {
		return readJSONL(dir, "sectors", func(raw json.RawMessage) error {
			var s sectorLine
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			sectors = append(sectors, s)
			return nil
		})
	})
	g.Go(func() error {
		return readJSONL(dir, "gates", func(raw json.RawMessage) error {
			var gl gateLine
			if err := json.Unmarshal(raw, &gl); err != nil {
				return err
			}
			gates = append(gates, gl)
			return nil
		})
	})
	g.Go(func() error {
		return readJSONL(dir, "asteroid_fields", func(raw json.RawMessage) error {
			var f fieldLine
			if err := json.Unmarshal(raw, &f); err != nil {
				return err
			}
			fields = append(fields, f)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("read atlas: %w", err)
	}

	a := New()
	for _, s := range sectors {
		if s.ID == 0 {
			continue
		}
		a.AddSector(graph.SectorID(s.ID), s.Name, s.Q, s.R)
	}
	for _, gl := range gates {
		_, err := a.Connect(
			graph.SectorID(gl.From.Sector), graph.Vec2{X: gl.From.X, Y: gl.From.Y},
			graph.SectorID(gl.To.Sector), graph.Vec2{X: gl.To.X, Y: gl.To.Y},
		)
		if err != nil {
			logger.Warn("ATLAS", fmt.Sprintf("Skipping gate %d -> %d: %v", gl.From.Sector, gl.To.Sector, err))
		}
	}
	for _, f := range fields {
		err := a.SetField(AsteroidField{
			Sector:    graph.SectorID(f.Sector),
			Ware:      f.Ware,
			Ore:       f.Ore,
			Asteroids: f.Asteroids,
		})
		if err != nil {
			logger.Warn("ATLAS", fmt.Sprintf("Skipping asteroid field: %v", err))
		}
	}

	logger.Section("Atlas Statistics")
	logger.Stats("Sectors", len(a.Sectors))
	logger.Stats("Gates", a.Universe.GateCount())
	logger.Stats("Asteroid fields", len(a.Fields))
	return a, nil
}

// readJSONL finds and reads a .jsonl file by base name below dir.
// Malformed lines are skipped; a missing file is reported and treated as empty.
func readJSONL(dir, baseName string, fn func(json.RawMessage) error) error {
	var filePath string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		name := strings.TrimSuffix(info.Name(), ".jsonl")
		if !info.IsDir() && strings.EqualFold(name, baseName) {
			filePath = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && err != filepath.SkipAll {
		return err
	}
	if filePath == "" {
		logger.Warn("ATLAS", fmt.Sprintf("File %s.jsonl not found, skipping", baseName))
		return nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(json.RawMessage(line)); err != nil {
			continue // skip malformed lines
		}
	}
	return scanner.Err()
}
