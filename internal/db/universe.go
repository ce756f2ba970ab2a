package db

import (
	"database/sql"
	"fmt"

	"gatenav/internal/atlas"
	"gatenav/internal/graph"
	"gatenav/internal/logger"
)

// HasAtlas reports whether a universe snapshot has been stored.
func (d *DB) HasAtlas() bool {
	var n int
	d.sql.QueryRow("SELECT COUNT(*) FROM sectors").Scan(&n)
	return n > 0
}

// SaveAtlas replaces the stored universe snapshot with a in one transaction.
// Edge order per sector is kept so a reload routes identically.
func (d *DB) SaveAtlas(a *atlas.Atlas) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	if err := saveAtlasTx(tx, a); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Success("DB", fmt.Sprintf("Stored atlas: %d sectors, %d gates, %d fields",
		len(a.Sectors), a.Universe.GateCount(), len(a.Fields)))
	return nil
}

func saveAtlasTx(tx *sql.Tx, a *atlas.Atlas) error {
	for _, table := range []string{"asteroid_fields", "gates", "sectors"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	sectorStmt, err := tx.Prepare("INSERT INTO sectors (id, name, q, r, x, y) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer sectorStmt.Close()
	ids := a.Universe.SectorIDs()
	for _, id := range ids {
		s, ok := a.Sectors[id]
		if !ok {
			info, _ := a.Universe.Sector(id)
			s = &atlas.Sector{ID: id, WorldPos: info.WorldPos}
		}
		if _, err := sectorStmt.Exec(int32(id), s.Name, s.Q, s.R, s.WorldPos.X, s.WorldPos.Y); err != nil {
			return fmt.Errorf("insert sector %d: %w", id, err)
		}
	}

	gateStmt, err := tx.Prepare(`INSERT INTO gates (id, sector_id, x, y, dest_sector_id, dest_gate_id, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer gateStmt.Close()
	for _, id := range ids {
		for seq, e := range a.Universe.Adj[id] {
			pos := a.Universe.GatePos[e.Gates.From]
			if _, err := gateStmt.Exec(int32(e.Gates.From), int32(id), pos.X, pos.Y, int32(e.To), int32(e.Gates.To), seq); err != nil {
				return fmt.Errorf("insert gate %d: %w", e.Gates.From, err)
			}
		}
	}

	fieldStmt, err := tx.Prepare("INSERT INTO asteroid_fields (sector_id, ware, ore, asteroids) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer fieldStmt.Close()
	for _, id := range ids {
		f, ok := a.Fields[id]
		if !ok {
			continue
		}
		if _, err := fieldStmt.Exec(int32(id), f.Ware, f.Ore, f.Asteroids); err != nil {
			return fmt.Errorf("insert field %d: %w", id, err)
		}
	}
	return nil
}

// LoadAtlas rebuilds the stored universe snapshot. The result is validated, so a
// corrupted store is reported here instead of panicking inside a search.
func (d *DB) LoadAtlas() (*atlas.Atlas, error) {
	a := atlas.New()

	rows, err := d.sql.Query("SELECT id, name, q, r, x, y FROM sectors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query sectors: %w", err)
	}
	for rows.Next() {
		var id int32
		var name string
		var q, r int
		var pos graph.Vec2
		if err := rows.Scan(&id, &name, &q, &r, &pos.X, &pos.Y); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sector: %w", err)
		}
		a.AddSectorAt(graph.SectorID(id), name, q, r, pos)
	}
	rows.Close()

	rows, err = d.sql.Query("SELECT id, sector_id, x, y, dest_sector_id, dest_gate_id FROM gates ORDER BY sector_id, seq")
	if err != nil {
		return nil, fmt.Errorf("query gates: %w", err)
	}
	for rows.Next() {
		var gate, sector, destSector, destGate int32
		var pos graph.Vec2
		if err := rows.Scan(&gate, &sector, &pos.X, &pos.Y, &destSector, &destGate); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan gate: %w", err)
		}
		a.Universe.AddGate(graph.SectorID(sector), graph.GateID(gate), pos, graph.SectorID(destSector), graph.GateID(destGate))
	}
	rows.Close()

	rows, err = d.sql.Query("SELECT sector_id, ware, ore, asteroids FROM asteroid_fields ORDER BY sector_id")
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f atlas.AsteroidField
		var sector int32
		if err := rows.Scan(&sector, &f.Ware, &f.Ore, &f.Asteroids); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		f.Sector = graph.SectorID(sector)
		if err := a.SetField(f); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := a.Universe.Validate(); err != nil {
		return nil, fmt.Errorf("stored atlas is inconsistent: %w", err)
	}
	return a, nil
}
