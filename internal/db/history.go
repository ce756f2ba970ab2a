package db

import (
	"time"
)

// SearchRecord represents one logged route or region search.
type SearchRecord struct {
	ID          int64  `json:"id"`
	Timestamp   string `json:"timestamp"`
	Kind        string `json:"kind"` // "route" | "region"
	FromSector  int32  `json:"from_sector"`
	ToSector    int32  `json:"to_sector,omitempty"`
	ResultCount int    `json:"result_count"`
	Cost        uint64 `json:"cost"`
	DurationMs  int64  `json:"duration_ms"`
}

// InsertSearch logs a search and returns its ID (0 on failure).
func (d *DB) InsertSearch(r SearchRecord) int64 {
	if r.Timestamp == "" {
		r.Timestamp = time.Now().Format(time.RFC3339)
	}
	result, err := d.sql.Exec(
		`INSERT INTO search_history (timestamp, kind, from_sector, to_sector, result_count, cost, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp, r.Kind, r.FromSector, r.ToSector, r.ResultCount, int64(r.Cost), r.DurationMs,
	)
	if err != nil {
		return 0
	}
	id, _ := result.LastInsertId()
	return id
}

// GetHistory returns the last N searches (newest first).
func (d *DB) GetHistory(limit int) []SearchRecord {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		`SELECT id, timestamp, kind, from_sector, to_sector, result_count, cost, duration_ms
		 FROM search_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return []SearchRecord{}
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var r SearchRecord
		var cost int64
		rows.Scan(&r.ID, &r.Timestamp, &r.Kind, &r.FromSector, &r.ToSector, &r.ResultCount, &cost, &r.DurationMs)
		r.Cost = uint64(cost)
		records = append(records, r)
	}
	if records == nil {
		return []SearchRecord{}
	}
	return records
}

// ClearHistory deletes all logged searches.
func (d *DB) ClearHistory() error {
	_, err := d.sql.Exec("DELETE FROM search_history")
	return err
}
