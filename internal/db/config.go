package db

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gatenav/internal/config"
)

// LoadConfig reads persisted overrides on top of base. Missing keys keep base values.
func (d *DB) LoadConfig(base *config.Config) *config.Config {
	cfg := *base

	rows, err := d.sql.Query("SELECT key, value FROM config")
	if err != nil {
		return &cfg
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		rows.Scan(&k, &v)
		m[k] = v
	}

	if v, ok := m["route_cache_size"]; ok {
		cfg.RouteCacheSize, _ = strconv.Atoi(v)
	}
	if v, ok := m["default_search_range"]; ok {
		cfg.DefaultSearchRange, _ = strconv.Atoi(v)
	}
	if v, ok := m["max_search_range"]; ok {
		cfg.MaxSearchRange, _ = strconv.Atoi(v)
	}
	if v, ok := m["history_limit"]; ok {
		cfg.HistoryLimit, _ = strconv.Atoi(v)
	}
	if v, ok := m["cors_origins"]; ok {
		var origins []string
		if err := json.Unmarshal([]byte(v), &origins); err == nil {
			cfg.CORSOrigins = origins
		}
	}
	if v, ok := m["rate_limit_rps"]; ok {
		cfg.RateLimitRPS, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["rate_limit_burst"]; ok {
		cfg.RateLimitBurst, _ = strconv.Atoi(v)
	}

	return &cfg
}

// SaveConfig writes the runtime-tunable fields (upsert all).
// Port, DBPath and AtlasDir are process settings and are not persisted.
func (d *DB) SaveConfig(cfg *config.Config) error {
	corsJSON := "[]"
	if b, err := json.Marshal(cfg.CORSOrigins); err == nil {
		corsJSON = string(b)
	}

	pairs := map[string]string{
		"route_cache_size":     strconv.Itoa(cfg.RouteCacheSize),
		"default_search_range": strconv.Itoa(cfg.DefaultSearchRange),
		"max_search_range":     strconv.Itoa(cfg.MaxSearchRange),
		"history_limit":        strconv.Itoa(cfg.HistoryLimit),
		"cors_origins":         corsJSON,
		"rate_limit_rps":       fmt.Sprintf("%g", cfg.RateLimitRPS),
		"rate_limit_burst":     strconv.Itoa(cfg.RateLimitBurst),
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for k, v := range pairs {
		if _, err := stmt.Exec(k, v); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
