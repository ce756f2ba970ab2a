package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"gatenav/internal/logger"
)

// Config holds application settings (in-memory representation).
// Persisted overrides are handled by internal/db package.
type Config struct {
	Port     int    `json:"port"`
	DBPath   string `json:"db_path"`
	AtlasDir string `json:"atlas_dir"`

	// Navigator tuning.
	RouteCacheSize     int `json:"route_cache_size"`
	DefaultSearchRange int `json:"default_search_range"`
	MaxSearchRange     int `json:"max_search_range"`
	HistoryLimit       int `json:"history_limit"`

	// HTTP surface.
	CORSOrigins    []string `json:"cors_origins"`
	RateLimitRPS   float64  `json:"rate_limit_rps"` // 0 = disabled
	RateLimitBurst int      `json:"rate_limit_burst"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Port:               13380,
		DBPath:             "gatenav.db",
		AtlasDir:           "",
		RouteCacheSize:     4096,
		DefaultSearchRange: 5,
		MaxSearchRange:     25,
		HistoryLimit:       50,
		CORSOrigins:        []string{"*"},
		RateLimitRPS:       20,
		RateLimitBurst:     40,
	}
}

// Load returns Default() overridden by GATENAV_* variables from the environment
// and from an optional .env file in the working directory.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("CONFIG", "Failed to read .env: "+err.Error())
	}
	cfg := Default()
	cfg.ApplyEnv(os.Getenv)
	return cfg
}

// ApplyEnv overrides fields from the GATENAV_* variables returned by getenv.
// Unparseable values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("GATENAV_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := getenv("GATENAV_DB"); v != "" {
		c.DBPath = v
	}
	if v := getenv("GATENAV_ATLAS_DIR"); v != "" {
		c.AtlasDir = v
	}
	if v := getenv("GATENAV_ROUTE_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RouteCacheSize = n
		}
	}
	if v := getenv("GATENAV_DEFAULT_SEARCH_RANGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultSearchRange = n
		}
	}
	if v := getenv("GATENAV_MAX_SEARCH_RANGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxSearchRange = n
		}
	}
	if v := getenv("GATENAV_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HistoryLimit = n
		}
	}
	if v := getenv("GATENAV_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}
	if v := getenv("GATENAV_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimitRPS = f
		}
	}
	if v := getenv("GATENAV_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimitBurst = n
		}
	}
}

// ClampRange applies DefaultSearchRange to a missing range and caps it at MaxSearchRange.
func (c *Config) ClampRange(r int) int {
	if r <= 0 {
		r = c.DefaultSearchRange
	}
	if c.MaxSearchRange > 0 && r > c.MaxSearchRange {
		r = c.MaxSearchRange
	}
	return r
}
