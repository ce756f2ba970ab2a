package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"gatenav/internal/api"
	"gatenav/internal/atlas"
	"gatenav/internal/config"
	"gatenav/internal/db"
	"gatenav/internal/logger"
	"gatenav/internal/nav"
)

var version = "dev"

func main() {
	base := config.Load()
	port := flag.Int("port", base.Port, "HTTP server port")
	dbPath := flag.String("db", base.DBPath, "SQLite database path")
	atlasDir := flag.String("atlas", base.AtlasDir, "directory with sectors/gates/asteroid_fields .jsonl files to import")
	flag.Parse()

	logger.Banner(version)

	database, err := db.Open(*dbPath)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	cfg := database.LoadConfig(base)
	cfg.Port = *port
	cfg.DBPath = *dbPath
	cfg.AtlasDir = *atlasDir

	if cfg.AtlasDir != "" {
		a, err := atlas.Load(cfg.AtlasDir)
		if err != nil {
			logger.Error("ATLAS", fmt.Sprintf("Import failed: %v", err))
			os.Exit(1)
		}
		if err := a.Universe.Validate(); err != nil {
			logger.Error("ATLAS", fmt.Sprintf("Import rejected: %v", err))
			os.Exit(1)
		}
		if err := database.SaveAtlas(a); err != nil {
			logger.Error("DB", fmt.Sprintf("Failed to store atlas: %v", err))
			os.Exit(1)
		}
	}

	navigator := nav.New(cfg.RouteCacheSize)
	if database.HasAtlas() {
		a, err := database.LoadAtlas()
		if err != nil {
			logger.Error("DB", fmt.Sprintf("Failed to load atlas: %v", err))
			os.Exit(1)
		}
		navigator.Load(a)
	} else {
		logger.Warn("NAV", "No atlas stored yet, start with -atlas <dir> to import one")
	}

	srv := api.NewServer(cfg, database, navigator)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
