// Command apiserver serves the simulation service over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/talgya/tribesim/internal/api"
	"github.com/talgya/tribesim/internal/persistence"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := api.LoadConfig()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.AdminKey == "" {
		slog.Warn("TRIBESIM_ADMIN_KEY not set — simulate endpoint is public")
	}

	var db *persistence.DB
	if cfg.DBPath != "" {
		db, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err, "path", cfg.DBPath)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.DBPath)
	} else {
		slog.Warn("TRIBESIM_DB empty — batches will not be stored")
	}

	server := &api.Server{Cfg: cfg, DB: db}
	server.Start()

	fmt.Printf("API: http://localhost:%d/api/v1/presets\n", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}
