package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/torchlit/dungeongpt/internal/config"
	"github.com/torchlit/dungeongpt/internal/logger"
	"github.com/torchlit/dungeongpt/internal/services"
	"github.com/torchlit/dungeongpt/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	store := newStorage(cfg, log)
	if store != nil {
		defer func() {
			_ = store.Close()
		}()
	}

	var narrator services.Narrator
	if cfg.NarratorAPIKey != "" {
		narrator = services.NewOpenAINarrator(cfg.NarratorBaseURL, cfg.NarratorAPIKey, cfg.NarratorModel, log)
	} else {
		log.Warn("NARRATOR_API_KEY not set, running with the offline narrator")
		narrator = services.NewMockNarrator()
	}

	p := tea.NewProgram(NewGameUI(cfg, log, narrator, store),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// newStorage picks the save backend: Redis when configured and
// reachable, the save directory otherwise.
func newStorage(cfg *config.Config, log *slog.Logger) storage.Storage {
	if cfg.RedisURL != "" {
		rs := storage.NewRedisStorage(cfg.RedisURL, log)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err == nil {
			return rs
		}
		log.Warn("Redis unreachable, falling back to file saves", "url", cfg.RedisURL)
	}
	fs, err := storage.NewFileStorage(cfg.SaveDir, log)
	if err != nil {
		log.Error("Failed to set up file storage, saving disabled", "error", err)
		return nil
	}
	return fs
}
