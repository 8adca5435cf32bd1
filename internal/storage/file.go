package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/torchlit/dungeongpt/pkg/state"
)

// FileStorage keeps one JSON save file per session under a save
// directory. This is the player-facing /save and /load backend: the
// serialized snapshot (seed, grid with room states, hero, position,
// turn, history) reads back into an identical canonical state.
type FileStorage struct {
	dir    string
	logger *slog.Logger
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage creates a file storage rooted at dir, creating the
// directory if needed.
func NewFileStorage(dir string, logger *slog.Logger) (*FileStorage, error) {
	if dir == "" {
		dir = "./saves"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStorage{dir: dir, logger: logger}, nil
}

func (f *FileStorage) path(id uuid.UUID) string {
	return filepath.Join(f.dir, id.String()+".json")
}

func (f *FileStorage) Ping(ctx context.Context) error {
	if _, err := os.Stat(f.dir); err != nil {
		return fmt.Errorf("save directory unavailable: %w", err)
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

// SaveGameState writes the snapshot atomically: to a temp file first,
// then rename, so a crash mid-write never leaves a torn save.
func (f *FileStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, id.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp save file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write save file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close save file: %w", err)
	}
	if err := os.Rename(tmpName, f.path(id)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to finalize save file: %w", err)
	}
	return nil
}

// LoadGameState reads a snapshot back and validates every invariant
// before returning it. A corrupt file yields an error and the caller's
// current state stands.
func (f *FileStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		f.logger.Error("Save file is not valid JSON", "uuid", id, "error", err)
		return nil, fmt.Errorf("%w: %v", state.ErrCorruptSave, err)
	}
	if err := gs.Validate(); err != nil {
		f.logger.Error("Save file failed validation", "uuid", id, "error", err)
		return nil, err
	}
	return &gs, nil
}

func (f *FileStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	if err := os.Remove(f.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete save file: %w", err)
	}
	return nil
}
