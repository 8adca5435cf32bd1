package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/torchlit/dungeongpt/pkg/state"
)

func setupFileStorage(t *testing.T) *FileStorage {
	t.Helper()
	fs, err := NewFileStorage(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	return fs
}

func TestFileStorage_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "saves")
	fs, err := NewFileStorage(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	if err := fs.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed on fresh directory: %v", err)
	}
}

func TestFileStorage_SaveLoadRoundTrip(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	gs := testGameState(t)
	gs.Hero.AddItem("torch")
	gs.AdvanceTurn()
	gs.RecordTurn("look around", "Stone and shadow.")

	if err := fs.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("SaveGameState failed: %v", err)
	}

	loaded, err := fs.LoadGameState(ctx, gs.ID)
	if err != nil {
		t.Fatalf("LoadGameState failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("loaded state is nil")
	}
	if loaded.Seed != gs.Seed || loaded.Position != gs.Position || loaded.Turn != gs.Turn {
		t.Errorf("round trip changed fields: %+v", loaded)
	}
	if !loaded.Hero.HasItem("torch") {
		t.Error("hero inventory lost")
	}
	if loaded.History.Len() != 1 {
		t.Error("history lost")
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("loaded state invalid: %v", err)
	}
}

func TestFileStorage_SaveOverwrites(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()
	gs := testGameState(t)

	if err := fs.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	gs.AdvanceTurn()
	gs.AdvanceTurn()
	if err := fs.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := fs.LoadGameState(ctx, gs.ID)
	if err != nil {
		t.Fatalf("LoadGameState failed: %v", err)
	}
	if loaded.Turn != 2 {
		t.Errorf("loaded turn %d, want 2", loaded.Turn)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("save directory has %d entries, want 1", len(entries))
	}
}

func TestFileStorage_LoadMissing(t *testing.T) {
	fs := setupFileStorage(t)
	gs, err := fs.LoadGameState(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if gs != nil {
		t.Error("missing file returned a state")
	}
}

func TestFileStorage_LoadCorrupt(t *testing.T) {
	fs := setupFileStorage(t)
	id := uuid.New()
	if err := os.WriteFile(fs.path(id), []byte("{torn write"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := fs.LoadGameState(context.Background(), id)
	if !errors.Is(err, state.ErrCorruptSave) {
		t.Errorf("corrupt file: got %v, want ErrCorruptSave", err)
	}
}

func TestFileStorage_Delete(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()
	gs := testGameState(t)

	if err := fs.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("SaveGameState failed: %v", err)
	}
	if err := fs.DeleteGameState(ctx, gs.ID); err != nil {
		t.Fatalf("DeleteGameState failed: %v", err)
	}
	if loaded, err := fs.LoadGameState(ctx, gs.ID); err != nil || loaded != nil {
		t.Errorf("state survived delete: %v %v", loaded, err)
	}

	if err := fs.DeleteGameState(ctx, uuid.New()); err != nil {
		t.Errorf("delete of missing file failed: %v", err)
	}
}
