package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/torchlit/dungeongpt/pkg/state"
)

// Storage persists game state snapshots keyed by session ID.
//
// A load either returns a snapshot that passed full invariant
// validation or an error; it never yields a half-valid state. Saves
// write the whole aggregate at once.
type Storage interface {
	// Ping tests the backing store connection.
	Ping(ctx context.Context) error

	// Close releases the backing store connection.
	Close() error

	// SaveGameState writes a full snapshot.
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error

	// LoadGameState reads a snapshot back. Returns nil, nil when no
	// snapshot exists for the ID.
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)

	// DeleteGameState removes a snapshot.
	DeleteGameState(ctx context.Context, id uuid.UUID) error
}
