package services

import (
	"context"

	"github.com/torchlit/dungeongpt/pkg/chat"
)

// Narrator defines the interface for the language model that narrates
// turns. Implementations return a TurnResponse whose Delta is treated
// as an untrusted proposal; the merge layer decides what actually
// applies.
type Narrator interface {
	// InitModel prepares the model on startup.
	InitModel(ctx context.Context, modelName string) error

	// IsModelReady checks if the model is ready for use.
	IsModelReady(ctx context.Context, modelName string) (bool, error)

	// GenerateTurn narrates one turn from the request's snapshot,
	// command and recent history.
	GenerateTurn(ctx context.Context, req *chat.TurnRequest) (*chat.TurnResponse, error)
}
