package services

import (
	"context"
	"sync"

	"github.com/torchlit/dungeongpt/pkg/chat"
)

// MockNarrator is a mock implementation of Narrator for testing.
type MockNarrator struct {
	InitModelFunc    func(ctx context.Context, modelName string) error
	IsModelReadyFunc func(ctx context.Context, modelName string) (bool, error)
	GenerateTurnFunc func(ctx context.Context, req *chat.TurnRequest) (*chat.TurnResponse, error)

	// Track calls for testing
	InitModelCalls    []string
	IsModelReadyCalls []string
	GenerateTurnCalls []*chat.TurnRequest

	mu sync.Mutex // protects all fields above
}

var _ Narrator = (*MockNarrator)(nil)

// NewMockNarrator creates a new mock narrator.
func NewMockNarrator() *MockNarrator {
	return &MockNarrator{
		InitModelCalls:    make([]string, 0),
		IsModelReadyCalls: make([]string, 0),
		GenerateTurnCalls: make([]*chat.TurnRequest, 0),
	}
}

func (m *MockNarrator) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

func (m *MockNarrator) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IsModelReadyCalls = append(m.IsModelReadyCalls, modelName)
	if m.IsModelReadyFunc != nil {
		return m.IsModelReadyFunc(ctx, modelName)
	}
	return true, nil
}

func (m *MockNarrator) GenerateTurn(ctx context.Context, req *chat.TurnRequest) (*chat.TurnResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTurnCalls = append(m.GenerateTurnCalls, req)
	if m.GenerateTurnFunc != nil {
		return m.GenerateTurnFunc(ctx, req)
	}
	return &chat.TurnResponse{
		Narrative:  "The torchlight flickers against damp stone.",
		Generation: req.Generation,
	}, nil
}

// SetGenerateTurnError sets up the mock to fail GenerateTurn.
func (m *MockNarrator) SetGenerateTurnError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTurnFunc = func(ctx context.Context, req *chat.TurnRequest) (*chat.TurnResponse, error) {
		return nil, err
	}
}

// Reset clears all call tracking.
func (m *MockNarrator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.IsModelReadyCalls = make([]string, 0)
	m.GenerateTurnCalls = make([]*chat.TurnRequest, 0)
}
