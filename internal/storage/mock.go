package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/torchlit/dungeongpt/pkg/state"
)

// MockStorage is an in-memory Storage for tests. Snapshots are kept as
// serialized bytes so tests exercise the same round-trip as the real
// backends.
type MockStorage struct {
	mu    sync.Mutex
	saves map[uuid.UUID][]byte

	PingErr error
	SaveErr error
	LoadErr error

	SaveCalls   int
	LoadCalls   int
	DeleteCalls int
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{saves: make(map[uuid.UUID][]byte)}
}

func (m *MockStorage) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := json.Marshal(gs)
	if err != nil {
		return err
	}
	m.saves[id] = data
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	data, ok := m.saves[id]
	if !ok {
		return nil, nil
	}
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, err
	}
	if err := gs.Validate(); err != nil {
		return nil, err
	}
	return &gs, nil
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	delete(m.saves, id)
	return nil
}
