//go:build !production

package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/tarneeb41/internal/storage"
)

// MockStore 实现 storage.Store 的 testify mock
type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadGame(ctx context.Context, gameID string) (*storage.GameSnapshot, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.GameSnapshot), args.Error(1)
}

func (m *MockStore) SaveGame(ctx context.Context, snapshot *storage.GameSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockStore) DeleteGame(ctx context.Context, gameID string) error {
	args := m.Called(ctx, gameID)
	return args.Error(0)
}

func (m *MockStore) AppendFinishedGame(ctx context.Context, summary *storage.FinishedGame) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockStore) LoadActiveSnapshots(ctx context.Context) ([]*storage.GameSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.GameSnapshot), args.Error(1)
}

// MemoryStore 简单的内存 Store，不使用 testify（用于不需要断言的测试）
type MemoryStore struct {
	mu       sync.Mutex
	Games    map[string]*storage.GameSnapshot
	Finished []*storage.FinishedGame
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Games: make(map[string]*storage.GameSnapshot)}
}

func (m *MemoryStore) LoadGame(_ context.Context, gameID string) (*storage.GameSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Games[gameID], nil
}

func (m *MemoryStore) SaveGame(_ context.Context, snapshot *storage.GameSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Games[snapshot.ID] = snapshot
	return nil
}

func (m *MemoryStore) DeleteGame(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Games, gameID)
	return nil
}

func (m *MemoryStore) AppendFinishedGame(_ context.Context, summary *storage.FinishedGame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Finished = append(m.Finished, summary)
	return nil
}

func (m *MemoryStore) LoadActiveSnapshots(_ context.Context) ([]*storage.GameSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := make([]*storage.GameSnapshot, 0, len(m.Games))
	for _, snap := range m.Games {
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
