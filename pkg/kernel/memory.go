package kernel

import (
	"context"
	"sync"
	"time"
)

// MemoryEntry is one immutable item in an agent's working-memory log
type MemoryEntry struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryStore is one agent's append-only memory sequence
type EntryStore interface {
	// Append adds an entry to the end of the sequence
	Append(ctx context.Context, entry MemoryEntry) error

	// Recent returns the most recent limit entries in order, or the whole
	// sequence when limit <= 0
	Recent(ctx context.Context, limit int) ([]MemoryEntry, error)

	// Snapshot returns the full ordered sequence
	Snapshot(ctx context.Context) ([]MemoryEntry, error)
}

// StoreFactory builds the backing store for an agent's memory sequence
type StoreFactory func(agentID string) (EntryStore, error)

// MemoryManager owns per-agent working-memory logs, creating each agent's
// store lazily on first access
type MemoryManager struct {
	factory StoreFactory
	stores  map[string]EntryStore
	mu      sync.Mutex
}

// NewMemoryManager creates a memory manager. A nil factory defaults to
// unbounded in-process stores.
func NewMemoryManager(factory StoreFactory) *MemoryManager {
	if factory == nil {
		factory = func(string) (EntryStore, error) { return newInMemoryStore(), nil }
	}
	return &MemoryManager{
		factory: factory,
		stores:  make(map[string]EntryStore),
	}
}

// Remember appends text to agent's memory log
func (m *MemoryManager) Remember(ctx context.Context, agentID, text string) error {
	store, err := m.store(agentID)
	if err != nil {
		return err
	}
	return store.Append(ctx, MemoryEntry{Text: text, CreatedAt: time.Now()})
}

// Recall returns the most recent limit entries for agent, or all entries
// oldest-first when limit <= 0. Agents that never remembered anything yield
// an empty sequence.
func (m *MemoryManager) Recall(ctx context.Context, agentID string, limit int) ([]MemoryEntry, error) {
	store, err := m.store(agentID)
	if err != nil {
		return nil, err
	}
	return store.Recent(ctx, limit)
}

// Snapshot returns agent's full ordered memory sequence for persistence or
// debugging. Agents that never remembered anything yield an empty sequence.
func (m *MemoryManager) Snapshot(ctx context.Context, agentID string) ([]MemoryEntry, error) {
	store, err := m.store(agentID)
	if err != nil {
		return nil, err
	}
	return store.Snapshot(ctx)
}

func (m *MemoryManager) store(agentID string) (EntryStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, exists := m.stores[agentID]
	if !exists {
		created, err := m.factory(agentID)
		if err != nil {
			return nil, err
		}
		m.stores[agentID] = created
		store = created
	}
	return store, nil
}

// inMemoryStore is the default unbounded in-process entry store
type inMemoryStore struct {
	entries []MemoryEntry
	mu      sync.RWMutex
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{}
}

func (s *inMemoryStore) Append(ctx context.Context, entry MemoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *inMemoryStore) Recent(ctx context.Context, limit int) ([]MemoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && limit < len(s.entries) {
		start = len(s.entries) - limit
	}
	result := make([]MemoryEntry, len(s.entries)-start)
	copy(result, s.entries[start:])
	return result, nil
}

func (s *inMemoryStore) Snapshot(ctx context.Context) ([]MemoryEntry, error) {
	return s.Recent(ctx, 0)
}
