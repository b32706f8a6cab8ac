package store

import (
	"context"
	"sort"
	"sync"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
)

// MemoryStore keeps encoded conversations in memory. Data is lost when the
// process exits. Values are stored encoded, so callers never share state
// with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]stored
	closed bool
}

type stored struct {
	doc     []byte
	summary Summary
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]stored)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*conversation.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	s, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return Unmarshal(s.doc)
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, id string, state *conversation.State) error {
	if id == "" {
		return ErrEmptyID
	}
	doc, err := Marshal(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	sum := summarize(state)
	sum.ID = id
	m.data[id] = stored{doc: doc, summary: sum}
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	out := make([]Summary, 0, len(m.data))
	for _, s := range m.data {
		out = append(out, s.summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.data, id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}

var _ Store = (*MemoryStore)(nil)
