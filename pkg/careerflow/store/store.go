// Package store persists conversation state between turns.
//
// A conversation is stored as one versioned JSON document keyed by its id.
// Put overwrites; there is no history of intermediate node states.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
)

// Store persists conversation state. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get loads the state for id. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*conversation.State, error)

	// Put stores state under id, replacing any previous value.
	Put(ctx context.Context, id string, state *conversation.State) error

	// List returns summaries of all conversations, most recent first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes id. Returns nil if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}

// Summary describes a stored conversation without its transcript.
type Summary struct {
	ID        string    `json:"id"`
	Turn      int       `json:"turn"`
	Messages  int       `json:"messages"`
	Flags     string    `json:"flags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sentinel errors.
var (
	// ErrNotFound indicates no state is stored for the id.
	ErrNotFound = errors.New("conversation not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("conversation store closed")

	// ErrEmptyID indicates an empty conversation id.
	ErrEmptyID = errors.New("conversation id is empty")
)

// Open returns a store for uri: "memory" (or "") for a MemoryStore,
// anything else is a SQLite path or DSN.
func Open(uri string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(uri)) {
	case "", "memory", "mem":
		return NewMemoryStore(), nil
	default:
		return NewSQLiteStore(uri)
	}
}

func summarize(s *conversation.State) Summary {
	return Summary{
		ID:        s.ID,
		Turn:      s.Turn,
		Messages:  len(s.Transcript),
		Flags:     s.Completed.Fingerprint(),
		UpdatedAt: s.UpdatedAt,
	}
}
