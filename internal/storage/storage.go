// Package storage defines the session store contract shared by the memory
// and sqlite backends.
package storage

import (
	"context"
	"time"

	"github.com/arttech/assistant-gateway/internal/domain"
)

// Session is a conversation session with per-assistant histories.
type Session struct {
	ID        string
	CreatedAt time.Time
	Active    domain.Assistant
	Histories map[domain.Assistant][]domain.Turn
}

// History returns the ordered turn list for one assistant.
func (s *Session) History(a domain.Assistant) []domain.Turn {
	return s.Histories[a]
}

// MessageCount returns the total number of turns across all assistants.
func (s *Session) MessageCount() int {
	n := 0
	for _, turns := range s.Histories {
		n += len(turns)
	}
	return n
}

// SessionStore persists sessions and their turn histories. Appends to the
// same session are serialized; appends to different sessions may proceed
// concurrently. Get returns a snapshot that later appends do not mutate.
type SessionStore interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	AppendTurn(ctx context.Context, id string, assistant domain.Assistant, turn domain.Turn) error
	SetActiveAssistant(ctx context.Context, id string, assistant domain.Assistant) error
	Close() error
}
