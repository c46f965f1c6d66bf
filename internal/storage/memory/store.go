// Package memory is an in-memory SessionStore for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arttech/assistant-gateway/internal/domain"
	"github.com/arttech/assistant-gateway/internal/storage"
)

// sessionState holds one session plus its append lock. The per-session mutex
// serializes appends to this session without blocking other sessions.
type sessionState struct {
	mu      sync.Mutex
	session storage.Session
}

// Store is an in-memory implementation of SessionStore.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

var _ storage.SessionStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*sessionState),
	}
}

func (s *Store) Create(ctx context.Context) (*storage.Session, error) {
	sess := storage.Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Active:    domain.AssistantPersonal,
		Histories: make(map[domain.Assistant][]domain.Turn),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &sessionState{session: sess}
	s.mu.Unlock()

	snapshot := cloneSession(&sess)
	return &snapshot, nil
}

func (s *Store) Get(ctx context.Context, id string) (*storage.Session, error) {
	state, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	snapshot := cloneSession(&state.session)
	return &snapshot, nil
}

func (s *Store) AppendTurn(ctx context.Context, id string, assistant domain.Assistant, turn domain.Turn) error {
	state, err := s.lookup(id)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	state.session.Histories[assistant] = append(state.session.Histories[assistant], turn)
	return nil
}

func (s *Store) SetActiveAssistant(ctx context.Context, id string, assistant domain.Assistant) error {
	state, err := s.lookup(id)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.session.Active = assistant
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) lookup(id string) (*sessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.sessions[id]
	if !exists {
		return nil, domain.ErrSessionNotFound(id)
	}
	return state, nil
}

// cloneSession deep-copies a session so callers cannot mutate stored state.
func cloneSession(src *storage.Session) storage.Session {
	dst := storage.Session{
		ID:        src.ID,
		CreatedAt: src.CreatedAt,
		Active:    src.Active,
		Histories: make(map[domain.Assistant][]domain.Turn, len(src.Histories)),
	}
	for assistant, turns := range src.Histories {
		copied := make([]domain.Turn, len(turns))
		copy(copied, turns)
		dst.Histories[assistant] = copied
	}
	return dst
}
