// Package sqlite is a SQLite-backed SessionStore.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/arttech/assistant-gateway/internal/domain"
	"github.com/arttech/assistant-gateway/internal/storage"
)

// Store is a SQLite implementation of SessionStore.
type Store struct {
	db *sql.DB
}

var _ storage.SessionStore = (*Store)(nil)

// New creates a new SQLite store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			active_assistant TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			assistant TEXT NOT NULL,
			sender TEXT NOT NULL,
			content TEXT NOT NULL,
			citations TEXT,
			seq INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) Create(ctx context.Context) (*storage.Session, error) {
	sess := storage.Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Active:    domain.AssistantPersonal,
		Histories: make(map[domain.Assistant][]domain.Turn),
	}

	query := `INSERT INTO sessions (id, active_assistant, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, sess.ID, string(sess.Active), sess.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (*storage.Session, error) {
	sess := storage.Session{
		Histories: make(map[domain.Assistant][]domain.Turn),
	}

	var active string
	query := `SELECT id, active_assistant, created_at FROM sessions WHERE id = ?`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&sess.ID, &active, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	sess.Active = domain.Assistant(active)

	rows, err := s.db.QueryContext(ctx,
		`SELECT assistant, sender, content, citations, created_at
		 FROM turns WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var assistant, sender, content string
		var citationsJSON sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&assistant, &sender, &content, &citationsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}

		turn := domain.Turn{
			Sender:    domain.Sender(sender),
			Text:      content,
			CreatedAt: createdAt,
		}
		if citationsJSON.Valid && citationsJSON.String != "" {
			if err := json.Unmarshal([]byte(citationsJSON.String), &turn.Citations); err != nil {
				return nil, fmt.Errorf("failed to unmarshal citations: %w", err)
			}
		}

		a := domain.Assistant(assistant)
		sess.Histories[a] = append(sess.Histories[a], turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}

	return &sess, nil
}

func (s *Store) AppendTurn(ctx context.Context, id string, assistant domain.Assistant, turn domain.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	var citationsJSON string
	if len(turn.Citations) > 0 {
		data, err := json.Marshal(turn.Citations)
		if err != nil {
			return fmt.Errorf("failed to marshal citations: %w", err)
		}
		citationsJSON = string(data)
	}

	// The transaction serializes the seq computation with the insert so
	// concurrent appends to the same session get distinct sequence numbers.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sessions WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return domain.ErrSessionNotFound(id)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE session_id = ?`, id).Scan(&seq); err != nil {
		return fmt.Errorf("failed to compute sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO turns (id, session_id, assistant, sender, content, citations, seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), id, string(assistant), string(turn.Sender),
		turn.Text, citationsJSON, seq, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	return tx.Commit()
}

func (s *Store) SetActiveAssistant(ctx context.Context, id string, assistant domain.Assistant) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET active_assistant = ? WHERE id = ?`, string(assistant), id)
	if err != nil {
		return fmt.Errorf("failed to set active assistant: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return domain.ErrSessionNotFound(id)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
