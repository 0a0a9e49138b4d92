package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wangyuhao/assistant/internal/memory"
	"github.com/wangyuhao/assistant/internal/model/chat"
)

// Store persists transcripts in Postgres, one row per turn. It implements
// the same whole-transcript-overwrite contract as the file store so the two
// backends stay interchangeable.
type Store struct {
	db *pgxpool.Pool
}

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("memory: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("memory: ping postgres: %w", err)
	}

	store := &Store{db: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS assistant_sessions (
			name       TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS assistant_turns (
			session TEXT NOT NULL REFERENCES assistant_sessions(name) ON DELETE CASCADE,
			seq     INT  NOT NULL,
			role    TEXT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (session, seq)
		);
	`)
	if err != nil {
		return fmt.Errorf("memory: ensure schema: %w", err)
	}
	return nil
}

// Load returns the turns for a session ordered by seq. Unknown sessions
// yield an empty transcript.
func (s *Store) Load(ctx context.Context, session string) ([]chat.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT role, content FROM assistant_turns WHERE session = $1 ORDER BY seq ASC`,
		memory.SanitizeSession(session),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrCorruptSession, err)
	}
	defer rows.Close()

	var transcript []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("%w: %v", memory.ErrCorruptSession, err)
		}
		transcript = append(transcript, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrCorruptSession, err)
	}
	return transcript, nil
}

// Save replaces the stored transcript for the session in one transaction.
func (s *Store) Save(ctx context.Context, session string, transcript []chat.Message) error {
	name := memory.SanitizeSession(session)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("memory: begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO assistant_sessions (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
		name,
	); err != nil {
		return fmt.Errorf("memory: upsert session: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM assistant_turns WHERE session = $1`, name); err != nil {
		return fmt.Errorf("memory: clear session: %w", err)
	}
	for i, msg := range transcript {
		if _, err := tx.Exec(ctx,
			`INSERT INTO assistant_turns (session, seq, role, content) VALUES ($1, $2, $3, $4)`,
			name, i+1, msg.Role, msg.Content,
		); err != nil {
			return fmt.Errorf("memory: insert turn: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("memory: commit save: %w", err)
	}
	return nil
}

// List returns the known session names in alphabetical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT name FROM assistant_sessions ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("memory: list sessions: %w", err)
	}
	defer rows.Close()

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("memory: scan sessions: %w", err)
	}
	return names, nil
}

var _ memory.Store = (*Store)(nil)
