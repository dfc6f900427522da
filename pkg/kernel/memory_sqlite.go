package kernel

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const memorySchema = `
CREATE TABLE IF NOT EXISTS memory_entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id   TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_agent ON memory_entries(agent_id, id);
`

// NewSQLiteStoreFactory returns a StoreFactory backed by a single SQLite
// database shared across agents, giving memory logs that survive restarts.
// The returned close function releases the database handle.
func NewSQLiteStoreFactory(path string) (StoreFactory, func() error, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	if _, err := db.Exec(memorySchema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize memory schema: %w", err)
	}

	factory := func(agentID string) (EntryStore, error) {
		return &sqliteStore{db: db, agentID: agentID}, nil
	}
	return factory, db.Close, nil
}

// sqliteStore scopes the shared database to one agent's sequence
type sqliteStore struct {
	db      *sql.DB
	agentID string
}

func (s *sqliteStore) Append(ctx context.Context, entry MemoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_entries (agent_id, text, created_at) VALUES (?, ?, ?)`,
		s.agentID, entry.Text, entry.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append memory entry: %w", err)
	}
	return nil
}

func (s *sqliteStore) Recent(ctx context.Context, limit int) ([]MemoryEntry, error) {
	query := `SELECT text, created_at FROM memory_entries WHERE agent_id = ? ORDER BY id`
	args := []interface{}{s.agentID}
	if limit > 0 {
		// Take the tail while preserving chronological order
		query = `SELECT text, created_at FROM (
			SELECT id, text, created_at FROM memory_entries
			WHERE agent_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory entries: %w", err)
	}
	defer rows.Close()

	entries := []MemoryEntry{}
	for rows.Next() {
		var text string
		var createdAt int64
		if err := rows.Scan(&text, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory entry: %w", err)
		}
		entries = append(entries, MemoryEntry{Text: text, CreatedAt: time.Unix(0, createdAt)})
	}
	return entries, rows.Err()
}

func (s *sqliteStore) Snapshot(ctx context.Context) ([]MemoryEntry, error) {
	return s.Recent(ctx, 0)
}
