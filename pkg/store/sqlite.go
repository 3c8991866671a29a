package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

CREATE TABLE IF NOT EXISTS tool_calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	tool TEXT NOT NULL,
	arguments TEXT NOT NULL,
	ok INTEGER NOT NULL,
	result TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_session ON tool_calls(session_id);

CREATE TABLE IF NOT EXISTS usage_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	cost REAL NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_created ON usage_log(created_at);
`

// SQLiteStore persists to a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = "swarmbot.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) LogMessage(ctx context.Context, msg Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		msg.SessionID, msg.Role, msg.Content, msg.CreatedAt)
	return err
}

func (s *SQLiteStore) LogToolCall(ctx context.Context, call ToolCall) error {
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_calls (session_id, tool, arguments, ok, result, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		call.SessionID, call.Tool, call.Arguments, call.OK, call.Result, call.DurationMS, call.CreatedAt)
	return err
}

func (s *SQLiteStore) LogUsage(ctx context.Context, usage Usage) error {
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_log (session_id, provider, model, prompt_tokens, completion_tokens, cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		usage.SessionID, usage.Provider, usage.Model, usage.PromptTokens, usage.CompletionTokens, usage.Cost, usage.CreatedAt)
	return err
}

func (s *SQLiteStore) Messages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, role, content, created_at FROM messages
		 WHERE session_id = ? ORDER BY id LIMIT ?`,
		sessionID, effectiveLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ToolCalls(ctx context.Context, sessionID string, limit int) ([]ToolCall, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, tool, arguments, ok, result, duration_ms, created_at FROM tool_calls
		 WHERE session_id = ? ORDER BY id LIMIT ?`,
		sessionID, effectiveLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ToolCall
	for rows.Next() {
		var c ToolCall
		if err := rows.Scan(&c.SessionID, &c.Tool, &c.Arguments, &c.OK, &c.Result, &c.DurationMS, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UsageBetween(ctx context.Context, from, to time.Time) ([]Usage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, provider, model, prompt_tokens, completion_tokens, cost, created_at
		 FROM usage_log WHERE created_at >= ? AND created_at < ? ORDER BY id`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Usage
	for rows.Next() {
		var u Usage
		if err := rows.Scan(&u.SessionID, &u.Provider, &u.Model, &u.PromptTokens, &u.CompletionTokens, &u.Cost, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return 10000
	}
	return limit
}
