package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

CREATE TABLE IF NOT EXISTS tool_calls (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	tool TEXT NOT NULL,
	arguments TEXT NOT NULL,
	ok BOOLEAN NOT NULL,
	result TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_session ON tool_calls(session_id);

CREATE TABLE IF NOT EXISTS usage_log (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	cost DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_created ON usage_log(created_at);
`

// PostgresStore persists to Postgres through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) LogMessage(ctx context.Context, msg Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (session_id, role, content, created_at) VALUES ($1, $2, $3, $4)`,
		msg.SessionID, msg.Role, msg.Content, msg.CreatedAt)
	return err
}

func (s *PostgresStore) LogToolCall(ctx context.Context, call ToolCall) error {
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tool_calls (session_id, tool, arguments, ok, result, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		call.SessionID, call.Tool, call.Arguments, call.OK, call.Result, call.DurationMS, call.CreatedAt)
	return err
}

func (s *PostgresStore) LogUsage(ctx context.Context, usage Usage) error {
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_log (session_id, provider, model, prompt_tokens, completion_tokens, cost, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		usage.SessionID, usage.Provider, usage.Model, usage.PromptTokens, usage.CompletionTokens, usage.Cost, usage.CreatedAt)
	return err
}

func (s *PostgresStore) Messages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, role, content, created_at FROM messages
		 WHERE session_id = $1 ORDER BY id LIMIT $2`,
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

func (s *PostgresStore) ToolCalls(ctx context.Context, sessionID string, limit int) ([]ToolCall, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, tool, arguments, ok, result, duration_ms, created_at FROM tool_calls
		 WHERE session_id = $1 ORDER BY id LIMIT $2`,
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

func (s *PostgresStore) UsageBetween(ctx context.Context, from, to time.Time) ([]Usage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, provider, model, prompt_tokens, completion_tokens, cost, created_at
		 FROM usage_log WHERE created_at >= $1 AND created_at < $2 ORDER BY id`,
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

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
