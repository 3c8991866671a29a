// Package store persists chat transcripts, tool invocations, and token usage
// so cost tracking and the dashboard queries survive restarts. Four backends
// are provided: SQLite (the default), Postgres, MongoDB, and an in-memory
// store for tests.
package store

import (
	"context"
	"fmt"
	"time"
)

// Message is one persisted conversation turn.
type Message struct {
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// ToolCall records one tool invocation and its outcome.
type ToolCall struct {
	SessionID  string
	Tool       string
	Arguments  string // JSON-encoded
	OK         bool
	Result     string
	DurationMS int64
	CreatedAt  time.Time
}

// Usage records the token consumption and cost of one LLM round-trip.
type Usage struct {
	SessionID        string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Cost             float64
	CreatedAt        time.Time
}

// Store is the persistence interface consumed by the session and the cost
// tracker.
type Store interface {
	LogMessage(ctx context.Context, msg Message) error
	LogToolCall(ctx context.Context, call ToolCall) error
	LogUsage(ctx context.Context, usage Usage) error

	// Messages returns up to limit messages for a session in insertion order.
	Messages(ctx context.Context, sessionID string, limit int) ([]Message, error)
	// ToolCalls returns up to limit tool calls for a session in insertion order.
	ToolCalls(ctx context.Context, sessionID string, limit int) ([]ToolCall, error)
	// UsageBetween returns usage records with CreatedAt in [from, to).
	UsageBetween(ctx context.Context, from, to time.Time) ([]Usage, error)

	Close(ctx context.Context) error
}

// Open constructs a Store for the named backend.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch backend {
	case "sqlite", "":
		return NewSQLiteStore(ctx, dsn)
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	case "mongo", "mongodb":
		return NewMongoStore(ctx, dsn)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
}
