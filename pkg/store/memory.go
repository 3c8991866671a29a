package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps everything in process memory. It backs tests and runs
// where persistence is disabled.
type MemoryStore struct {
	mu        sync.RWMutex
	messages  []Message
	toolCalls []ToolCall
	usage     []Usage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LogMessage(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MemoryStore) LogToolCall(_ context.Context, call ToolCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now()
	}
	m.toolCalls = append(m.toolCalls, call)
	return nil
}

func (m *MemoryStore) LogUsage(_ context.Context, usage Usage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now()
	}
	m.usage = append(m.usage, usage)
	return nil
}

func (m *MemoryStore) Messages(_ context.Context, sessionID string, limit int) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Message
	for _, msg := range m.messages {
		if msg.SessionID != sessionID {
			continue
		}
		out = append(out, msg)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) ToolCalls(_ context.Context, sessionID string, limit int) ([]ToolCall, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ToolCall
	for _, call := range m.toolCalls {
		if call.SessionID != sessionID {
			continue
		}
		out = append(out, call)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) UsageBetween(_ context.Context, from, to time.Time) ([]Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Usage
	for _, u := range m.usage {
		if u.CreatedAt.Before(from) || !u.CreatedAt.Before(to) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}
