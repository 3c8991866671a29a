package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreMessagesFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i, m := range []Message{
		{SessionID: "a", Role: "user", Content: "hello"},
		{SessionID: "b", Role: "user", Content: "other session"},
		{SessionID: "a", Role: "assistant", Content: "hi there"},
	} {
		if err := s.LogMessage(ctx, m); err != nil {
			t.Fatalf("LogMessage %d: %v", i, err)
		}
	}

	msgs, err := s.Messages(ctx, "a", 0)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages for session a, got %d", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[1].Content != "hi there" {
		t.Errorf("messages out of insertion order: %+v", msgs)
	}
}

func TestMemoryStoreMessagesLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		if err := s.LogMessage(ctx, Message{SessionID: "a", Role: "user", Content: "m"}); err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := s.Messages(ctx, "a", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Errorf("expected limit of 3, got %d", len(msgs))
	}
}

func TestMemoryStoreToolCalls(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.LogToolCall(ctx, ToolCall{SessionID: "a", Tool: "get_tasks", Arguments: "{}", OK: true, Result: "[]"}); err != nil {
		t.Fatal(err)
	}
	calls, err := s.ToolCalls(ctx, "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0].Tool != "get_tasks" || !calls[0].OK {
		t.Errorf("unexpected tool calls: %+v", calls)
	}
}

func TestMemoryStoreUsageBetween(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, u := range []Usage{
		{SessionID: "a", Provider: "openai", PromptTokens: 10, CreatedAt: base.Add(-2 * time.Hour)},
		{SessionID: "a", Provider: "openai", PromptTokens: 20, CreatedAt: base},
		{SessionID: "a", Provider: "openai", PromptTokens: 30, CreatedAt: base.Add(2 * time.Hour)},
	} {
		if err := s.LogUsage(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.UsageBetween(ctx, base.Add(-time.Hour), base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].PromptTokens != 20 {
		t.Errorf("expected only the in-window record, got %+v", got)
	}
}

func TestMemoryStoreUsageBetweenBoundaries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	if err := s.LogUsage(ctx, Usage{PromptTokens: 1, CreatedAt: from}); err != nil {
		t.Fatal(err)
	}
	if err := s.LogUsage(ctx, Usage{PromptTokens: 2, CreatedAt: to}); err != nil {
		t.Fatal(err)
	}

	got, err := s.UsageBetween(ctx, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].PromptTokens != 1 {
		t.Errorf("window should include from and exclude to, got %+v", got)
	}
}
