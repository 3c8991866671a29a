package session

import (
	"strings"
	"testing"
)

func TestHistoryAppendAndCopy(t *testing.T) {
	h := NewHistory(0)
	h.Append(RoleUser, "hello")
	h.Append(RoleAssistant, "hi")

	turns := h.Turns()
	if len(turns) != 2 {
		t.Fatalf("len = %d", len(turns))
	}
	turns[0].Content = "mutated"
	if h.Turns()[0].Content != "hello" {
		t.Error("Turns must return a copy")
	}
}

func TestHistoryTruncatesOldestFirst(t *testing.T) {
	// Budget of ~25 tokens; each turn is ~100 chars (~26 tokens).
	h := NewHistory(60)
	filler := strings.Repeat("x", 100)
	h.Append(RoleUser, filler+"-first")
	h.Append(RoleAssistant, filler+"-second")
	h.Append(RoleUser, filler+"-third")

	turns := h.Turns()
	for _, turn := range turns {
		if strings.HasSuffix(turn.Content, "-first") {
			t.Error("oldest turn should have been evicted")
		}
	}
	if len(turns) == 0 {
		t.Fatal("history emptied entirely")
	}
	last := turns[len(turns)-1]
	if !strings.HasSuffix(last.Content, "-third") {
		t.Errorf("newest turn missing, got %q", last.Content)
	}
}

func TestHistoryPreservesSystemTurns(t *testing.T) {
	h := NewHistory(40)
	h.Append(RoleSystem, "standing instructions")
	for i := 0; i < 5; i++ {
		h.Append(RoleUser, strings.Repeat("y", 120))
	}

	found := false
	for _, turn := range h.Turns() {
		if turn.Role == RoleSystem {
			found = true
		}
	}
	if !found {
		t.Error("system turn must never be evicted")
	}
}

func TestHistoryDefaultBudget(t *testing.T) {
	h := NewHistory(0)
	if h.budget != DefaultTokenBudget {
		t.Errorf("budget = %d, want %d", h.budget, DefaultTokenBudget)
	}
}
