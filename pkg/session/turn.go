package session

import "strings"

// Role labels who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the conversation history.
type Turn struct {
	Role    Role
	Content string
}

// DefaultTokenBudget bounds the rendered history size. Roughly four
// characters per token.
const DefaultTokenBudget = 8000

// History holds the running conversation, evicting the oldest non-system
// turns once the estimated token count exceeds the budget.
type History struct {
	turns  []Turn
	budget int
}

func NewHistory(tokenBudget int) *History {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	return &History{budget: tokenBudget}
}

func (h *History) Append(role Role, content string) {
	h.turns = append(h.turns, Turn{Role: role, Content: content})
	h.truncate()
}

// Turns returns a copy of the current history.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *History) Len() int { return len(h.turns) }

// truncate drops the oldest non-system turns until the history fits the
// budget. System turns carry standing instructions and are never evicted.
func (h *History) truncate() {
	for h.estimateTokens() > h.budget {
		dropped := false
		for i, t := range h.turns {
			if t.Role == RoleSystem {
				continue
			}
			h.turns = append(h.turns[:i], h.turns[i+1:]...)
			dropped = true
			break
		}
		if !dropped {
			return
		}
	}
}

func (h *History) estimateTokens() int {
	total := 0
	for _, t := range h.turns {
		total += estimateTokens(t.Content)
	}
	return total
}

func estimateTokens(s string) int {
	return len(strings.TrimSpace(s))/4 + 1
}
