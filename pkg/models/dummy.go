package models

import (
	"context"
	"fmt"
	"strings"
)

// DummyLLM is a lightweight model implementation useful for local testing
// without API calls. It echoes the last non-empty line of the prompt.
type DummyLLM struct {
	Prefix string
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

func (d *DummyLLM) Name() string  { return "dummy" }
func (d *DummyLLM) Model() string { return "dummy" }

func (d *DummyLLM) Generate(_ context.Context, prompt string) (Completion, error) {
	lines := strings.Split(prompt, "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate != "" {
			last = candidate
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	return Completion{
		Text: fmt.Sprintf("%s %s", d.Prefix, last),
		Usage: TokenUsage{
			PromptTokens:     len(strings.Fields(prompt)),
			CompletionTokens: len(strings.Fields(last)) + 1,
		},
	}, nil
}

var _ Provider = (*DummyLLM)(nil)
