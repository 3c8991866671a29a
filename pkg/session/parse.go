package session

import (
	"encoding/json"
	"strings"
)

// ResponseKind tags the three shapes an LLM reply can take.
type ResponseKind int

const (
	PlainText ResponseKind = iota
	SingleTool
	ToolChain
)

// ToolCall is one requested tool invocation.
type ToolCall struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// ParsedResponse is the result of interpreting an LLM reply. Exactly one of
// Text, Call, or Chain is meaningful, selected by Kind.
type ParsedResponse struct {
	Kind      ResponseKind
	Text      string
	Call      ToolCall
	Chain     []ToolCall
	Reasoning string
}

type rawResponse struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	ToolChain []ToolCall     `json:"tool_chain"`
	Reasoning string         `json:"reasoning"`
}

// ParseResponse interprets an LLM reply. It never fails: anything that is
// not a recognizable tool request comes back as plain text.
func ParseResponse(raw string) ParsedResponse {
	text := strings.TrimSpace(raw)
	candidate := extractJSON(text)
	if candidate == "" {
		return ParsedResponse{Kind: PlainText, Text: text}
	}

	var r rawResponse
	if err := json.Unmarshal([]byte(candidate), &r); err != nil {
		return ParsedResponse{Kind: PlainText, Text: text}
	}

	switch {
	case len(r.ToolChain) > 0:
		chain := make([]ToolCall, len(r.ToolChain))
		for i, c := range r.ToolChain {
			if c.Arguments == nil {
				c.Arguments = map[string]any{}
			}
			chain[i] = c
		}
		return ParsedResponse{Kind: ToolChain, Chain: chain, Reasoning: r.Reasoning}
	case r.Tool != "":
		args := r.Arguments
		if args == nil {
			args = map[string]any{}
		}
		return ParsedResponse{
			Kind:      SingleTool,
			Call:      ToolCall{Tool: r.Tool, Arguments: args},
			Reasoning: r.Reasoning,
		}
	default:
		return ParsedResponse{Kind: PlainText, Text: text}
	}
}

// extractJSON pulls a JSON object out of text, tolerating markdown code
// fences and surrounding prose. Returns "" when no object is present.
func extractJSON(text string) string {
	if fenced := stripFence(text); fenced != "" {
		text = fenced
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func stripFence(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}
	rest := text[start+3:]
	// Skip an optional language tag on the fence line.
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || tag == "json" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
