package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joelfuller2016/swarmbot/pkg/match"
)

// DefaultSystemPrompt is used when the config does not set one.
const DefaultSystemPrompt = "You are SwarmBot, a personal assistant that can call external tools on the user's behalf."

// RenderPrompt flattens the system prompt, tool catalog, and conversation
// into a single prompt string for providers that take plain text.
func RenderPrompt(systemPrompt string, catalog []match.ToolDescriptor, turns []Turn) string {
	var sb strings.Builder
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	sb.WriteString(systemPrompt)

	if len(catalog) > 0 {
		sb.WriteString("\n\nAvailable tools:\n")
		for _, tool := range catalog {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", tool.Name, tool.Description))
			names := make([]string, 0, len(tool.Parameters))
			for name := range tool.Parameters {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				p := tool.Parameters[name]
				req := "optional"
				if p.Required {
					req = "required"
				}
				sb.WriteString(fmt.Sprintf("    %s (%s, %s): %s\n", name, p.Type, req, p.Description))
			}
		}
		sb.WriteString("Invoke one tool by replying with only the JSON object " +
			`{"tool": "<name>", "arguments": {...}}` + ".\n")
		sb.WriteString("Invoke several tools in order by replying with only " +
			`{"tool_chain": [{"tool": "<name>", "arguments": {...}}, ...]}` + ". " +
			`Use "use_previous_result" as an argument value to feed in the previous tool's output.` + "\n")
		sb.WriteString("If no tool is needed, reply in plain text.\n")
	}

	if len(turns) > 0 {
		sb.WriteString("\nConversation:\n")
		for _, t := range turns {
			sb.WriteString(fmt.Sprintf("[%s] %s\n", t.Role, t.Content))
		}
	}

	sb.WriteString("\nAssistant reply:")
	return sb.String()
}
