// Package dispatch defines the tool-dispatch contract the chat session runs
// against, plus adapters for non-MCP tool transports.
package dispatch

import (
	"context"

	"github.com/joelfuller2016/swarmbot/pkg/match"
)

// Dispatcher executes tools on behalf of the session. Implementations never
// return a Go error from Execute: every failure is reported as ok=false with
// a printable message, so a single bad tool call cannot abort a turn.
type Dispatcher interface {
	// Catalog returns the tools currently available for this session.
	Catalog(ctx context.Context) ([]match.ToolDescriptor, error)
	// Execute runs the named tool and returns whether it succeeded along
	// with the result or error text.
	Execute(ctx context.Context, tool string, arguments map[string]any) (bool, string)
}
