package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"
	utcptools "github.com/universal-tool-calling-protocol/go-utcp/src/tools"

	"github.com/joelfuller2016/swarmbot/pkg/match"
)

// utcpCatalogLimit caps how many tools one UTCP search returns.
const utcpCatalogLimit = 200

// utcpCaller is the slice of the UTCP client surface the dispatcher uses.
type utcpCaller interface {
	CallTool(ctx context.Context, toolName string, args map[string]any) (any, error)
	SearchTools(query string, limit int) ([]utcptools.Tool, error)
}

// UTCPDispatcher adapts a UTCP client to the Dispatcher interface, so tools
// published over UTCP providers can join the session's catalog alongside MCP
// servers.
type UTCPDispatcher struct {
	Client utcpCaller
}

// NewUTCPDispatcher wraps an existing UTCP client.
func NewUTCPDispatcher(client utcp.UtcpClientInterface) *UTCPDispatcher {
	return &UTCPDispatcher{Client: client}
}

// Catalog lists every registered UTCP tool as a descriptor.
func (d *UTCPDispatcher) Catalog(_ context.Context) ([]match.ToolDescriptor, error) {
	if d == nil || d.Client == nil {
		return nil, fmt.Errorf("dispatch: utcp client is nil")
	}

	found, err := d.Client.SearchTools("", utcpCatalogLimit)
	if err != nil {
		return nil, fmt.Errorf("dispatch: utcp search: %w", err)
	}

	catalog := make([]match.ToolDescriptor, 0, len(found))
	for _, tool := range found {
		catalog = append(catalog, match.ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  utcpParameters(tool),
		})
	}
	return catalog, nil
}

// Execute invokes the named UTCP tool. Errors become printable failure text.
func (d *UTCPDispatcher) Execute(ctx context.Context, tool string, arguments map[string]any) (bool, string) {
	if d == nil || d.Client == nil {
		return false, "Tool not found: " + tool
	}

	result, err := d.Client.CallTool(ctx, tool, arguments)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return false, fmt.Sprintf("Tool not found: %s", tool)
		}
		return false, err.Error()
	}
	return true, renderResult(result)
}

// renderResult flattens an arbitrary UTCP return value into display text.
func renderResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return fmt.Sprint(v)
	}
}

func utcpParameters(tool utcptools.Tool) map[string]match.ParameterSpec {
	params := make(map[string]match.ParameterSpec, len(tool.Inputs.Properties))
	required := make(map[string]bool, len(tool.Inputs.Required))
	for _, name := range tool.Inputs.Required {
		required[name] = true
	}
	for name, raw := range tool.Inputs.Properties {
		spec := match.ParameterSpec{Required: required[name]}
		if prop, ok := raw.(map[string]any); ok {
			if t, ok := prop["type"].(string); ok {
				spec.Type = t
			}
			if desc, ok := prop["description"].(string); ok {
				spec.Description = desc
			}
		}
		params[name] = spec
	}
	return params
}

var _ Dispatcher = (*UTCPDispatcher)(nil)
