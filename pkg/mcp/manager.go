package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/joelfuller2016/swarmbot/pkg/match"
)

// toolClient is the slice of Client the manager needs; tests substitute an
// in-memory implementation.
type toolClient interface {
	ListTools(ctx context.Context) ([]ToolDefinition, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (CallResult, error)
	Close() error
}

// Manager owns the active MCP servers and routes tool calls to the server
// that exposes the requested tool. It is the session's tool dispatcher.
type Manager struct {
	mu        sync.RWMutex
	order     []string
	clients   map[string]toolClient
	processes map[string]*ServerProcess
	toolIndex map[string]string // tool name -> owning server
	logger    *zap.Logger
}

// NewManager returns an empty manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		clients:   make(map[string]toolClient),
		processes: make(map[string]*ServerProcess),
		toolIndex: make(map[string]string),
		logger:    logger,
	}
}

// StartServer launches the configured subprocess server and registers it.
func (m *Manager) StartServer(ctx context.Context, cfg ServerConfig) error {
	sp, err := StartServer(ctx, cfg, m.logger)
	if err != nil {
		return err
	}
	if err := m.register(cfg.Name, sp.Client()); err != nil {
		_ = sp.Close()
		return err
	}
	m.mu.Lock()
	m.processes[cfg.Name] = sp
	m.mu.Unlock()
	return nil
}

// Register attaches an already-connected client under the given server name.
func (m *Manager) Register(name string, client *Client) error {
	return m.register(name, client)
}

func (m *Manager) register(name string, client toolClient) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("mcp: server name is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[key]; exists {
		return fmt.Errorf("mcp: server %s already registered", name)
	}
	m.clients[key] = client
	m.order = append(m.order, key)
	// Force a catalog rebuild on next use.
	m.toolIndex = make(map[string]string)
	return nil
}

// Servers returns the registered server names in registration order.
func (m *Manager) Servers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Catalog merges the tool lists of all registered servers into descriptors
// for the matcher and the session. When two servers expose the same tool
// name, the first-registered server wins. The merged index also routes
// subsequent Execute calls.
func (m *Manager) Catalog(ctx context.Context) ([]match.ToolDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var catalog []match.ToolDescriptor
	index := make(map[string]string)

	for _, server := range m.order {
		tools, err := m.clients[server].ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("mcp: list tools on %s: %w", server, err)
		}
		for _, tool := range tools {
			key := strings.ToLower(tool.Name)
			if _, taken := index[key]; taken {
				m.logger.Warn("duplicate tool name ignored",
					zap.String("tool", tool.Name),
					zap.String("server", server))
				continue
			}
			index[key] = server
			catalog = append(catalog, match.ToolDescriptor{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  parseInputSchema(tool.InputSchema),
			})
		}
	}

	m.toolIndex = index
	return catalog, nil
}

// Execute runs the named tool on its owning server. The result is always a
// printable string: a missing tool yields ok=false with a "Tool not found"
// message, and server-side failures yield ok=false with the error text.
func (m *Manager) Execute(ctx context.Context, tool string, arguments map[string]any) (bool, string) {
	key := strings.ToLower(strings.TrimSpace(tool))

	m.mu.RLock()
	server, known := m.toolIndex[key]
	needsIndex := len(m.toolIndex) == 0
	m.mu.RUnlock()

	if !known && needsIndex {
		if _, err := m.Catalog(ctx); err == nil {
			m.mu.RLock()
			server, known = m.toolIndex[key]
			m.mu.RUnlock()
		}
	}
	if !known {
		return false, fmt.Sprintf("Tool not found: %s", tool)
	}

	m.mu.RLock()
	client := m.clients[server]
	m.mu.RUnlock()

	result, err := client.CallTool(ctx, tool, arguments)
	if err != nil {
		m.logger.Warn("tool call failed",
			zap.String("tool", tool),
			zap.String("server", server),
			zap.Error(err))
		return false, err.Error()
	}

	m.logger.Debug("tool call succeeded",
		zap.String("tool", tool),
		zap.String("server", server))
	return true, result.PrimaryText()
}

// Close shuts down every registered server.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	for _, server := range m.order {
		if sp, ok := m.processes[server]; ok {
			if e := sp.Close(); e != nil && err == nil {
				err = e
			}
			continue
		}
		if e := m.clients[server].Close(); e != nil && err == nil {
			err = e
		}
	}
	m.order = nil
	m.clients = make(map[string]toolClient)
	m.processes = make(map[string]*ServerProcess)
	m.toolIndex = make(map[string]string)
	return err
}

// parseInputSchema converts a JSON-schema object into the flat parameter map
// the matcher consumes. Unparseable schemas yield an empty map.
func parseInputSchema(raw json.RawMessage) map[string]match.ParameterSpec {
	params := make(map[string]match.ParameterSpec)
	if len(raw) == 0 {
		return params
	}

	var schema struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return params
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	for name, prop := range schema.Properties {
		params[name] = match.ParameterSpec{
			Type:        prop.Type,
			Description: prop.Description,
			Required:    required[name],
		}
	}
	return params
}
