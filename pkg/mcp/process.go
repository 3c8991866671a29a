package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ServerConfig describes how to launch one MCP server subprocess.
type ServerConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// ServerProcess owns a running MCP server subprocess and the client attached
// to its stdio pipes.
type ServerProcess struct {
	cfg    ServerConfig
	cmd    *exec.Cmd
	client *Client
	logger *zap.Logger
}

// maxStartAttempts bounds handshake retries when a server dies on startup.
const maxStartAttempts = 3

// StartServer launches the configured subprocess and performs the MCP
// handshake. A server that fails to initialize is retried a bounded number
// of times before the error is returned.
func StartServer(ctx context.Context, cfg ServerConfig, logger *zap.Logger) (*ServerProcess, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, fmt.Errorf("mcp: server %q has no command", cfg.Name)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= maxStartAttempts; attempt++ {
		sp, err := spawn(ctx, cfg, logger)
		if err == nil {
			return sp, nil
		}
		lastErr = err
		logger.Warn("mcp server start failed",
			zap.String("server", cfg.Name),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, fmt.Errorf("mcp: start server %s: %w", cfg.Name, lastErr)
}

func spawn(ctx context.Context, cfg ServerConfig, logger *zap.Logger) (*ServerProcess, error) {
	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("mcp: exec %s: %w", cfg.Command, err)
	}

	client, err := NewClient(ctx, NewStdioTransport(stdin, stdout), Options{
		ClientInfo: ClientInfo{Name: "swarmbot", Version: "dev"},
	})
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	logger.Info("mcp server started",
		zap.String("server", cfg.Name),
		zap.String("remote", client.Server().Name))

	return &ServerProcess{cfg: cfg, cmd: cmd, client: client, logger: logger}, nil
}

// Name returns the configured server name.
func (s *ServerProcess) Name() string { return s.cfg.Name }

// Client returns the MCP client attached to this server.
func (s *ServerProcess) Client() *Client { return s.client }

// Close shuts down the client and reaps the subprocess.
func (s *ServerProcess) Close() error {
	if s == nil {
		return nil
	}
	err := s.client.Close()
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	return err
}
