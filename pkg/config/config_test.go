package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite default", cfg.Store.Backend)
	}
	if cfg.Session.MaxIterations != 1 {
		t.Errorf("MaxIterations = %d, want 1", cfg.Session.MaxIterations)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: openai
  model: gpt-4o-mini
servers:
  - name: tasks
    command: npx
    args: ["-y", "@modelcontextprotocol/server-memory"]
    env:
      DEBUG: "1"
store:
  backend: postgres
  dsn: postgres://localhost/swarmbot
session:
  max_iterations: 3
  goal_detection: true
budget:
  daily_usd: 5.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Name != "openai" || cfg.Provider.Model != "gpt-4o-mini" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if len(cfg.Servers) != 1 || cfg.Servers[0].Command != "npx" || cfg.Servers[0].Env["DEBUG"] != "1" {
		t.Errorf("servers = %+v", cfg.Servers)
	}
	if cfg.Store.Backend != "postgres" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Session.MaxIterations != 3 || !cfg.Session.GoalDetection {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Budget.DailyUSD != 5.5 {
		t.Errorf("budget = %+v", cfg.Budget)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "provider:\n  name: openai\n  model: gpt-4o\n")
	t.Setenv("SWARMBOT_PROVIDER", "anthropic")
	t.Setenv("SWARMBOT_MAX_ITERATIONS", "4")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Name != "anthropic" {
		t.Errorf("env should override file: %q", cfg.Provider.Name)
	}
	if cfg.Session.MaxIterations != 4 {
		t.Errorf("MaxIterations = %d", cfg.Session.MaxIterations)
	}
	if cfg.Provider.APIKey != "sk-test" {
		t.Errorf("vendor key fallback missing: %q", cfg.Provider.APIKey)
	}
}

func TestLoadCacheBlock(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: openai
  cache:
    size: 64
    ttl: 90s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Cache.Size != 64 {
		t.Errorf("cache size = %d", cfg.Provider.Cache.Size)
	}
	if time.Duration(cfg.Provider.Cache.TTL) != 90*time.Second {
		t.Errorf("cache ttl = %v", time.Duration(cfg.Provider.Cache.TTL))
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "provider:\n  cache:\n    ttl: soon\n")
	if _, err := Load(path); err == nil {
		t.Error("unparseable duration should be rejected")
	}
}

func TestLoadDispatcherBlock(t *testing.T) {
	path := writeConfig(t, `
dispatcher:
  backend: utcp
  providers_file: providers.json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dispatcher.Backend != "utcp" || cfg.Dispatcher.ProvidersFile != "providers.json" {
		t.Errorf("dispatcher = %+v", cfg.Dispatcher)
	}
}

func TestLoadDispatcherDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dispatcher.Backend != "mcp" {
		t.Errorf("Backend = %q, want mcp default", cfg.Dispatcher.Backend)
	}
}

func TestLoadRejectsUnknownDispatcher(t *testing.T) {
	path := writeConfig(t, "dispatcher:\n  backend: grpc\n")
	if _, err := Load(path); err == nil {
		t.Error("unknown dispatcher backend should be rejected")
	}
}

func TestLoadRejectsInvalidServer(t *testing.T) {
	path := writeConfig(t, "servers:\n  - name: broken\n")
	if _, err := Load(path); err == nil {
		t.Error("server without command should be rejected")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "provider: [not a map")
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should be rejected")
	}
}
