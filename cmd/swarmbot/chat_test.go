package main

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joelfuller2016/swarmbot/pkg/config"
	"github.com/joelfuller2016/swarmbot/pkg/dispatch"
	"github.com/joelfuller2016/swarmbot/pkg/mcp"
	"github.com/joelfuller2016/swarmbot/pkg/models"
	"github.com/joelfuller2016/swarmbot/pkg/store"
	"github.com/joelfuller2016/swarmbot/pkg/usage"
)

func TestBuildProviderWrapsCacheWhenConfigured(t *testing.T) {
	provider, err := buildProvider(context.Background(), config.ProviderConfig{
		Name:  "dummy",
		Cache: config.CacheConfig{Size: 8, TTL: config.Duration(time.Minute)},
	})
	if err != nil {
		t.Fatal(err)
	}
	cached, ok := provider.(*models.CachedLLM)
	if !ok {
		t.Fatalf("provider = %T, want *models.CachedLLM", provider)
	}

	// A repeated prompt must be served from the cache with zero usage.
	first, err := cached.Generate(context.Background(), "same prompt")
	if err != nil {
		t.Fatal(err)
	}
	if first.Usage.Total() == 0 {
		t.Fatal("first call should report real usage")
	}
	second, err := cached.Generate(context.Background(), "same prompt")
	if err != nil {
		t.Fatal(err)
	}
	if second.Usage.Total() != 0 {
		t.Errorf("cache hit should report zero usage, got %+v", second.Usage)
	}
	if second.Text != first.Text {
		t.Errorf("cached text %q != original %q", second.Text, first.Text)
	}
}

func TestBuildProviderNoCacheByDefault(t *testing.T) {
	provider, err := buildProvider(context.Background(), config.ProviderConfig{Name: "dummy"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := provider.(*models.CachedLLM); ok {
		t.Error("cache should be off when provider.cache.size is unset")
	}
}

func TestBuildDispatcherDefaultsToMCP(t *testing.T) {
	cfg := config.Default()
	dispatcher, cleanup, err := buildDispatcher(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if _, ok := dispatcher.(*mcp.Manager); !ok {
		t.Errorf("dispatcher = %T, want *mcp.Manager", dispatcher)
	}
}

func TestBuildDispatcherUTCP(t *testing.T) {
	cfg := config.Default()
	cfg.Dispatcher = config.DispatcherConfig{Backend: "utcp"}
	dispatcher, cleanup, err := buildDispatcher(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if _, ok := dispatcher.(*dispatch.UTCPDispatcher); !ok {
		t.Errorf("dispatcher = %T, want *dispatch.UTCPDispatcher", dispatcher)
	}
}

func TestExportProviderEnvHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	exportProviderEnv(config.ProviderConfig{Name: "ollama", Host: "http://10.0.0.5:11434"})
	if got := os.Getenv("OLLAMA_HOST"); got != "http://10.0.0.5:11434" {
		t.Errorf("OLLAMA_HOST = %q", got)
	}
}

func TestExportProviderEnvAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	exportProviderEnv(config.ProviderConfig{Name: "openai", APIKey: "sk-test"})
	if got := os.Getenv("OPENAI_API_KEY"); got != "sk-test" {
		t.Errorf("OPENAI_API_KEY = %q", got)
	}
}

// errStore fails every query; inserts succeed so a session can still log.
type errStore struct{ store.Store }

func (e errStore) UsageBetween(context.Context, time.Time, time.Time) ([]store.Usage, error) {
	return nil, errors.New("backend offline")
}

func TestBudgetBlockedFailsOpenAndLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	budget := usage.NewBudgetTracker(errStore{Store: store.NewMemoryStore()}, 1.0)

	if budgetBlocked(context.Background(), budget, logger) {
		t.Error("store failure should fail open, not block the turn")
	}
	if logs.FilterMessage("budget check failed").Len() != 1 {
		t.Error("store failure must be logged")
	}
}

func TestBudgetBlockedWhenOverBudget(t *testing.T) {
	mem := store.NewMemoryStore()
	if err := mem.LogUsage(context.Background(), store.Usage{Cost: 2.0}); err != nil {
		t.Fatal(err)
	}
	budget := usage.NewBudgetTracker(mem, 1.0)

	if !budgetBlocked(context.Background(), budget, zap.NewNop()) {
		t.Error("spend over budget should block the turn")
	}
}
