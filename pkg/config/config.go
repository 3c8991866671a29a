// Package config loads the assistant configuration from a YAML file, with
// environment variables overriding file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joelfuller2016/swarmbot/pkg/mcp"
)

// Duration wraps time.Duration so YAML values like "90s" or "5m" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// CacheConfig enables in-memory caching of identical prompts. A Size of
// zero disables the cache.
type CacheConfig struct {
	Size int      `yaml:"size"`
	TTL  Duration `yaml:"ttl"`
}

// ProviderConfig selects and parameterizes the LLM backend.
type ProviderConfig struct {
	Name   string `yaml:"name"`
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`
	// Host is only used by local backends such as Ollama.
	Host  string      `yaml:"host"`
	Cache CacheConfig `yaml:"cache"`
}

// DispatcherConfig selects how tools are discovered and executed: "mcp"
// (the default) spawns the configured MCP servers, "utcp" connects to the
// tool providers declared in a UTCP providers file.
type DispatcherConfig struct {
	Backend       string `yaml:"backend"`
	ProvidersFile string `yaml:"providers_file"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

// SessionConfig tunes the chat loop.
type SessionConfig struct {
	SystemPrompt  string `yaml:"system_prompt"`
	TokenBudget   int    `yaml:"token_budget"`
	MaxIterations int    `yaml:"max_iterations"`
	GoalDetection bool   `yaml:"goal_detection"`
}

// BudgetConfig caps daily LLM spend in dollars. Zero disables the cap.
type BudgetConfig struct {
	DailyUSD float64 `yaml:"daily_usd"`
}

// LogConfig tunes structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
}

// Config is the root of the YAML file.
type Config struct {
	Provider   ProviderConfig     `yaml:"provider"`
	Dispatcher DispatcherConfig   `yaml:"dispatcher"`
	Servers    []mcp.ServerConfig `yaml:"servers"`
	Store      StoreConfig        `yaml:"store"`
	Session    SessionConfig      `yaml:"session"`
	Budget     BudgetConfig       `yaml:"budget"`
	Log        LogConfig          `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Provider:   ProviderConfig{Name: "dummy", Model: "dummy-1"},
		Dispatcher: DispatcherConfig{Backend: "mcp"},
		Store:      StoreConfig{Backend: "sqlite", DSN: "swarmbot.db"},
		Session: SessionConfig{
			TokenBudget:   8000,
			MaxIterations: 1,
			GoalDetection: false,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file at path and applies environment overrides. A
// missing file is not an error: defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment. Provider API keys
// also fall back to the conventional per-vendor variables.
func (c *Config) applyEnv() {
	setString(&c.Provider.Name, "SWARMBOT_PROVIDER")
	setString(&c.Provider.Model, "SWARMBOT_MODEL")
	setString(&c.Provider.APIKey, "SWARMBOT_API_KEY")
	setString(&c.Provider.Host, "OLLAMA_HOST")
	setString(&c.Dispatcher.Backend, "SWARMBOT_DISPATCHER")
	setString(&c.Store.Backend, "SWARMBOT_STORE")
	setString(&c.Store.DSN, "SWARMBOT_STORE_DSN")
	setString(&c.Log.Level, "SWARMBOT_LOG_LEVEL")
	setFloat(&c.Budget.DailyUSD, "SWARMBOT_DAILY_BUDGET")
	setInt(&c.Session.MaxIterations, "SWARMBOT_MAX_ITERATIONS")
	setBool(&c.Session.GoalDetection, "SWARMBOT_GOAL_DETECTION")

	if c.Provider.APIKey == "" {
		switch c.Provider.Name {
		case "anthropic", "claude":
			c.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			c.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini", "google":
			c.Provider.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

func (c *Config) validate() error {
	switch c.Dispatcher.Backend {
	case "", "mcp", "utcp":
	default:
		return fmt.Errorf("dispatcher.backend %q: must be mcp or utcp", c.Dispatcher.Backend)
	}
	if c.Provider.Cache.Size < 0 {
		return fmt.Errorf("provider.cache.size must not be negative")
	}
	for i, srv := range c.Servers {
		if srv.Name == "" {
			return fmt.Errorf("servers[%d]: name is required", i)
		}
		if srv.Command == "" {
			return fmt.Errorf("server %s: command is required", srv.Name)
		}
	}
	if c.Session.MaxIterations < 0 {
		return fmt.Errorf("session.max_iterations must not be negative")
	}
	if c.Budget.DailyUSD < 0 {
		return fmt.Errorf("budget.daily_usd must not be negative")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
