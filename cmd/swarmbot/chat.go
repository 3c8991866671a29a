package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	utcp "github.com/universal-tool-calling-protocol/go-utcp"
	"go.uber.org/zap"

	"github.com/joelfuller2016/swarmbot/pkg/config"
	"github.com/joelfuller2016/swarmbot/pkg/dispatch"
	"github.com/joelfuller2016/swarmbot/pkg/mcp"
	"github.com/joelfuller2016/swarmbot/pkg/models"
	"github.com/joelfuller2016/swarmbot/pkg/session"
	"github.com/joelfuller2016/swarmbot/pkg/store"
	"github.com/joelfuller2016/swarmbot/pkg/usage"
)

// defaultCacheTTL applies when the cache is enabled without an explicit TTL.
const defaultCacheTTL = 5 * time.Minute

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runChat(cmd.Context(), cfg, logger)
		},
	}
}

func runChat(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	provider, err := buildProvider(ctx, cfg.Provider)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Store.Backend, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	dispatcher, cleanup, err := buildDispatcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sess, err := session.New(session.Options{
		Provider:      provider,
		Dispatcher:    dispatcher,
		SystemPrompt:  cfg.Session.SystemPrompt,
		TokenBudget:   cfg.Session.TokenBudget,
		MaxIterations: cfg.Session.MaxIterations,
		GoalDetection: cfg.Session.GoalDetection,
		Logger:        logger,
		Store:         st,
	})
	if err != nil {
		return err
	}

	budget := usage.NewBudgetTracker(st, cfg.Budget.DailyUSD)

	fmt.Printf("SwarmBot ready (provider %s, model %s). Type 'help' for commands.\n",
		provider.Name(), provider.Model())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done, handled := handleLocalCommand(ctx, line, dispatcher, budget); handled {
			if done {
				return nil
			}
			continue
		}

		if budgetBlocked(ctx, budget, logger) {
			fmt.Println("Daily budget exhausted; raise budget.daily_usd or wait for tomorrow.")
			continue
		}

		result, err := sess.ProcessTurn(ctx, line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		for _, inv := range result.Invocations {
			status := "ok"
			if !inv.OK {
				status = "failed"
			}
			fmt.Printf("  [tool %s %s in %s]\n", inv.Tool, status, inv.Duration.Round(time.Millisecond))
		}
		fmt.Println(result.Reply)
	}
}

// buildProvider constructs the LLM backend, wrapping it in the prompt cache
// when provider.cache.size is set.
func buildProvider(ctx context.Context, cfg config.ProviderConfig) (models.Provider, error) {
	exportProviderEnv(cfg)
	provider, err := models.NewProvider(ctx, cfg.Name, cfg.Model, "")
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Size > 0 {
		ttl := time.Duration(cfg.Cache.TTL)
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		provider = models.NewCachedLLM(provider, cfg.Cache.Size, ttl)
	}
	return provider, nil
}

// buildDispatcher selects the tool transport: MCP server subprocesses (the
// default) or a UTCP client driven by a providers file. The returned cleanup
// func releases whatever the dispatcher holds open.
func buildDispatcher(ctx context.Context, cfg config.Config, logger *zap.Logger) (dispatch.Dispatcher, func(), error) {
	switch cfg.Dispatcher.Backend {
	case "utcp":
		client, err := utcp.NewUTCPClient(ctx, &utcp.UtcpClientConfig{
			ProvidersFilePath: cfg.Dispatcher.ProvidersFile,
		}, nil, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("utcp client: %w", err)
		}
		return dispatch.NewUTCPDispatcher(client), func() {}, nil
	default:
		manager := mcp.NewManager(logger)
		for _, srv := range cfg.Servers {
			if err := manager.StartServer(ctx, srv); err != nil {
				// A dead server is not fatal; its tools are simply absent.
				logger.Warn("server unavailable", zap.String("server", srv.Name), zap.Error(err))
			}
		}
		return manager, func() { manager.Close() }, nil
	}
}

// budgetBlocked reports whether the turn should be refused for budget
// reasons. A failing store fails open, but loudly.
func budgetBlocked(ctx context.Context, budget *usage.BudgetTracker, logger *zap.Logger) bool {
	over, err := budget.Exceeded(ctx)
	if err != nil {
		logger.Warn("budget check failed", zap.Error(err))
		return false
	}
	return over
}

// handleLocalCommand intercepts non-tool commands. Returns (quit, handled).
func handleLocalCommand(ctx context.Context, line string, dispatcher dispatch.Dispatcher, budget *usage.BudgetTracker) (bool, bool) {
	switch strings.ToLower(line) {
	case "quit", "exit":
		return true, true
	case "help":
		fmt.Println("Commands: help, tools, usage, quit")
		fmt.Println("Anything else is sent to the assistant.")
		return false, true
	case "tools":
		catalog, err := dispatcher.Catalog(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return false, true
		}
		if len(catalog) == 0 {
			fmt.Println("No tools available.")
			return false, true
		}
		for _, tool := range catalog {
			fmt.Printf("  %s - %s\n", tool.Name, tool.Description)
		}
		return false, true
	case "usage":
		spent, err := budget.SpentToday(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return false, true
		}
		fmt.Printf("Spent today: $%.4f\n", spent)
		if left, enabled, err := budget.Remaining(ctx); err == nil && enabled {
			fmt.Printf("Remaining budget: $%.4f\n", left)
		}
		return false, true
	default:
		return false, false
	}
}

// exportProviderEnv bridges file-configured settings to the env vars the
// provider SDKs read.
func exportProviderEnv(p config.ProviderConfig) {
	if p.Host != "" {
		os.Setenv("OLLAMA_HOST", p.Host)
	}
	if p.APIKey == "" {
		return
	}
	switch p.Name {
	case "anthropic", "claude":
		os.Setenv("ANTHROPIC_API_KEY", p.APIKey)
	case "openai":
		os.Setenv("OPENAI_API_KEY", p.APIKey)
	case "gemini", "google":
		os.Setenv("GEMINI_API_KEY", p.APIKey)
	}
}
