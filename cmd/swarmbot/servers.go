package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joelfuller2016/swarmbot/pkg/mcp"
)

func newServersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Inspect configured MCP tool servers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the servers in the config file",
		RunE: func(*cobra.Command, []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if len(cfg.Servers) == 0 {
				fmt.Println("No servers configured.")
				return nil
			}
			for _, srv := range cfg.Servers {
				fmt.Printf("%s: %s %s\n", srv.Name, srv.Command, strings.Join(srv.Args, " "))
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "Start each server and list the tools it exposes",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			manager := mcp.NewManager(logger)
			defer manager.Close()
			for _, srv := range cfg.Servers {
				if err := manager.StartServer(c.Context(), srv); err != nil {
					logger.Warn("server unavailable", zap.String("server", srv.Name), zap.Error(err))
				}
			}
			catalog, err := manager.Catalog(c.Context())
			if err != nil {
				return err
			}
			if len(catalog) == 0 {
				fmt.Println("No tools discovered.")
				return nil
			}
			for _, tool := range catalog {
				fmt.Printf("%s - %s\n", tool.Name, tool.Description)
				names := make([]string, 0, len(tool.Parameters))
				for name := range tool.Parameters {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					p := tool.Parameters[name]
					req := ""
					if p.Required {
						req = " (required)"
					}
					fmt.Printf("    %s: %s%s\n", name, p.Type, req)
				}
			}
			return nil
		},
	})
	return cmd
}
