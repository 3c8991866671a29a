package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joelfuller2016/swarmbot/pkg/store"
)

func newUsageCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Summarize token usage and cost from the store",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			st, err := store.Open(c.Context(), cfg.Store.Backend, cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer st.Close(c.Context())

			to := time.Now()
			from := to.AddDate(0, 0, -days)
			records, err := st.UsageBetween(c.Context(), from, to)
			if err != nil {
				return err
			}

			type bucket struct {
				prompt, completion int
				cost               float64
				calls              int
			}
			perModel := map[string]*bucket{}
			for _, r := range records {
				b := perModel[r.Model]
				if b == nil {
					b = &bucket{}
					perModel[r.Model] = b
				}
				b.prompt += r.PromptTokens
				b.completion += r.CompletionTokens
				b.cost += r.Cost
				b.calls++
			}

			if len(perModel) == 0 {
				fmt.Printf("No usage recorded in the last %d day(s).\n", days)
				return nil
			}
			var total float64
			for model, b := range perModel {
				fmt.Printf("%s: %d calls, %d prompt + %d completion tokens, $%.4f\n",
					model, b.calls, b.prompt, b.completion, b.cost)
				total += b.cost
			}
			fmt.Printf("Total: $%.4f over %d day(s)\n", total, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "how many days back to include")
	return cmd
}
