// Package usage converts token counts into dollar cost and tracks spend
// against a configurable budget.
package usage

import (
	"context"
	"strings"
	"time"

	"github.com/joelfuller2016/swarmbot/pkg/store"
)

// Pricing is the per-million-token price of a model.
type Pricing struct {
	PromptUSD     float64
	CompletionUSD float64
}

// priceTable maps model name prefixes to pricing. Longest prefix wins.
// Prices are USD per million tokens.
var priceTable = map[string]Pricing{
	"claude-3-5-haiku": {PromptUSD: 0.80, CompletionUSD: 4.00},
	"claude-sonnet-4":  {PromptUSD: 3.00, CompletionUSD: 15.00},
	"claude-opus-4":    {PromptUSD: 15.00, CompletionUSD: 75.00},
	"gpt-4o-mini":      {PromptUSD: 0.15, CompletionUSD: 0.60},
	"gpt-4o":           {PromptUSD: 2.50, CompletionUSD: 10.00},
	"gpt-4.1":          {PromptUSD: 2.00, CompletionUSD: 8.00},
	"gemini-2.5-flash": {PromptUSD: 0.30, CompletionUSD: 2.50},
	"gemini-2.5-pro":   {PromptUSD: 1.25, CompletionUSD: 10.00},
	"gemini-2.0-flash": {PromptUSD: 0.10, CompletionUSD: 0.40},
}

// LookupPricing resolves pricing for a model by longest matching prefix.
// Unknown models (including local Ollama models) price at zero.
func LookupPricing(model string) (Pricing, bool) {
	model = strings.ToLower(model)
	var best string
	var found Pricing
	for prefix, p := range priceTable {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
			found = p
		}
	}
	return found, best != ""
}

// Cost returns the dollar cost of a round-trip against the given model.
func Cost(model string, promptTokens, completionTokens int) float64 {
	p, ok := LookupPricing(model)
	if !ok {
		return 0
	}
	const million = 1_000_000
	return float64(promptTokens)*p.PromptUSD/million +
		float64(completionTokens)*p.CompletionUSD/million
}

// BudgetTracker answers spend questions against a daily dollar budget using
// the persisted usage log.
type BudgetTracker struct {
	store    store.Store
	dailyUSD float64
	now      func() time.Time
}

// NewBudgetTracker builds a tracker. A dailyUSD of zero or less disables
// budget enforcement.
func NewBudgetTracker(s store.Store, dailyUSD float64) *BudgetTracker {
	return &BudgetTracker{store: s, dailyUSD: dailyUSD, now: time.Now}
}

// SpentSince sums the cost of all usage records from t to now.
func (b *BudgetTracker) SpentSince(ctx context.Context, t time.Time) (float64, error) {
	records, err := b.store.UsageBetween(ctx, t, b.now())
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range records {
		total += r.Cost
	}
	return total, nil
}

// SpentToday sums today's spend, with the day boundary at local midnight.
func (b *BudgetTracker) SpentToday(ctx context.Context) (float64, error) {
	now := b.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return b.SpentSince(ctx, midnight)
}

// Remaining returns the dollars left in today's budget, floored at zero.
// The second return is false when no budget is configured.
func (b *BudgetTracker) Remaining(ctx context.Context) (float64, bool, error) {
	if b.dailyUSD <= 0 {
		return 0, false, nil
	}
	spent, err := b.SpentToday(ctx)
	if err != nil {
		return 0, true, err
	}
	left := b.dailyUSD - spent
	if left < 0 {
		left = 0
	}
	return left, true, nil
}

// Exceeded reports whether today's spend meets or exceeds the budget.
func (b *BudgetTracker) Exceeded(ctx context.Context) (bool, error) {
	if b.dailyUSD <= 0 {
		return false, nil
	}
	spent, err := b.SpentToday(ctx)
	if err != nil {
		return false, err
	}
	return spent >= b.dailyUSD, nil
}
