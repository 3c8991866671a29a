package usage

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/joelfuller2016/swarmbot/pkg/store"
)

func TestCostKnownModel(t *testing.T) {
	// gpt-4o-mini: $0.15 / $0.60 per million tokens.
	got := Cost("gpt-4o-mini", 1_000_000, 1_000_000)
	want := 0.15 + 0.60
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Cost = %v, want %v", got, want)
	}
}

func TestCostLongestPrefixWins(t *testing.T) {
	// "gpt-4o-mini-2024-07-18" must price as gpt-4o-mini, not gpt-4o.
	got := Cost("gpt-4o-mini-2024-07-18", 1_000_000, 0)
	if math.Abs(got-0.15) > 1e-9 {
		t.Errorf("Cost = %v, want 0.15", got)
	}
}

func TestCostUnknownModelIsFree(t *testing.T) {
	if got := Cost("llama3.2", 5000, 5000); got != 0 {
		t.Errorf("unknown model should cost 0, got %v", got)
	}
}

func TestLookupPricingCaseInsensitive(t *testing.T) {
	if _, ok := LookupPricing("GPT-4o"); !ok {
		t.Error("lookup should be case-insensitive")
	}
}

func newTrackerAt(t *testing.T, dailyUSD float64, now time.Time, costs ...float64) *BudgetTracker {
	t.Helper()
	s := NewMemoryWithCosts(t, now, costs...)
	tr := NewBudgetTracker(s, dailyUSD)
	tr.now = func() time.Time { return now }
	return tr
}

// NewMemoryWithCosts seeds a memory store with one usage record per cost,
// all timestamped one minute before now.
func NewMemoryWithCosts(t *testing.T, now time.Time, costs ...float64) store.Store {
	t.Helper()
	s := store.NewMemoryStore()
	for _, c := range costs {
		err := s.LogUsage(context.Background(), store.Usage{
			SessionID: "s1",
			Provider:  "openai",
			Model:     "gpt-4o",
			Cost:      c,
			CreatedAt: now.Add(-time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestBudgetTrackerRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	tr := newTrackerAt(t, 10.0, now, 2.5, 1.5)

	left, enabled, err := tr.Remaining(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !enabled {
		t.Fatal("budget should be enabled")
	}
	if math.Abs(left-6.0) > 1e-9 {
		t.Errorf("Remaining = %v, want 6.0", left)
	}
}

func TestBudgetTrackerExceeded(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	tr := newTrackerAt(t, 3.0, now, 2.0, 1.5)

	over, err := tr.Exceeded(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !over {
		t.Error("3.5 spent against a 3.0 budget should be exceeded")
	}
}

func TestBudgetTrackerDisabled(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	tr := newTrackerAt(t, 0, now, 100.0)

	if _, enabled, _ := tr.Remaining(context.Background()); enabled {
		t.Error("zero budget should disable enforcement")
	}
	if over, _ := tr.Exceeded(context.Background()); over {
		t.Error("disabled budget is never exceeded")
	}
}

func TestBudgetTrackerIgnoresYesterday(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 30, 0, 0, time.UTC)
	s := store.NewMemoryStore()
	// Yesterday's record falls before local midnight.
	err := s.LogUsage(context.Background(), store.Usage{Cost: 50, CreatedAt: now.Add(-2 * time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	tr := NewBudgetTracker(s, 10.0)
	tr.now = func() time.Time { return now }

	spent, err := tr.SpentToday(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if spent != 0 {
		t.Errorf("yesterday's spend leaked into today: %v", spent)
	}
}
