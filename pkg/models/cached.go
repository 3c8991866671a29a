package models

import (
	"context"
	"time"

	"github.com/joelfuller2016/swarmbot/pkg/cache"
)

// CachedLLM wraps a Provider and caches Generate calls by prompt hash.
// Repeated identical prompts within the TTL are served from memory and
// consume no tokens.
type CachedLLM struct {
	Provider Provider
	Cache    *cache.LRU
}

// NewCachedLLM creates a caching wrapper around the given provider.
func NewCachedLLM(provider Provider, size int, ttl time.Duration) *CachedLLM {
	return &CachedLLM{
		Provider: provider,
		Cache:    cache.NewLRU(size, ttl),
	}
}

func (c *CachedLLM) Name() string  { return c.Provider.Name() }
func (c *CachedLLM) Model() string { return c.Provider.Model() }

// Generate checks the cache before calling the underlying provider. Cache
// hits report zero usage since no tokens were spent.
func (c *CachedLLM) Generate(ctx context.Context, prompt string) (Completion, error) {
	key := cache.HashKey(prompt)
	if val, ok := c.Cache.Get(key); ok {
		if completion, ok := val.(Completion); ok {
			completion.Usage = TokenUsage{}
			return completion, nil
		}
	}

	completion, err := c.Provider.Generate(ctx, prompt)
	if err != nil {
		return Completion{}, err
	}

	c.Cache.Set(key, completion)
	return completion, nil
}

var _ Provider = (*CachedLLM)(nil)
