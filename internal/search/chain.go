package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ppiankov/corroborate/internal/cache"
)

// Chain tries providers in priority order; the first non-empty success wins.
// When none succeed the fallback provider (if any) is used and the outcome is
// marked degraded.
type Chain struct {
	providers []Provider
	fallback  Provider
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewChain creates a provider chain; fallback may be nil
func NewChain(providers []Provider, fallback Provider, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Chain{
		providers: providers,
		fallback:  fallback,
		logger:    logger,
	}
}

// WithCache caches successful non-degraded outcomes per query and limit
func (c *Chain) WithCache(store cache.Cache, ttl time.Duration) *Chain {
	c.cache = store
	c.cacheTTL = ttl
	return c
}

// Search runs the chain. The only error returned is context cancellation.
func (c *Chain) Search(ctx context.Context, query string, limit int) (Outcome, error) {
	key := cache.Key(cache.NamespaceSearch, fmt.Sprintf("%d|%s", limit, query))
	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			var cached Outcome
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var out Outcome
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		results, err := p.Search(ctx, query, limit)
		if err != nil {
			c.logger.Warn("search provider failed", "provider", p.Name(), "error", err)
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		if len(results) == 0 {
			c.logger.Debug("search provider returned no results", "provider", p.Name())
			continue
		}

		out.Results = truncate(results, limit)
		out.Provider = p.Name()
		if c.cache != nil {
			if data, err := json.Marshal(out); err == nil {
				_ = c.cache.Set(key, data, c.cacheTTL)
			}
		}
		return out, nil
	}

	if c.fallback == nil {
		out.Provider = "none"
		return out, ctx.Err()
	}

	results, err := c.fallback.Search(ctx, query, limit)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", c.fallback.Name(), err))
		out.Provider = "none"
		return out, ctx.Err()
	}

	c.logger.Warn("all search providers failed, using synthetic fallback", "query", query)
	out.Results = truncate(results, limit)
	out.Provider = c.fallback.Name()
	out.Degraded = true
	return out, nil
}

func truncate(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
