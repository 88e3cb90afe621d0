package gather

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/fetch"
	"github.com/ppiankov/corroborate/internal/model"
)

// fetchSleepFunc waits out a retry backoff (overridable in tests)
var fetchSleepFunc = sleepContext

// sleepContext sleeps for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// ResilientFetcher wraps a fetch collaborator with a blacklist, a content
// cache and retries. Its cache and blacklist live as long as the fetcher, so
// they are shared by every run of the engine that owns it.
type ResilientFetcher struct {
	inner     fetch.Fetcher
	cache     cache.Cache // nil disables caching
	ttl       time.Duration
	blacklist *cache.URLSet
	retry     model.RetryConfig
	logger    *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewResilientFetcher creates a fetcher; store may be nil to disable caching
func NewResilientFetcher(inner fetch.Fetcher, store cache.Cache, ttl time.Duration, retry model.RetryConfig, logger *slog.Logger) *ResilientFetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &ResilientFetcher{
		inner:     inner,
		cache:     store,
		ttl:       ttl,
		blacklist: cache.NewURLSet(),
		retry:     retry,
		logger:    logger,
	}
}

// Fetch returns the page for rawURL from cache or the underlying fetcher.
// A URL whose fetch ultimately fails is blacklisted and fails fast afterwards.
func (f *ResilientFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Page, error) {
	if f.blacklist.Has(rawURL) {
		return nil, &model.FetchError{URL: rawURL, Err: model.ErrBlacklisted}
	}

	key := cache.ContentKey(rawURL)
	if f.cache != nil {
		if data, ok := f.cache.Get(key); ok {
			var page fetch.Page
			if err := json.Unmarshal(data, &page); err == nil {
				f.hits.Add(1)
				return &page, nil
			}
		}
	}
	f.misses.Add(1)

	page, err := f.fetchWithRetry(ctx, rawURL)
	if err != nil {
		if ctx.Err() == nil {
			f.blacklist.Add(rawURL)
			f.logger.Debug("url blacklisted", "url", rawURL, "error", err)
		}
		return nil, err
	}

	if f.cache != nil {
		if data, err := json.Marshal(page); err == nil {
			if err := f.cache.Set(key, data, f.ttl); err != nil {
				f.logger.Warn("cache write failed", "url", rawURL, "error", err)
			}
		}
	}

	return page, nil
}

func (f *ResilientFetcher) fetchWithRetry(ctx context.Context, rawURL string) (*fetch.Page, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt < f.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(ctx, f.retry.Backoff(attempt - 1))
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		attempts++
		page, err := f.inner.Fetch(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if !isRetryable(err) {
			break
		}
		f.logger.Debug("fetch failed, retrying", "url", rawURL, "attempt", attempts, "error", err)
	}

	var fe *model.FetchError
	if errors.As(lastErr, &fe) {
		failed := *fe
		failed.Attempts = attempts
		return nil, &failed
	}
	return nil, &model.FetchError{URL: rawURL, Attempts: attempts, Err: lastErr}
}

// isRetryable checks if a fetch error is transient (5xx, 429, timeout, connection refused/reset)
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var fe *model.FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	return (&model.FetchError{Err: err}).Retryable()
}

// Blacklisted reports whether rawURL has permanently failed
func (f *ResilientFetcher) Blacklisted(rawURL string) bool {
	return f.blacklist.Has(rawURL)
}

// CacheHits returns the number of fetches served from cache
func (f *ResilientFetcher) CacheHits() int64 {
	return f.hits.Load()
}
