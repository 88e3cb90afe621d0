package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/credibility"
	"github.com/ppiankov/corroborate/internal/fetch"
	"github.com/ppiankov/corroborate/internal/gather"
	"github.com/ppiankov/corroborate/internal/llm"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/search"
	"github.com/ppiankov/corroborate/internal/verify"
	"github.com/ppiankov/corroborate/internal/worker"
)

const cacheCleanupInterval = 10 * time.Minute

// app holds the collaborators shared by the commands of one invocation
type app struct {
	cfg         *model.Config
	logger      *slog.Logger
	content     cache.Cache
	limiter     *worker.Limiter
	robots      *fetch.RobotsChecker
	searcher    *search.Chain
	credibility *credibility.Scorer
	store       verify.Store
	narrator    verify.Narrator

	closers []func() error
}

// newApp wires the configured stack. Close releases files and databases.
func newApp(cfg *model.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:         cfg,
		logger:      logger,
		limiter:     worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst),
		credibility: credibility.NewScorer(cfg.Credibility.DomainScores),
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.Layered {
			layered := cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir)
			if n, err := layered.Prune(); err != nil {
				logger.Warn("prune disk cache", "dir", cfg.Cache.Dir, "error", err)
			} else if n > 0 {
				logger.Debug("pruned disk cache", "removed", n)
			}
			a.content = layered
		} else {
			a.content = cache.NewMemoryCache(cfg.Cache.TTL, cacheCleanupInterval)
		}
	}
	if cfg.HTTP.RespectRobots {
		a.robots = fetch.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	a.searcher = search.NewChain(searchProviders(cfg), search.NewSyntheticProvider(), logger)
	if a.content != nil {
		a.searcher = a.searcher.WithCache(a.content, cfg.Cache.TTL)
	}

	switch cfg.Verify.Store {
	case "sqlite":
		s, err := verify.OpenSQLite(cfg.Verify.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.store = s
		a.closers = append(a.closers, s.Close)
	default:
		a.store = verify.NewMemoryStore()
	}

	if cfg.Verify.Narrate && cfg.LLM.Provider != "" {
		n, err := llm.NewNarrator(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("configure narrator: %w", err)
		}
		a.narrator = n
	}

	return a, nil
}

func searchProviders(cfg *model.Config) []search.Provider {
	var providers []search.Provider
	for _, name := range cfg.Search.Providers {
		switch strings.ToLower(name) {
		case "wikipedia":
			providers = append(providers, search.NewWikipediaProvider(cfg.Search.WikipediaEndpoint, cfg.HTTP.UserAgent, cfg.Search.Timeout))
		case "rss":
			providers = append(providers, search.NewRSSProvider(cfg.Search.RSSURLTemplate, cfg.HTTP.UserAgent, cfg.Search.Timeout))
		}
	}
	return providers
}

// newEngine builds a gather engine over the shared cache, limiter and robots gate.
// Engines run one session at a time, so concurrent callers each need their own.
func (a *app) newEngine() *gather.Engine {
	opts := fetch.OptionsFromConfig(a.cfg.HTTP)
	opts.Limiter = a.limiter
	opts.Robots = a.robots

	return gather.NewEngine(gather.Options{
		Searcher: a.searcher,
		Fetcher:  fetch.NewHTTPFetcher(opts),
		Cache:    a.content,
		CacheTTL: a.cfg.Cache.TTL,
		Retry:    a.cfg.Retry,
		Workers:  a.cfg.Concurrency.FetchWorkers,
		Logger:   a.logger,
	})
}

// newOrchestrator builds a verifier over a fresh engine and the shared store
func (a *app) newOrchestrator() *verify.Orchestrator {
	return verify.New(verify.Options{
		Gatherer:    a.newEngine(),
		Searcher:    a.searcher,
		Credibility: a.credibility,
		Store:       a.store,
		Narrator:    a.narrator,
		Research:    a.cfg.Research,
		Logger:      a.logger,
	})
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// bootstrap loads configuration, logging and the app for a command
func bootstrap() (*app, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.Warn("close", "error", err)
		}
		_ = closeLog()
	}
	return a, cleanup, nil
}
