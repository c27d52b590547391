package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/japaniel/newsreader/pkg/analyzer"
	"github.com/japaniel/newsreader/pkg/api"
	"github.com/japaniel/newsreader/pkg/config"
	"github.com/japaniel/newsreader/pkg/db"
	"github.com/japaniel/newsreader/pkg/dictionary"
	"github.com/japaniel/newsreader/pkg/extract"
	"github.com/japaniel/newsreader/pkg/kv"
	"github.com/japaniel/newsreader/pkg/reader"
	"github.com/japaniel/newsreader/pkg/request"
	"github.com/japaniel/newsreader/pkg/vocab"
)

// app is the wired engine plus everything that needs closing.
type app struct {
	reader  *reader.Reader
	closers []func() error
}

// Close stops the reader first so no write reaches a closed backend.
func (a *app) Close() error {
	a.reader.Close()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// build wires storage, services and the reader from cfg.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		for i := len(a.closers) - 1; i >= 0; i-- {
			_ = a.closers[i]()
		}
		return nil, err
	}

	backend, closeBackend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, closeBackend)

	client, err := api.New(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{}),
		api.WithBreaker(api.BreakerConfig{
			MaxRequests:      cfg.API.Breaker.MaxRequests,
			Interval:         cfg.API.Breaker.Interval,
			Timeout:          cfg.API.Breaker.Timeout,
			FailureThreshold: cfg.API.Breaker.FailureThreshold,
			MinRequests:      cfg.API.Breaker.MinRequests,
		}),
		api.WithLogger(logger),
	)
	if err != nil {
		return fail(fmt.Errorf("api client: %w", err))
	}

	var articles reader.ArticleService = client
	if cfg.Article.Source == "direct" {
		articles = extract.NewSource(extract.WithUserAgent(cfg.Article.UserAgent), extract.WithLogger(logger))
	}

	var words reader.WordAnalyzer = client
	if cfg.Analyzer.Mode == "offline" {
		local, err := newLocalAnalyzer(ctx, cfg.Analyzer, logger)
		if err != nil {
			return fail(err)
		}
		words = local
	}

	store, err := vocab.Open(ctx, backend,
		vocab.WithKey(cfg.Storage.Key),
		vocab.WithDebounce(cfg.Storage.Debounce),
		vocab.WithLogger(logger),
	)
	if err != nil {
		return fail(err)
	}

	r, err := reader.New(reader.Config{
		News:       client,
		Articles:   articles,
		Analyzer:   words,
		Vocabulary: store,
		Requests:   request.NewManager(request.WithLogger(logger)),
		Timeouts: reader.Timeouts{
			News:    cfg.API.NewsTimeout,
			Article: cfg.API.ArticleTimeout,
			Lookup:  cfg.API.LookupTimeout,
		},
		Logger: logger,
	})
	if err != nil {
		store.Close()
		return fail(err)
	}
	a.reader = r
	return a, nil
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (vocab.Backend, func() error, error) {
	switch cfg.Driver {
	case "sqlite":
		conn, err := db.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db.NewSlotStore(conn), conn.Close, nil
	case "redis":
		r, err := kv.ConnectRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case "memory":
		return kv.NewMemory(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newLocalAnalyzer(ctx context.Context, cfg config.AnalyzerConfig, logger *slog.Logger) (*analyzer.Local, error) {
	if cfg.AutoDownload {
		d := &dictionary.Downloader{Logger: logger}
		if err := d.Ensure(ctx, cfg.DictionaryPath); err != nil {
			return nil, fmt.Errorf("ensure dictionary: %w", err)
		}
	}
	entries, err := dictionary.LoadJMdictSimplified(cfg.DictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("load dictionary %s: %w", cfg.DictionaryPath, err)
	}
	logger.Info("dictionary loaded", "entries", len(entries), "path", cfg.DictionaryPath)

	tok, err := analyzer.NewTokenizer()
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}
	return analyzer.NewLocal(tok, dictionary.NewIndex(entries)), nil
}
