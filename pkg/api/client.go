package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/japaniel/newsreader/pkg/model"
	"github.com/japaniel/newsreader/pkg/request"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 10 * 1024 * 1024

// errNotCounted marks failures the breaker must not count against the service.
var errNotCounted = errors.New("not counted")

// BreakerConfig tunes the circuit breaker around word analysis.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips after 5 requests with an 80% failure rate.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Client talks to the news, article and word-analysis endpoints.
type Client struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	breaker    BreakerConfig
	logger     *slog.Logger
}

// WithHTTPClient replaces the HTTP client. Timeouts are applied per call by
// the request manager, so the client itself needs none.
func WithHTTPClient(h *http.Client) Option { return func(o *clientOptions) { o.httpClient = h } }

// WithBreaker sets the circuit breaker settings.
func WithBreaker(cfg BreakerConfig) Option { return func(o *clientOptions) { o.breaker = cfg } }

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	o := clientOptions{
		httpClient: &http.Client{},
		breaker:    DefaultBreakerConfig(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Client{base: base, http: o.httpClient, logger: o.logger}
	c.breaker = newBreaker("analyze-word", o.breaker, o.logger)
	return c, nil
}

func newBreaker(name string, cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotCounted)
		},
	})
}

// News fetches the article list. A successful response without data yields an empty list.
func (c *Client) News(ctx context.Context) (model.NewsResponse, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/news", nil, nil)
	if err != nil {
		return model.NewsResponse{}, err
	}
	res := model.NewsResponse{Success: env.Success, Message: env.Message, Data: []model.Article{}}
	if env.HasData() {
		if err := json.Unmarshal(env.Data, &res.Data); err != nil {
			return model.NewsResponse{}, fmt.Errorf("decode news: %w: %v", request.ErrMalformedResponse, err)
		}
	}
	return res, nil
}

// Article fetches the paragraphs, translations and images of the article at articleURL.
func (c *Client) Article(ctx context.Context, articleURL string) (model.ArticleResponse, error) {
	q := url.Values{"url": []string{articleURL}}
	env, err := c.do(ctx, http.MethodGet, "/api/article", q, nil)
	if err != nil {
		return model.ArticleResponse{}, err
	}
	res := model.ArticleResponse{Success: env.Success, Message: env.Message}
	if env.HasData() {
		var detail model.ArticleDetail
		if err := json.Unmarshal(env.Data, &detail); err != nil {
			return model.ArticleResponse{}, fmt.Errorf("decode article: %w: %v", request.ErrMalformedResponse, err)
		}
		res.Data = &detail
	}
	return res, nil
}

// AnalyzeWord asks the analysis service about a word. Calls go through a
// circuit breaker; while it is open they fail immediately.
func (c *Client) AnalyzeWord(ctx context.Context, req model.LookupRequest) (model.LookupResponse, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		res, err := c.analyzeWord(ctx, req)
		if err != nil && ctx.Err() != nil && !errors.Is(context.Cause(ctx), request.ErrTimeout) {
			// Cancelled by the caller, not the service's fault.
			return nil, fmt.Errorf("%w: %w", errNotCounted, err)
		}
		return res, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return model.LookupResponse{}, &request.RequestFailedError{
			Status:  http.StatusServiceUnavailable,
			Message: "word analysis temporarily unavailable",
			Err:     err,
		}
	}
	if err != nil {
		return model.LookupResponse{}, err
	}
	return out.(model.LookupResponse), nil
}

func (c *Client) analyzeWord(ctx context.Context, req model.LookupRequest) (model.LookupResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return model.LookupResponse{}, fmt.Errorf("encode lookup request: %w", err)
	}
	env, err := c.do(ctx, http.MethodPost, "/api/analyze/word", nil, body)
	if err != nil {
		return model.LookupResponse{}, err
	}
	res := model.LookupResponse{Success: env.Success, Message: env.Message}
	if env.HasData() {
		var result model.LookupResult
		if err := json.Unmarshal(env.Data, &result); err != nil {
			return model.LookupResponse{}, fmt.Errorf("decode lookup: %w: %v", request.ErrMalformedResponse, err)
		}
		res.Data = &result
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (model.Envelope, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return model.Envelope{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok, ok := request.TokenFrom(ctx); ok {
		req.Header.Set("X-Request-ID", tok.ID())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return model.Envelope{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return model.Envelope{}, fmt.Errorf("read %s response: %w", path, err)
	}
	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	var env model.Envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		return model.Envelope{}, request.Failed(resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return model.Envelope{}, fmt.Errorf("decode %s response: %w: %v", path, request.ErrMalformedResponse, decodeErr)
	}
	return env, nil
}
