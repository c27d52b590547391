// Package extract builds article detail payloads straight from article
// pages, for running without the backend's article endpoint.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/japaniel/newsreader/pkg/model"
	"github.com/japaniel/newsreader/pkg/request"
)

// maxBodySize caps how much HTML is read from an untrusted page.
const maxBodySize = 10 * 1024 * 1024

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Source fetches article pages and extracts their readable content.
type Source struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Source) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSource creates a Source.
func NewSource(opts ...Option) *Source {
	s := &Source{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: defaultUserAgent,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Article fetches articleURL and returns its paragraphs and images in the
// same shape as the article endpoint. There are no translations. A page
// that yields no readable content is reported as an unsuccessful response.
func (s *Source) Article(ctx context.Context, articleURL string) (model.ArticleResponse, error) {
	pageURL, err := url.Parse(articleURL)
	if err != nil || !pageURL.IsAbs() {
		return model.ArticleResponse{}, request.Failed(0, fmt.Sprintf("invalid article url %q", articleURL))
	}

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return model.ArticleResponse{}, err
	}

	detail, err := Extract(body, pageURL)
	if err != nil {
		s.logger.Warn("article extraction failed", "url", articleURL, "error", err)
		return model.ArticleResponse{Success: false, Message: err.Error()}, nil
	}
	return model.ArticleResponse{Success: true, Data: &detail}, nil
}

func (s *Source) fetch(ctx context.Context, pageURL *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.8")
	if tok, ok := request.TokenFrom(ctx); ok {
		req.Header.Set("X-Request-ID", tok.ID())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, request.Failed(resp.StatusCode, fmt.Sprintf("fetch %s: %s", pageURL, resp.Status))
	}
	if resp.ContentLength > maxBodySize {
		return nil, request.Failed(0, fmt.Sprintf("content length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) >= maxBodySize {
		return nil, request.Failed(0, fmt.Sprintf("response body exceeded %d bytes", maxBodySize))
	}
	return body, nil
}

// Extract finds the readable paragraphs and the images of an HTML page.
// Paragraphs are the page's <p> elements that readability kept as
// article text; when none match, the readable text is split on lines.
func Extract(body []byte, pageURL *url.URL) (model.ArticleDetail, error) {
	body = SanitizeRuby(body)

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return model.ArticleDetail{}, fmt.Errorf("extract article: %w", err)
	}
	readable := normalize(article.TextContent)
	if readable == "" {
		return model.ArticleDetail{}, fmt.Errorf("extract article: no readable text")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.ArticleDetail{}, fmt.Errorf("parse document: %w", err)
	}

	detail := model.ArticleDetail{
		Paragraphs: paragraphs(doc, readable),
		Images:     images(doc, pageURL),
	}
	if len(detail.Paragraphs) == 0 {
		detail.Paragraphs = lines(article.TextContent)
	}
	return detail, nil
}

func paragraphs(doc *goquery.Document, readable string) []string {
	var out []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := normalize(p.Text())
		if text == "" || !strings.Contains(readable, text) {
			return
		}
		if n := len(out); n > 0 && out[n-1] == text {
			return
		}
		out = append(out, text)
	})
	return out
}

func images(doc *goquery.Document, pageURL *url.URL) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "data:") {
			return
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return
		}
		abs := pageURL.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}

	doc.Find("article img, figure img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, _ = img.Attr("data-src")
		}
		add(src)
	})
	if len(out) == 0 {
		if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
			add(og)
		}
	}
	return out
}

func lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = normalize(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// normalize collapses runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
