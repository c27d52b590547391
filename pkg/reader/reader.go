// Package reader owns the application state of the news reader: the news
// list, the open article, the selection and lookup lifecycle, highlights
// and the vocabulary list.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/japaniel/newsreader/pkg/highlight"
	"github.com/japaniel/newsreader/pkg/model"
	"github.com/japaniel/newsreader/pkg/request"
	"github.com/japaniel/newsreader/pkg/selection"
	"github.com/japaniel/newsreader/pkg/vocab"
)

// ErrNoSelection is returned by Lookup when nothing is selected.
var ErrNoSelection = errors.New("reader: no text selected")

// Timeouts bound each kind of request.
type Timeouts struct {
	News    time.Duration
	Article time.Duration
	Lookup  time.Duration
}

// DefaultTimeouts returns 60s for the list and article detail and 10s for lookups.
func DefaultTimeouts() Timeouts {
	return Timeouts{News: 60 * time.Second, Article: 60 * time.Second, Lookup: 10 * time.Second}
}

// Config wires a Reader. News, Articles, Analyzer and Vocabulary are required.
type Config struct {
	News       NewsService
	Articles   ArticleService
	Analyzer   WordAnalyzer
	Vocabulary *vocab.Store

	// Requests defaults to a fresh manager.
	Requests *request.Manager
	// Zero fields fall back to DefaultTimeouts.
	Timeouts Timeouts
	Logger   *slog.Logger
}

// Reader is the single owner of application state. It is safe for
// concurrent use; fetches run on the caller's goroutine and apply their
// results under the Reader's lock.
type Reader struct {
	news     NewsService
	articles ArticleService
	analyzer WordAnalyzer
	vocab    *vocab.Store
	requests *request.Manager
	timeouts Timeouts
	logger   *slog.Logger

	highlights *highlight.Set
	tracker    *selection.Tracker

	mu    sync.Mutex
	state State
	// Sequence numbers of the latest article open and lookup; a result
	// is applied only when its number is still current.
	articleSeq uint64
	lookupSeq  uint64
}

// New builds a Reader from cfg.
func New(cfg Config) (*Reader, error) {
	if cfg.News == nil || cfg.Articles == nil || cfg.Analyzer == nil {
		return nil, errors.New("reader: news, article and analyzer services are required")
	}
	if cfg.Vocabulary == nil {
		return nil, errors.New("reader: vocabulary store is required")
	}
	r := &Reader{
		news:       cfg.News,
		articles:   cfg.Articles,
		analyzer:   cfg.Analyzer,
		vocab:      cfg.Vocabulary,
		requests:   cfg.Requests,
		timeouts:   withDefaults(cfg.Timeouts),
		logger:     cfg.Logger,
		highlights: highlight.NewSet(),
	}
	if r.requests == nil {
		r.requests = request.NewManager(request.WithLogger(cfg.Logger))
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.tracker = selection.NewTracker(r)
	return r, nil
}

func withDefaults(t Timeouts) Timeouts {
	d := DefaultTimeouts()
	if t.News > 0 {
		d.News = t.News
	}
	if t.Article > 0 {
		d.Article = t.Article
	}
	if t.Lookup > 0 {
		d.Lookup = t.Lookup
	}
	return d
}

// Snapshot returns a copy of the current state.
func (r *Reader) Snapshot() State {
	r.mu.Lock()
	s := r.state
	s.News = append([]model.Article(nil), r.state.News...)
	if r.state.Article != nil {
		a := *r.state.Article
		a.ContentStructure = append([]model.ContentBlock(nil), a.ContentStructure...)
		s.Article = &a
	}
	if r.state.Result != nil {
		res := *r.state.Result
		s.Result = &res
	}
	r.mu.Unlock()

	s.Highlights = r.highlights.Words()
	s.Vocabulary = r.vocab.Entries()
	return s
}

// Tracker returns the selection tracker that feeds this Reader.
func (r *Reader) Tracker() *selection.Tracker { return r.tracker }

// LoadNews fetches the article list. Failures are recorded as the list
// error and also returned; a superseded fetch returns request.ErrCancelled
// and leaves state alone.
func (r *Reader) LoadNews(ctx context.Context) error {
	r.mu.Lock()
	r.state.Loading = true
	r.state.ListError = ""
	r.mu.Unlock()

	resp, err := request.Run(ctx, r.requests, request.SlotNews, r.timeouts.News, r.news.News)
	if request.IsCancelled(err) {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Loading = false

	switch {
	case errors.Is(err, request.ErrTimeout):
		r.state.ListError = msgTimeout
	case err != nil:
		r.state.ListError = msgNewsFailedPfx + failureMessage(err)
	case !resp.Success:
		msg := resp.Message
		if msg == "" {
			msg = msgNewsFailed
		}
		r.state.ListError = msg
		err = request.Failed(0, msg)
	default:
		r.state.News = resp.Data
		if r.state.News == nil {
			r.state.News = []model.Article{}
		}
		return nil
	}
	r.logger.Warn("load news failed", "error", err)
	return err
}

// Retry re-issues the news fetch.
func (r *Reader) Retry(ctx context.Context) error { return r.LoadNews(ctx) }

// OpenArticle fetches the detail of item and makes it the current article.
// A newer OpenArticle or BackToList supersedes this one, in which case
// request.ErrCancelled is returned and nothing changes. Other failures
// still open the article, with an error message as its content.
func (r *Reader) OpenArticle(ctx context.Context, item model.Article) (model.Article, error) {
	r.mu.Lock()
	r.articleSeq++
	seq := r.articleSeq
	r.state.Loading = true
	r.mu.Unlock()

	fetch := func(ctx context.Context) (model.ArticleResponse, error) {
		return r.articles.Article(ctx, item.URL)
	}
	resp, err := request.Run(ctx, r.requests, request.SlotArticle, r.timeouts.Article, fetch)
	if request.IsCancelled(err) {
		return model.Article{}, err
	}

	article := item
	switch {
	case errors.Is(err, request.ErrTimeout):
		article.ContentStructure = errorContent(msgArticleTimeout)
	case err != nil:
		article.ContentStructure = errorContent(failureMessage(err))
	case !resp.Success || resp.Data == nil:
		msg := resp.Message
		if msg == "" {
			msg = msgArticleFailed
		}
		article.ContentStructure = errorContent(msg)
		err = request.Failed(0, msg)
	default:
		article.ContentStructure = BuildContent(*resp.Data)
	}
	if err != nil {
		r.logger.Warn("load article failed", "url", item.URL, "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.articleSeq {
		return model.Article{}, request.ErrCancelled
	}
	// A lookup started against the previous article no longer applies.
	r.requests.Cancel(request.SlotLookup)
	r.lookupSeq++
	r.state.Loading = false
	r.state.Article = &article
	r.state.clearSelection()
	return article, err
}

// BackToList closes the current article and cancels its pending fetches.
func (r *Reader) BackToList() {
	r.requests.Cancel(request.SlotArticle)
	r.requests.Cancel(request.SlotLookup)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.articleSeq++
	r.lookupSeq++
	r.state.Article = nil
	r.state.Loading = false
	r.state.clearSelection()
}

// ShowAffordance records a non-empty selection and shows the lookup
// control at its anchor. It implements selection.Listener.
func (r *Reader) ShowAffordance(sel model.Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sel.Text == "" {
		r.hideLocked()
		return
	}
	r.state.SelectedText = sel.Text
	r.state.Affordance = Affordance{Visible: true, Anchor: sel.Anchor}
	if r.state.Phase != PhaseAwaitingResult {
		r.state.Result = nil
		r.state.Phase = PhaseSelecting
	}
}

// HideAffordance hides the lookup control and the displayed result. It
// implements selection.Listener.
func (r *Reader) HideAffordance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hideLocked()
}

func (r *Reader) hideLocked() {
	r.state.Affordance = Affordance{}
	r.state.Result = nil
	if r.state.Phase != PhaseAwaitingResult {
		r.state.SelectedText = ""
		r.state.Phase = PhaseIdle
	}
}

// Select feeds a selection event through the tracker.
func (r *Reader) Select(ev selection.Event) (model.Selection, bool) {
	return r.tracker.SelectionEnd(ev)
}

// Lookup analyzes the selected text. Any failure of the analysis service,
// including a timeout, resolves to FallbackResult; both paths highlight
// the word and add it to the vocabulary. A lookup superseded by another
// lookup, BackToList or OpenArticle returns request.ErrCancelled without
// side effects.
func (r *Reader) Lookup(ctx context.Context) (model.LookupResult, error) {
	r.mu.Lock()
	word := r.state.SelectedText
	if word == "" {
		r.mu.Unlock()
		return model.LookupResult{}, ErrNoSelection
	}
	req := model.LookupRequest{Word: word, Context: ContextFor(r.state.Article, word)}
	var title string
	if a := r.state.Article; a != nil {
		req.SourceArticleID = a.ID
		title = a.Title
	}
	r.lookupSeq++
	seq := r.lookupSeq
	r.state.Phase = PhaseAwaitingResult
	r.state.Affordance = Affordance{}
	r.state.Result = nil
	r.mu.Unlock()

	analyze := func(ctx context.Context) (model.LookupResponse, error) {
		return r.analyzer.AnalyzeWord(ctx, req)
	}
	resp, err := request.Run(ctx, r.requests, request.SlotLookup, r.timeouts.Lookup, analyze)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.lookupSeq {
		return model.LookupResult{}, request.ErrCancelled
	}
	if request.IsCancelled(err) {
		// Cancelled from outside, e.g. by the caller's context.
		r.state.Phase = PhaseIdle
		return model.LookupResult{}, err
	}

	var result model.LookupResult
	switch {
	case err != nil:
		r.logger.Warn("word lookup failed, using placeholder", "word", word, "error", err)
		result = FallbackResult(word)
	case !resp.Success || resp.Data == nil:
		r.logger.Warn("word lookup unsuccessful, using placeholder", "word", word, "message", resp.Message)
		result = FallbackResult(word)
	default:
		result = *resp.Data
	}

	r.highlights.Add(word)
	r.vocab.Add(model.VocabularyEntry{
		Word:              word,
		MeaningCN:         result.MeaningCN,
		ContextSentenceID: result.ContextSentenceID,
		ArticleTitle:      title,
	})
	r.state.Result = &result
	r.state.Phase = PhaseResolved
	return result, nil
}

// Vocabulary returns the saved entries.
func (r *Reader) Vocabulary() []model.VocabularyEntry { return r.vocab.Entries() }

// DeleteVocabulary removes the entry with id; an unknown id is a no-op.
func (r *Reader) DeleteVocabulary(id int64) bool { return r.vocab.Remove(id) }

// ToggleVocabulary flips the vocabulary panel and returns its new visibility.
func (r *Reader) ToggleVocabulary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.ShowVocabulary = !r.state.ShowVocabulary
	return r.state.ShowVocabulary
}

// Highlights returns the highlighted words in insertion order.
func (r *Reader) Highlights() []string { return r.highlights.Words() }

// RenderParagraph marks every highlighted word in text.
func (r *Reader) RenderParagraph(text string) string {
	return highlight.RenderSet(text, r.highlights)
}

// RenderedBlock is a content block with highlight markup applied to the
// original-language text.
type RenderedBlock struct {
	Kind   model.BlockKind
	CN     string
	Markup string
	URL    string
}

// RenderArticle renders the current article, or nil when none is open.
func (r *Reader) RenderArticle() []RenderedBlock {
	r.mu.Lock()
	var blocks []model.ContentBlock
	if r.state.Article != nil {
		blocks = append(blocks, r.state.Article.ContentStructure...)
	}
	r.mu.Unlock()

	if blocks == nil {
		return nil
	}
	words := r.highlights.Words()
	out := make([]RenderedBlock, 0, len(blocks))
	for _, b := range blocks {
		rb := RenderedBlock{Kind: b.Kind, CN: b.CN, URL: b.URL}
		if b.IsText() {
			rb.Markup = highlight.Render(b.IDText, words)
		}
		out = append(out, rb)
	}
	return out
}

// Close cancels every in-flight request and closes the vocabulary store.
// A pending debounced vocabulary write is dropped.
func (r *Reader) Close() {
	r.requests.CancelAll()
	r.mu.Lock()
	r.articleSeq++
	r.lookupSeq++
	r.mu.Unlock()
	r.vocab.Close()
}

func failureMessage(err error) string {
	var rf *request.RequestFailedError
	if errors.As(err, &rf) && rf.Message != "" {
		return rf.Message
	}
	return fmt.Sprint(err)
}
