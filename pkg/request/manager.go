package request

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Slot names a channel that admits one in-flight operation.
type Slot string

const (
	SlotNews    Slot = "news"
	SlotArticle Slot = "article"
	SlotLookup  Slot = "lookup"
)

// Token is the cancellation handle of one Run call.
type Token struct {
	id     string
	slot   Slot
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// ID is a unique id for the call, suitable for request-id headers.
func (t *Token) ID() string { return t.id }

// Slot returns the slot the call runs in.
func (t *Token) Slot() Slot { return t.slot }

// Context is done once the call is cancelled or timed out.
func (t *Token) Context() context.Context { return t.ctx }

// Cancel cancels the call. Its result, if any, is discarded.
func (t *Token) Cancel() { t.cancel(ErrCancelled) }

// IsCancelled reports whether the call was cancelled for any reason.
func (t *Token) IsCancelled() bool { return t.ctx.Err() != nil }

// Err returns ErrTimeout or ErrCancelled once the call is done, else nil.
func (t *Token) Err() error {
	if t.ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(t.ctx)
	if errors.Is(cause, ErrTimeout) || errors.Is(cause, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrCancelled
}

type tokenKey struct{}

// TokenFrom returns the Token of the Run call ctx belongs to.
func TokenFrom(ctx context.Context) (*Token, bool) {
	t, ok := ctx.Value(tokenKey{}).(*Token)
	return t, ok
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock used for timeouts.
func WithClock(c clockwork.Clock) Option { return func(m *Manager) { m.clock = c } }

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager enforces one in-flight operation per slot.
type Manager struct {
	clock  clockwork.Clock
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[Slot]*Token
}

// NewManager creates a Manager with no operations in flight.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		inflight: make(map[Slot]*Token),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Operation is the work run inside a slot. It must honour ctx.
type Operation[T any] func(ctx context.Context) (T, error)

// Run cancels whatever is in flight on slot, then runs op with a fresh
// token bounded by timeout (no bound when timeout <= 0). It returns
// ErrCancelled or ErrTimeout when the token ended first, even if op
// produced a value, and a *RequestFailedError for any other failure.
func Run[T any](ctx context.Context, m *Manager, slot Slot, timeout time.Duration, op Operation[T]) (T, error) {
	var zero T
	tok := m.begin(ctx, slot)
	defer m.finish(tok)

	var timer clockwork.Timer
	if timeout > 0 {
		timer = m.clock.AfterFunc(timeout, func() { tok.cancel(ErrTimeout) })
	}
	v, err := op(tok.ctx)
	if timer != nil {
		timer.Stop()
	}

	if terr := tok.Err(); terr != nil {
		m.logger.Debug("request dropped", "slot", slot, "request_id", tok.id, "reason", terr)
		return zero, terr
	}
	if err != nil {
		return zero, classify(err)
	}
	return v, nil
}

// Cancel cancels the operation in flight on slot and reports whether there was one.
func (m *Manager) Cancel(slot Slot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.inflight[slot]
	if !ok {
		return false
	}
	tok.Cancel()
	delete(m.inflight, slot)
	return true
}

// CancelAll cancels every in-flight operation.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slot, tok := range m.inflight {
		tok.Cancel()
		delete(m.inflight, slot)
	}
}

// InFlight reports whether slot has an operation running.
func (m *Manager) InFlight(slot Slot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inflight[slot]
	return ok
}

func (m *Manager) begin(parent context.Context, slot Slot) *Token {
	ctx, cancel := context.WithCancelCause(parent)
	tok := &Token{id: uuid.NewString(), slot: slot, cancel: cancel}
	tok.ctx = context.WithValue(ctx, tokenKey{}, tok)

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.inflight[slot]; ok {
		prev.Cancel()
		m.logger.Debug("request superseded", "slot", slot, "request_id", prev.id)
	}
	m.inflight[slot] = tok
	return tok
}

func (m *Manager) finish(tok *Token) {
	m.mu.Lock()
	if m.inflight[tok.slot] == tok {
		delete(m.inflight, tok.slot)
	}
	m.mu.Unlock()
	tok.cancel(errReleased)
}
