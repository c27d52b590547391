package request

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	v   string
	err error
}

// blockingOp signals started once running and waits for release or ctx.
func blockingOp(started chan<- struct{}, release <-chan string) Operation[string] {
	return func(ctx context.Context) (string, error) {
		close(started)
		select {
		case v := <-release:
			return v, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func TestRunReturnsValue(t *testing.T) {
	m := NewManager()
	v, err := Run(context.Background(), m, SlotLookup, time.Second, func(ctx context.Context) (int, error) {
		tok, ok := TokenFrom(ctx)
		require.True(t, ok)
		assert.NotEmpty(t, tok.ID())
		assert.Equal(t, SlotLookup, tok.Slot())
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.False(t, m.InFlight(SlotLookup))
}

func TestRunTimeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewManager(WithClock(clock))
	started := make(chan struct{})
	done := make(chan outcome, 1)

	go func() {
		v, err := Run(context.Background(), m, SlotLookup, 10*time.Second, blockingOp(started, nil))
		done <- outcome{v, err}
	}()
	<-started
	clock.Advance(10 * time.Second)

	select {
	case o := <-done:
		assert.ErrorIs(t, o.err, ErrTimeout)
		assert.NotErrorIs(t, o.err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("timeout did not fire")
	}
}

func TestRunSupersededIsCancelled(t *testing.T) {
	m := NewManager()
	started := make(chan struct{})
	release := make(chan string, 1)
	first := make(chan outcome, 1)

	go func() {
		v, err := Run(context.Background(), m, SlotArticle, time.Minute, blockingOp(started, release))
		first <- outcome{v, err}
	}()
	<-started

	v, err := Run(context.Background(), m, SlotArticle, time.Minute, func(ctx context.Context) (string, error) {
		return "second", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	o := <-first
	assert.ErrorIs(t, o.err, ErrCancelled)
	assert.Empty(t, o.v)
}

func TestStaleSuccessIsDiscarded(t *testing.T) {
	m := NewManager()
	started := make(chan struct{})
	proceed := make(chan struct{})
	result := make(chan outcome, 1)

	// The operation ignores its context and succeeds after being cancelled.
	go func() {
		v, err := Run(context.Background(), m, SlotArticle, time.Minute, func(ctx context.Context) (string, error) {
			close(started)
			<-proceed
			return "stale", nil
		})
		result <- outcome{v, err}
	}()
	<-started
	require.True(t, m.Cancel(SlotArticle))
	close(proceed)

	o := <-result
	assert.ErrorIs(t, o.err, ErrCancelled)
	assert.Empty(t, o.v)
}

func TestCancellingOneSlotLeavesOthers(t *testing.T) {
	m := NewManager()
	startedA := make(chan struct{})
	startedB := make(chan struct{})
	releaseB := make(chan string, 1)
	a := make(chan outcome, 1)
	b := make(chan outcome, 1)

	go func() {
		v, err := Run(context.Background(), m, SlotArticle, time.Minute, blockingOp(startedA, nil))
		a <- outcome{v, err}
	}()
	go func() {
		v, err := Run(context.Background(), m, SlotLookup, time.Minute, blockingOp(startedB, releaseB))
		b <- outcome{v, err}
	}()
	<-startedA
	<-startedB

	m.Cancel(SlotArticle)
	assert.ErrorIs(t, (<-a).err, ErrCancelled)
	assert.True(t, m.InFlight(SlotLookup))

	releaseB <- "ok"
	o := <-b
	require.NoError(t, o.err)
	assert.Equal(t, "ok", o.v)
}

func TestCancelAll(t *testing.T) {
	m := NewManager()
	results := make(chan error, 2)
	for _, slot := range []Slot{SlotArticle, SlotLookup} {
		started := make(chan struct{})
		go func(slot Slot) {
			_, err := Run(context.Background(), m, slot, time.Minute, blockingOp(started, nil))
			results <- err
		}(slot)
		<-started
	}
	m.CancelAll()
	assert.ErrorIs(t, <-results, ErrCancelled)
	assert.ErrorIs(t, <-results, ErrCancelled)
	assert.False(t, m.Cancel(SlotArticle))
}

func TestParentContext(t *testing.T) {
	m := NewManager()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, m, SlotNews, time.Minute, func(ctx context.Context) (string, error) {
		return "", ctx.Err()
	})
	assert.ErrorIs(t, err, ErrCancelled)

	ctx, cancel = context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err = Run(ctx, m, SlotNews, time.Minute, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFailuresAreClassified(t *testing.T) {
	m := NewManager()
	tests := []struct {
		name       string
		err        error
		wantStatus int
		malformed  bool
	}{
		{name: "plain", err: errors.New("connection refused")},
		{name: "status", err: Failed(502, "bad gateway"), wantStatus: 502},
		{name: "wrapped status", err: fmt.Errorf("news: %w", Failed(429, "rate limited")), wantStatus: 429},
		{name: "malformed", err: fmt.Errorf("decode: %w", ErrMalformedResponse), malformed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), m, SlotNews, time.Minute, func(ctx context.Context) (string, error) {
				return "", tt.err
			})
			var rf *RequestFailedError
			require.ErrorAs(t, err, &rf)
			assert.Equal(t, tt.wantStatus, rf.Status)
			assert.Equal(t, tt.malformed, errors.Is(err, ErrMalformedResponse))
			assert.False(t, IsCancelled(err))
		})
	}
}
