package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/japaniel/newsreader/pkg/model"
)

const (
	// DefaultKey is the slot the vocabulary list is stored under.
	DefaultKey = "vocabulary"
	// DefaultDebounce is the quiet period before a save reaches the backend.
	DefaultDebounce = 300 * time.Millisecond

	writeTimeout    = 5 * time.Second
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// ErrNotFound is returned by a Backend when the slot does not exist.
var ErrNotFound = errors.New("vocab: slot not found")

// Backend is durable storage for a single named slot.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) Option { return func(s *Store) { s.clock = c } }

// WithDebounce sets the debounce window. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithKey sets the slot name.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is the personal vocabulary list. The in-memory view changes
// synchronously; durable writes are debounced and coalesced so that only
// the latest value inside a window is written.
//
// Close cancels a pending write without flushing it: entries saved in the
// last debounce window before Close are not persisted.
type Store struct {
	backend  Backend
	key      string
	debounce time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	entries []model.VocabularyEntry
	pending clockwork.Timer
	gen     uint64
	closed  bool
	lastID  int64

	// writeMu serializes backend writes.
	writeMu sync.Mutex
}

// New creates a Store over backend. Call Load to read the persisted list.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		key:      DefaultKey,
		debounce: DefaultDebounce,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open creates a Store and loads the persisted list.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("vocab: nil backend")
	}
	s := New(backend, opts...)
	s.Load(ctx)
	return s, nil
}

// Load reads the durable slot and replaces the in-memory view with it.
// Missing, unreadable or corrupt content yields an empty list; the error
// is logged and never returned.
func (s *Store) Load(ctx context.Context) []model.VocabularyEntry {
	entries := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	for _, e := range entries {
		if e.ID > s.lastID {
			s.lastID = e.ID
		}
	}
	return clone(s.entries)
}

func (s *Store) read(ctx context.Context) []model.VocabularyEntry {
	data, err := s.backend.Read(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return []model.VocabularyEntry{}
	}
	if err != nil {
		s.logger.Warn("vocabulary load failed", "key", s.key, "error", err)
		return []model.VocabularyEntry{}
	}
	var entries []model.VocabularyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("vocabulary slot is corrupt, starting empty", "key", s.key, "error", err)
		return []model.VocabularyEntry{}
	}
	if entries == nil {
		// JSON null
		return []model.VocabularyEntry{}
	}
	return entries
}

// Entries returns a copy of the in-memory list.
func (s *Store) Entries() []model.VocabularyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.entries)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Save replaces the list and schedules a debounced durable write.
func (s *Store) Save(entries []model.VocabularyEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(clone(entries))
}

// Add appends entry, assigning an ID and timestamp when they are unset,
// and returns the stored entry.
func (s *Store) Add(entry model.VocabularyEntry) model.VocabularyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if entry.ID == 0 {
		entry.ID = s.nextIDLocked(now)
	} else if entry.ID > s.lastID {
		s.lastID = entry.ID
	}
	if entry.Timestamp == "" {
		entry.Timestamp = now.UTC().Format(timestampLayout)
	}
	next := make([]model.VocabularyEntry, 0, len(s.entries)+1)
	next = append(next, s.entries...)
	next = append(next, entry)
	s.saveLocked(next)
	return entry
}

// Remove deletes the entry with id. A missing id is a no-op.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.VocabularyEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.ID != id {
			next = append(next, e)
		}
	}
	if len(next) == len(s.entries) {
		return false
	}
	s.saveLocked(next)
	return true
}

// Close cancels any pending write and waits for a write already in progress.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	s.writeMu.Unlock()
}

// nextIDLocked returns a millisecond timestamp id, bumped past the last
// issued id so ids stay unique and ordered.
func (s *Store) nextIDLocked(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) saveLocked(entries []model.VocabularyEntry) {
	s.entries = entries
	if s.closed {
		return
	}
	if s.pending != nil {
		s.pending.Stop()
	}
	s.gen++
	gen := s.gen
	snapshot := clone(entries)
	s.pending = s.clock.AfterFunc(s.debounce, func() { s.flush(gen, snapshot) })
}

func (s *Store) flush(gen uint64, entries []model.VocabularyEntry) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.closed || gen != s.gen {
		// Superseded by a later save or cancelled by Close.
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	if err := s.write(entries); err != nil {
		s.logger.Error("vocabulary save failed", "key", s.key, "error", err)
	}
}

func (s *Store) write(entries []model.VocabularyEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.backend.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("write vocabulary: %w", err)
	}
	s.logger.Debug("vocabulary saved", "key", s.key, "entries", len(entries))
	return nil
}

func clone(entries []model.VocabularyEntry) []model.VocabularyEntry {
	out := make([]model.VocabularyEntry, len(entries))
	copy(out, entries)
	return out
}
