// Package highlight marks looked-up words inside article text.
//
// Render rewrites the text once per word, and each pass matches against
// the output of the previous one. A word that also occurs in the marker
// literal itself (for example "span" or "class") is therefore matched
// again inside markers inserted by earlier passes. That behaviour is
// kept; callers that need a clean round trip can use Strip.
package highlight

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

const (
	// OpenMarker and CloseMarker wrap every highlighted occurrence.
	OpenMarker  = `<span class="highlighted-word">`
	CloseMarker = `</span>`
)

// Set is an insertion-ordered set of words. The first casing added wins.
type Set struct {
	mu    sync.RWMutex
	words []string
	seen  map[string]struct{}
}

// NewSet creates a set holding words in order.
func NewSet(words ...string) *Set {
	s := &Set{seen: make(map[string]struct{})}
	for _, w := range words {
		s.Add(w)
	}
	return s
}

// Add inserts word and reports whether it was new. Empty words are ignored.
func (s *Set) Add(word string) bool {
	if word == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[word]; ok {
		return false
	}
	s.seen[word] = struct{}{}
	s.words = append(s.words, word)
	return true
}

// Has reports whether word is in the set.
func (s *Set) Has(word string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[word]
	return ok
}

// Len returns the number of words.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words)
}

// Words returns the words in insertion order.
func (s *Set) Words() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

// Clear empties the set.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = nil
	s.seen = make(map[string]struct{})
}

// compile is swapped in tests to exercise the skip path.
var compile = regexp.Compile

// Render wraps every case-insensitive occurrence of each word in text with
// the highlight markers. It is a pure function of its inputs. Words that
// fail to compile are skipped.
func Render(text string, words []string) string {
	if text == "" || len(words) == 0 {
		return text
	}
	out := text
	for _, w := range words {
		if w == "" {
			continue
		}
		re, err := compile(`(?i)(` + regexp.QuoteMeta(w) + `)`)
		if err != nil {
			slog.Warn("skipping highlight word", "word", w, "error", err)
			continue
		}
		out = re.ReplaceAllString(out, OpenMarker+"${1}"+CloseMarker)
	}
	return out
}

// RenderSet is Render over the current contents of s.
func RenderSet(text string, s *Set) string {
	if s == nil {
		return text
	}
	return Render(text, s.Words())
}

// Strip removes highlight markers, returning plain text.
func Strip(markup string) string {
	out := strings.ReplaceAll(markup, OpenMarker, "")
	return strings.ReplaceAll(out, CloseMarker, "")
}
