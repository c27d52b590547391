package dictionary

import (
	"sort"
	"strings"
)

// Definition is the flattened glosses and parts of speech of one entry.
type Definition struct {
	Senses []string `json:"senses"`
	POS    []string `json:"pos"`
}

// Index maps written forms (kanji and kana) to entries. It is read-only
// after construction and safe for concurrent use.
type Index struct {
	byText map[string][]Entry
	size   int
}

// NewIndex builds an in-memory index of entries.
func NewIndex(entries []Entry) *Index {
	idx := make(map[string][]Entry)
	for _, e := range entries {
		for _, k := range e.Kanji {
			idx[k.Text] = append(idx[k.Text], e)
		}
		for _, k := range e.Kana {
			idx[k.Text] = append(idx[k.Text], e)
		}
	}
	return &Index{byText: idx, size: len(entries)}
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int { return ix.size }

// Lookup returns the entries whose written form equals word or lemma,
// narrowed to those with a matching reading when reading is set. Results
// are ordered by entry ID.
func (ix *Index) Lookup(word, lemma, reading string) []Entry {
	candidates := make(map[string]Entry)
	for _, term := range []string{word, lemma} {
		if term == "" {
			continue
		}
		for _, e := range ix.byText[term] {
			candidates[e.ID] = e
		}
	}

	var results []Entry
	for _, e := range candidates {
		if isMatch(e, word, lemma, reading) {
			results = append(results, e)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

// Definitions is Lookup flattened with FormatDefinitions.
func (ix *Index) Definitions(word, lemma, reading string) []Definition {
	return FormatDefinitions(ix.Lookup(word, lemma, reading))
}

func isMatch(e Entry, word, lemma, reading string) bool {
	hasText := false
	for _, k := range e.Kanji {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	// Words are often written in kana only.
	for _, k := range e.Kana {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	if !hasText {
		return false
	}
	if reading == "" {
		return true
	}

	want := ToHiragana(reading)
	for _, k := range e.Kana {
		if ToHiragana(k.Text) == want {
			return true
		}
	}
	return false
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// FormatDefinitions flattens each entry's senses into one Definition.
func FormatDefinitions(entries []Entry) []Definition {
	defs := make([]Definition, 0, len(entries))
	for _, e := range entries {
		var d Definition
		for _, s := range e.Sense {
			for _, g := range s.Gloss {
				d.Senses = append(d.Senses, g.Text)
			}
			d.POS = append(d.POS, s.PartOfSpeech...)
		}
		defs = append(defs, d)
	}
	return defs
}

// Summary joins up to max glosses across defs with "; ". max <= 0 means all.
func Summary(defs []Definition, max int) string {
	var glosses []string
	for _, d := range defs {
		for _, s := range d.Senses {
			if max > 0 && len(glosses) == max {
				return strings.Join(glosses, "; ")
			}
			glosses = append(glosses, s)
		}
	}
	return strings.Join(glosses, "; ")
}
