// Package dictionary loads the jmdict-simplified JSON dictionary and
// indexes it by written form for word lookups.
package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Entry matches the structure of jmdict-simplified entries.
type Entry struct {
	ID    string    `json:"id"`
	Kanji []Element `json:"kanji"`
	Kana  []Element `json:"kana"`
	Sense []Sense   `json:"sense"`
}

type Element struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type Sense struct {
	PartOfSpeech []string `json:"partOfSpeech"`
	Gloss        []Gloss  `json:"gloss"`
}

type Gloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"` // defaults to 'eng' if missing
}

// LoadJMdictSimplified reads a dictionary file. Both the release layout
// ({"words": [...]}) and a bare array of entries are accepted.
func LoadJMdictSimplified(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a dictionary from r.
func Decode(r io.ReadSeeker) ([]Entry, error) {
	var wrapped struct {
		Words []Entry `json:"words"`
	}
	if err := json.NewDecoder(r).Decode(&wrapped); err == nil && len(wrapped.Words) > 0 {
		return wrapped.Words, nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary as object or array: %w", err)
	}
	return entries, nil
}
