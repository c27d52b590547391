// Package analyzer answers word lookups offline from a tokenizer and a
// local dictionary, for Japanese text.
package analyzer

import (
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token represents a single analyzed unit of text.
type Token struct {
	Surface       string   // The text as it appears (e.g. "行っ")
	BaseForm      string   // The dictionary form (e.g. "行く")
	Reading       string   // The pronunciation (katakana, e.g. "イッ")
	PartsOfSpeech []string // e.g. ["動詞", "自立", "*", "*"] (Kagome POS labels)
	PrimaryPOS    string
}

// Sentence represents a sentence containing tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Tokenizer segments Japanese text.
type Tokenizer struct {
	t *tokenizer.Tokenizer
}

// NewTokenizer creates a tokenizer over the IPA dictionary.
func NewTokenizer() (*Tokenizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Tokenizer{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
func (a *Tokenizer) Analyze(text string) []Token {
	var result []Token
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: 0 POS, 1-3 sub-POS, 4 conjugation type,
		// 5 conjugation form, 6 base form, 7 reading, 8 pronunciation.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:       token.Surface,
			BaseForm:      base,
			Reading:       reading,
			PartsOfSpeech: features,
			PrimaryPOS:    primaryPOS,
		})
	}
	return result
}

// AnalyzeDocument splits the text into sentences and tokenizes each sentence.
func (a *Tokenizer) AnalyzeDocument(text string) []Sentence {
	var result []Sentence
	for _, s := range SplitSentences(text) {
		result = append(result, Sentence{Text: s, Tokens: a.Analyze(s)})
	}
	return result
}

// SplitSentences splits on Japanese terminators (。！？), newlines, and on
// . ! ? when followed by whitespace or the end of text. Sentences are
// trimmed and blank ones dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		switch r {
		case '。', '！', '？', '\n':
			flush()
		case '.', '!', '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return sentences
}
