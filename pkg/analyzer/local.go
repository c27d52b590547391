package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/japaniel/newsreader/pkg/dictionary"
	"github.com/japaniel/newsreader/pkg/model"
)

// maxGlosses bounds how many glosses go into a meaning.
const maxGlosses = 3

// Local answers word analysis requests from a dictionary index. Words the
// dictionary does not know get an unsuccessful response, like the remote
// service does.
type Local struct {
	tok   *Tokenizer
	index *dictionary.Index
}

// NewLocal creates a Local analyzer.
func NewLocal(tok *Tokenizer, index *dictionary.Index) *Local {
	return &Local{tok: tok, index: index}
}

// AnalyzeWord builds a lookup result for req.Word.
func (l *Local) AnalyzeWord(ctx context.Context, req model.LookupRequest) (model.LookupResponse, error) {
	if err := ctx.Err(); err != nil {
		return model.LookupResponse{}, err
	}
	word := strings.TrimSpace(req.Word)
	if word == "" {
		return model.LookupResponse{Success: false, Message: "empty word"}, nil
	}

	head := l.head(word)
	// A reading only narrows the match when the word is already in its
	// dictionary form; inflected readings never match the headword kana.
	reading := ""
	if head.Surface == word && head.BaseForm == word {
		reading = head.Reading
	}
	entries := l.index.Lookup(word, head.BaseForm, reading)
	if len(entries) == 0 {
		return model.LookupResponse{Success: false, Message: fmt.Sprintf("no dictionary entry for %q", word)}, nil
	}

	root := head.BaseForm
	if root == "" {
		root = word
	}
	result := model.LookupResult{
		Word:              word,
		MeaningCN:         dictionary.Summary(dictionary.FormatDefinitions(entries), maxGlosses),
		RootWord:          root,
		POS:               head.PrimaryPOS,
		VibeCheck:         register(entries[0]),
		ContextSentenceID: sentenceContaining(req.Context, word),
	}
	return model.LookupResponse{Success: true, Data: &result}, nil
}

// head is the token carrying the word's meaning: the first one when the
// selection spans several.
func (l *Local) head(word string) Token {
	tokens := l.tok.Analyze(word)
	if len(tokens) == 0 {
		return Token{Surface: word, BaseForm: word}
	}
	if len(tokens) > 1 {
		// A multi-token selection is looked up as written.
		t := tokens[0]
		return Token{Surface: word, BaseForm: word, PrimaryPOS: t.PrimaryPOS}
	}
	return tokens[0]
}

func register(e dictionary.Entry) string {
	for _, k := range append(append([]dictionary.Element(nil), e.Kanji...), e.Kana...) {
		if k.Common {
			return "common word"
		}
	}
	return "less common word"
}

// sentenceContaining returns the sentence of text that contains word, the
// whole text when no single sentence does, or "" for empty text.
func sentenceContaining(text, word string) string {
	for _, s := range SplitSentences(text) {
		if strings.Contains(s, word) {
			return s
		}
	}
	return strings.TrimSpace(text)
}
