package reader

import (
	"strings"

	"github.com/japaniel/newsreader/pkg/model"
)

// BuildContent turns an article detail payload into content blocks.
// Paragraph i is paired with translation i, or with itself when there is
// no translation; blank paragraphs are skipped; image blocks follow the
// text. An empty result becomes a single placeholder block.
func BuildContent(d model.ArticleDetail) []model.ContentBlock {
	blocks := make([]model.ContentBlock, 0, len(d.Paragraphs)+len(d.Images))
	for i, p := range d.Paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		cn := p
		if i < len(d.ParagraphsCN) && d.ParagraphsCN[i] != "" {
			cn = d.ParagraphsCN[i]
		}
		blocks = append(blocks, model.TextBlock(cn, p))
	}
	for _, img := range d.Images {
		if img != "" {
			blocks = append(blocks, model.ImageBlock(img))
		}
	}
	if len(blocks) == 0 {
		blocks = append(blocks, model.TextBlock(msgNoContentCN, msgNoContentID))
	}
	return blocks
}

// errorContent is the body shown when an article could not be loaded.
func errorContent(msg string) []model.ContentBlock {
	return []model.ContentBlock{model.TextBlock(msgLoadErrorCN+msg, msgLoadErrorID)}
}

// FallbackResult is the placeholder used when the analysis service cannot
// answer. It has the same shape as a real result.
func FallbackResult(word string) model.LookupResult {
	return model.LookupResult{
		Word:              word,
		MeaningCN:         placeholderMeaning,
		RootWord:          placeholderRoot,
		POS:               placeholderPOS,
		VibeCheck:         placeholderVibe,
		ContextSentenceID: placeholderContext,
	}
}

// ContextFor returns the original text of the first text block containing
// word, or "" when none does.
func ContextFor(a *model.Article, word string) string {
	if a == nil || word == "" {
		return ""
	}
	for _, b := range a.ContentStructure {
		if b.IsText() && strings.Contains(b.IDText, word) {
			return b.IDText
		}
	}
	return ""
}
