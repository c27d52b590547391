package model

// BlockKind tags a ContentBlock variant.
type BlockKind string

const (
	BlockText  BlockKind = "text"
	BlockImage BlockKind = "image"
)

// ContentBlock is one unit of article body: translated text or an image reference.
type ContentBlock struct {
	Kind BlockKind `json:"type"`
	// CN is the translated text of a text block.
	CN string `json:"cn,omitempty"`
	// IDText is the original-language text of a text block.
	IDText string `json:"id,omitempty"`
	URL    string `json:"url,omitempty"`
}

// TextBlock builds a text ContentBlock.
func TextBlock(cn, idText string) ContentBlock {
	return ContentBlock{Kind: BlockText, CN: cn, IDText: idText}
}

// ImageBlock builds an image ContentBlock.
func ImageBlock(url string) ContentBlock {
	return ContentBlock{Kind: BlockImage, URL: url}
}

// IsText reports whether the block carries text.
func (b ContentBlock) IsText() bool { return b.Kind == BlockText }

// Article is a news item. ContentStructure is only populated once the
// article detail has been fetched.
type Article struct {
	ID               string         `json:"id"`
	URL              string         `json:"url"`
	Title            string         `json:"title"`
	TitleCN          string         `json:"title_cn"`
	// PublishedAt is kept as sent by the news service.
	PublishedAt      string         `json:"published_at"`
	ImageURL         string         `json:"image_url,omitempty"`
	ContentStructure []ContentBlock `json:"content_structure,omitempty"`
}

// DisplayTitle prefers the translated title.
func (a Article) DisplayTitle() string {
	if a.TitleCN != "" {
		return a.TitleCN
	}
	return a.Title
}

// Anchor is a position in document coordinates.
type Anchor struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Selection is the text a user selected and where the lookup affordance goes.
type Selection struct {
	Text   string
	Anchor Anchor
}

// LookupResult is the analysis of a looked-up word. Results from the
// analysis service and locally synthesized placeholders share this shape.
type LookupResult struct {
	Word              string `json:"word"`
	MeaningCN         string `json:"meaning_cn"`
	RootWord          string `json:"root_word"`
	POS               string `json:"pos"`
	VibeCheck         string `json:"vibe_check"`
	ContextSentenceID string `json:"context_sentence_id"`
}

// VocabularyEntry is one saved lookup.
type VocabularyEntry struct {
	ID                int64  `json:"id"`
	Word              string `json:"word"`
	MeaningCN         string `json:"meaning_cn"`
	ContextSentenceID string `json:"context_sentence_id"`
	ArticleTitle      string `json:"article_title"`
	// Timestamp is an RFC 3339 instant.
	Timestamp string `json:"timestamp"`
}
