package model

import "encoding/json"

// Envelope is the response wrapper every consumed endpoint returns.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// HasData reports whether the envelope carries a non-null payload.
func (e Envelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// ArticleDetail is the payload of the article detail endpoint.
type ArticleDetail struct {
	Paragraphs   []string `json:"paragraphs"`
	ParagraphsCN []string `json:"paragraphs_cn"`
	Images       []string `json:"images"`
}

// LookupRequest is the body of a word analysis call.
type LookupRequest struct {
	Word            string `json:"word"`
	Context         string `json:"context"`
	SourceArticleID string `json:"source_article_id"`
}

// NewsResponse is the decoded news list response.
type NewsResponse struct {
	Success bool
	Data    []Article
	Message string
}

// ArticleResponse is the decoded article detail response. Data is nil
// when the service sent none.
type ArticleResponse struct {
	Success bool
	Data    *ArticleDetail
	Message string
}

// LookupResponse is the decoded word analysis response. Data is nil when
// the service sent none.
type LookupResponse struct {
	Success bool
	Data    *LookupResult
	Message string
}
