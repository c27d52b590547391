package reader

import (
	"context"

	"github.com/japaniel/newsreader/pkg/model"
)

// NewsService lists articles (GET /api/news).
type NewsService interface {
	News(ctx context.Context) (model.NewsResponse, error)
}

// ArticleService fetches an article body (GET /api/article?url=...).
type ArticleService interface {
	Article(ctx context.Context, articleURL string) (model.ArticleResponse, error)
}

// WordAnalyzer analyzes a selected word (POST /api/analyze/word).
type WordAnalyzer interface {
	AnalyzeWord(ctx context.Context, req model.LookupRequest) (model.LookupResponse, error)
}
