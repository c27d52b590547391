package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/newsreader/pkg/request"
)

const firstParagraph = "Pertumbuhan ekonomi Indonesia pada kuartal ketiga melambat menjadi 4,9 persen, menurut data terbaru Badan Pusat Statistik yang dirilis pada hari Senin, di tengah melemahnya permintaan global dan harga komoditas."
const secondParagraph = "Para ekonom memperkirakan bank sentral akan mempertahankan suku bunga acuan, sementara pemerintah menyiapkan stimulus tambahan untuk menjaga daya beli masyarakat, terutama di sektor konsumsi rumah tangga."
const thirdParagraph = "Menteri Keuangan mengatakan bahwa fundamental ekonomi tetap kuat, dengan inflasi yang terkendali dan cadangan devisa yang memadai, sehingga pemerintah optimistis target pertumbuhan tahun depan dapat tercapai."

const samplePage = `<!DOCTYPE html>
<html lang="id">
<head>
  <title>Ekonomi Indonesia Melambat</title>
  <meta property="og:image" content="https://cdn.example/og.jpg">
</head>
<body>
  <header class="header"><nav><a href="/">Beranda</a> <a href="/ekonomi">Ekonomi</a></nav></header>
  <article>
    <h1>Ekonomi Indonesia Melambat</h1>
    <figure><img src="/img/pasar.jpg" alt="Pasar"></figure>
    <p>` + firstParagraph + `</p>
    <p>` + secondParagraph + `</p>
    <p>` + thirdParagraph + `</p>
  </article>
  <footer class="footer"><p>Hak cipta dilindungi undang-undang.</p></footer>
</body>
</html>`

func TestExtract(t *testing.T) {
	u, _ := url.Parse("https://news.example/ekonomi/1")
	detail, err := Extract([]byte(samplePage), u)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(detail.Paragraphs), 3)
	assert.Contains(t, detail.Paragraphs, firstParagraph)
	assert.Contains(t, detail.Paragraphs, secondParagraph)
	assert.Contains(t, detail.Paragraphs, thirdParagraph)
	assert.NotContains(t, detail.Paragraphs, "Hak cipta dilindungi undang-undang.")
	assert.Empty(t, detail.ParagraphsCN)
	assert.Equal(t, []string{"https://news.example/img/pasar.jpg"}, detail.Images)
}

func TestExtractStripsFurigana(t *testing.T) {
	page := `<html><head><title>漢字</title></head><body><article><p>` + firstParagraph +
		` <ruby>漢字<rt>かんじ</rt></ruby>の読み方。</p><p>` + secondParagraph + `</p></article></body></html>`
	u, _ := url.Parse("https://news.example/furigana")
	detail, err := Extract([]byte(page), u)
	require.NoError(t, err)
	for _, p := range detail.Paragraphs {
		assert.NotContains(t, p, "漢字かんじ")
	}
}

func TestSourceArticle(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	s := NewSource(WithHTTPClient(srv.Client()), WithUserAgent("newsreader-test"))
	resp, err := s.Article(context.Background(), srv.URL+"/ekonomi/1")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Contains(t, resp.Data.Paragraphs, firstParagraph)
	assert.Equal(t, []string{srv.URL + "/img/pasar.jpg"}, resp.Data.Images)
	assert.Equal(t, "newsreader-test", ua)
}

func TestSourceArticleStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewSource(WithHTTPClient(srv.Client())).Article(context.Background(), srv.URL)
	var rf *request.RequestFailedError
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, http.StatusForbidden, rf.Status)
}

func TestSourceArticleInvalidURL(t *testing.T) {
	_, err := NewSource().Article(context.Background(), "/relative/path")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid article url"))
}

func TestSourceArticleCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSource(WithHTTPClient(srv.Client())).Article(ctx, srv.URL)
	require.Error(t, err)
}
