package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/newsreader/pkg/model"
	"github.com/japaniel/newsreader/pkg/request"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)
}

func TestNews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/news", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"success":true,"data":[{"id":"1","url":"https://x/1","title":"Harga beras naik","title_cn":"米价上涨","published_at":"2026-01-02T03:04:05Z"}]}`))
	})
	res, err := c.News(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "米价上涨", res.Data[0].TitleCN)
	assert.Equal(t, "https://x/1", res.Data[0].URL)
}

func TestNewsWithoutDataIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	})
	res, err := c.News(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestNewsUnsuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"rate limited"}`))
	})
	res, err := c.News(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "rate limited", res.Message)
}

func TestArticleEncodesURL(t *testing.T) {
	const target = "https://news.example/a?b=c&d=e"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/article", r.URL.Path)
		assert.Equal(t, target, r.URL.Query().Get("url"))
		w.Write([]byte(`{"success":true,"data":{"paragraphs":["Satu."],"paragraphs_cn":["一。"],"images":["https://img/1.jpg"]}}`))
	})
	res, err := c.Article(context.Background(), target)
	require.NoError(t, err)
	require.NotNil(t, res.Data)
	assert.Equal(t, []string{"Satu."}, res.Data.Paragraphs)
	assert.Equal(t, []string{"https://img/1.jpg"}, res.Data.Images)
}

func TestAnalyzeWordSendsBodyAndRequestID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		var body model.LookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, model.LookupRequest{Word: "ekonomi", Context: "Ekonomi tumbuh.", SourceArticleID: "7"}, body)
		w.Write([]byte(`{"success":true,"data":{"word":"ekonomi","meaning_cn":"经济","root_word":"ekonomi","pos":"noun","vibe_check":"formal","context_sentence_id":"Ekonomi tumbuh."}}`))
	})

	m := request.NewManager()
	res, err := request.Run(context.Background(), m, request.SlotLookup, time.Second, func(ctx context.Context) (model.LookupResponse, error) {
		return c.AnalyzeWord(ctx, model.LookupRequest{Word: "ekonomi", Context: "Ekonomi tumbuh.", SourceArticleID: "7"})
	})
	require.NoError(t, err)
	require.NotNil(t, res.Data)
	assert.Equal(t, "经济", res.Data.MeaningCN)
}

func TestHTTPErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"success":false,"message":"upstream down"}`))
	})
	_, err := c.News(context.Background())
	var rf *request.RequestFailedError
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, http.StatusBadGateway, rf.Status)
	assert.Equal(t, "upstream down", rf.Message)
}

func TestHTTPErrorStatusWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Article(context.Background(), "https://x")
	var rf *request.RequestFailedError
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), rf.Message)
}

func TestMalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>oops</html>")
	})
	_, err := c.News(context.Background())
	assert.True(t, errors.Is(err, request.ErrMalformedResponse))

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":{"paragraphs":"not-a-list"}}`)
	})
	_, err = c.Article(context.Background(), "https://x")
	assert.True(t, errors.Is(err, request.ErrMalformedResponse))
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithBreaker(BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 1, MinRequests: 2}))

	for i := 0; i < 2; i++ {
		_, err := c.AnalyzeWord(context.Background(), model.LookupRequest{Word: "x"})
		require.Error(t, err)
	}
	_, err := c.AnalyzeWord(context.Background(), model.LookupRequest{Word: "x"})
	var rf *request.RequestFailedError
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, http.StatusServiceUnavailable, rf.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "open breaker must not reach the service")
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"word":"x"}}`))
	}, WithBreaker(BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 1, MinRequests: 1}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.AnalyzeWord(ctx, model.LookupRequest{Word: "x"})
	require.Error(t, err)

	res, err := c.AnalyzeWord(context.Background(), model.LookupRequest{Word: "x"})
	require.NoError(t, err, "a cancelled call must not trip the breaker")
	assert.True(t, res.Success)
}
