package kv

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/newsreader/pkg/vocab"
)

var (
	_ vocab.Backend = (*Memory)(nil)
	_ vocab.Backend = (*Redis)(nil)
)

func TestMemoryReadWrite(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Read(ctx, "vocabulary")
	assert.True(t, errors.Is(err, vocab.ErrNotFound))

	buf := []byte("[]")
	require.NoError(t, m.Write(ctx, "vocabulary", buf))
	buf[0] = 'x'

	got, err := m.Read(ctx, "vocabulary")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got), "stored value must not alias the caller's buffer")
}

func TestRedisReadWrite(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	r, err := ConnectRedis(ctx, url, "newsreader:test:")
	require.NoError(t, err)
	defer r.Close()
	defer r.client.Del(ctx, r.key("vocabulary"))

	_, err = r.Read(ctx, "missing-slot")
	assert.True(t, errors.Is(err, vocab.ErrNotFound))

	require.NoError(t, r.Write(ctx, "vocabulary", []byte(`[{"id":1}]`)))
	got, err := r.Read(ctx, "vocabulary")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))
}
