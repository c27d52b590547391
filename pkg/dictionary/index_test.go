package dictionary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDict = `
{
  "words": [
    {
      "id": "1",
      "kanji": [{"text": "犬", "common": true}],
      "kana": [{"text": "いぬ", "common": true}],
      "sense": [{"gloss": [{"text": "dog"}], "partOfSpeech": ["n"]}]
    },
    {
      "id": "2",
      "kanji": [{"text": "走る", "common": true}],
      "kana": [{"text": "はしる", "common": true}],
      "sense": [{"gloss": [{"text": "to run"}, {"text": "to dash"}], "partOfSpeech": ["v5r"]}]
    },
    {
      "id": "3",
      "kanji": [{"text": "猫", "common": true}],
      "kana": [{"text": "ねこ", "common": true}],
      "sense": [{"gloss": [{"text": "cat"}], "partOfSpeech": ["n"]}]
    },
    {
      "id": "4",
      "kanji": [],
      "kana": [{"text": "テスト", "common": true}],
      "sense": [{"gloss": [{"text": "test"}], "partOfSpeech": ["n", "vs"]}]
    }
  ]
}
`

func loadSample(t *testing.T) *Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jmdict.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDict), 0o644))
	entries, err := LoadJMdictSimplified(path)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	return NewIndex(entries)
}

func TestIndexLookup(t *testing.T) {
	ix := loadSample(t)
	assert.Equal(t, 4, ix.Len())

	tests := []struct {
		word, lemma, reading string
		wantID               string
	}{
		{"犬", "犬", "イヌ", "1"},
		{"走っ", "走る", "ハシル", "2"},
		{"猫", "猫", "", "3"},
		{"テスト", "テスト", "テスト", "4"},
	}
	for _, tt := range tests {
		got := ix.Lookup(tt.word, tt.lemma, tt.reading)
		if assert.Len(t, got, 1, tt.word) {
			assert.Equal(t, tt.wantID, got[0].ID)
		}
	}

	assert.Empty(t, ix.Lookup("未知", "未知", "ミチ"))
	// Wrong reading filters the candidate out.
	assert.Empty(t, ix.Lookup("猫", "猫", "イヌ"))
}

func TestDefinitionsAndSummary(t *testing.T) {
	ix := loadSample(t)
	defs := ix.Definitions("走る", "", "")
	require.Len(t, defs, 1)
	assert.Equal(t, []string{"to run", "to dash"}, defs[0].Senses)
	assert.Equal(t, []string{"v5r"}, defs[0].POS)

	assert.Equal(t, "to run; to dash", Summary(defs, 0))
	assert.Equal(t, "to run", Summary(defs, 1))
	assert.Equal(t, "", Summary(nil, 3))
}

func TestDecodeArray(t *testing.T) {
	entries, err := Decode(strings.NewReader(`[{"id":"9","kana":[{"text":"あ"}],"sense":[]}]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "9", entries[0].ID)

	_, err = Decode(strings.NewReader(`not json`))
	require.Error(t, err)
}

func TestToHiragana(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"ア", "あ"},
		{"カ", "か"},
		{"ガ", "が"},
		{"パ", "ぱ"},
		{"ン", "ん"},
		{"ー", "ー"},
		{"abc", "abc"},
		{"あいう", "あいう"},
	}
	for _, tt := range tests {
		if got := ToHiragana(tt.in); got != tt.out {
			t.Errorf("ToHiragana(%q) = %q; want %q", tt.in, got, tt.out)
		}
	}
}
