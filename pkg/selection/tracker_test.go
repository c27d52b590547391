package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/japaniel/newsreader/pkg/model"
)

type recorder struct {
	shown  []model.Selection
	hidden int
}

func (r *recorder) ShowAffordance(sel model.Selection) { r.shown = append(r.shown, sel) }
func (r *recorder) HideAffordance()                    { r.hidden++ }

func TestSelectionEndShowsAffordanceBelowSelection(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(rec)

	sel, ok := tr.SelectionEnd(Event{
		Text:    "  ekonomi ",
		Ranges:  []Rect{{Top: 100, Left: 40, Bottom: 120, Right: 90}, {Top: 130, Left: 0, Bottom: 150}},
		ScrollX: 5,
		ScrollY: 300,
	})

	assert.True(t, ok)
	assert.Equal(t, "ekonomi", sel.Text)
	assert.Equal(t, model.Anchor{Top: 430, Left: 45}, sel.Anchor)
	assert.Equal(t, []model.Selection{sel}, rec.shown)
	assert.Zero(t, rec.hidden)
}

func TestSelectionEndEmptyHides(t *testing.T) {
	for _, text := range []string{"", "   \n\t"} {
		rec := &recorder{}
		tr := NewTracker(rec)
		_, ok := tr.SelectionEnd(Event{Text: text, Ranges: []Rect{{Bottom: 10}}})
		assert.False(t, ok)
		assert.Equal(t, 1, rec.hidden)
		assert.Empty(t, rec.shown)
	}
}

func TestSelectionEndCustomMarginAndNoRanges(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(rec)
	tr.SetMargin(4)

	sel, ok := tr.SelectionEnd(Event{Text: "harga", ScrollX: 2, ScrollY: 8})
	assert.True(t, ok)
	assert.Equal(t, model.Anchor{Top: 12, Left: 2}, sel.Anchor)
}
