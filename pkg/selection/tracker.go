package selection

import (
	"strings"

	"github.com/japaniel/newsreader/pkg/model"
)

// DefaultMargin is the vertical gap between the selection and the affordance.
const DefaultMargin = 10

// Rect is a bounding rectangle in viewport coordinates.
type Rect struct {
	Top, Left, Bottom, Right float64
}

// Event describes the live selection when a pointer-up or touch-end
// happens over article content.
type Event struct {
	Text string
	// Ranges holds one bounding rectangle per selection range.
	Ranges  []Rect
	ScrollX float64
	ScrollY float64
}

// Listener receives the show/hide signals for the lookup affordance.
type Listener interface {
	// ShowAffordance is called with a non-empty selection.
	ShowAffordance(sel model.Selection)
	// HideAffordance is called when the selection is cleared; pending
	// result display is cleared with it.
	HideAffordance()
}

// Tracker turns selection-end events into affordance signals.
type Tracker struct {
	listener Listener
	margin   float64
}

// NewTracker creates a Tracker reporting to l.
func NewTracker(l Listener) *Tracker {
	return &Tracker{listener: l, margin: DefaultMargin}
}

// SetMargin changes the vertical offset below the selection.
func (t *Tracker) SetMargin(m float64) { t.margin = m }

// SelectionEnd handles a selection-end event and returns the selection it
// reported, if any.
func (t *Tracker) SelectionEnd(ev Event) (model.Selection, bool) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		t.listener.HideAffordance()
		return model.Selection{}, false
	}
	sel := model.Selection{Text: text, Anchor: t.anchor(ev)}
	t.listener.ShowAffordance(sel)
	return sel, true
}

// anchor places the affordance just below the first range, in document coordinates.
func (t *Tracker) anchor(ev Event) model.Anchor {
	if len(ev.Ranges) == 0 {
		return model.Anchor{Top: ev.ScrollY + t.margin, Left: ev.ScrollX}
	}
	r := ev.Ranges[0]
	return model.Anchor{
		Top:  r.Bottom + ev.ScrollY + t.margin,
		Left: r.Left + ev.ScrollX,
	}
}
