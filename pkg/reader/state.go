package reader

import "github.com/japaniel/newsreader/pkg/model"

// Phase is the lookup state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseAwaitingResult
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelecting:
		return "selecting"
	case PhaseAwaitingResult:
		return "awaiting"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Affordance is the "look up" control shown next to a selection.
type Affordance struct {
	Visible bool
	Anchor  model.Anchor
}

// State is a point-in-time copy of everything the UI renders.
type State struct {
	News      []model.Article
	ListError string
	Loading   bool

	// Article is nil while the list is shown.
	Article *model.Article

	SelectedText string
	Affordance   Affordance
	Phase        Phase
	Result       *model.LookupResult

	Highlights     []string
	Vocabulary     []model.VocabularyEntry
	ShowVocabulary bool
}

// LookingUp reports whether a lookup is in flight.
func (s State) LookingUp() bool { return s.Phase == PhaseAwaitingResult }

func (s *State) clearSelection() {
	s.SelectedText = ""
	s.Affordance = Affordance{}
	s.Result = nil
	s.Phase = PhaseIdle
}
