package showstate

import (
	"maps"
	"slices"

	"github.com/nerrad567/show-logic-core/internal/action"
)

// Output is the slide shown on the active output.
//
// Wire form on showlogic/state/output:
//
//	{"showId":"s1","layoutId":"L1","index":4,"bpm":128}
type Output struct {
	ShowID   string  `json:"showId"`
	LayoutID string  `json:"layoutId"`
	Index    int     `json:"index"`
	BPM      float64 `json:"bpm,omitempty"`
}

// Slide is one entry of a layout.
type Slide struct {
	ID       string               `json:"id"`
	Overlays []string             `json:"overlays,omitempty"`
	Actions  *action.SlideActions `json:"actions,omitempty"`
}

// Layout is the ordered slide list of one show layout.
//
// Wire form on showlogic/state/layout/{id}:
//
//	{"id":"L1","showId":"s1","slides":[{"id":"a","overlays":["o1"]}]}
type Layout struct {
	ID     string  `json:"id"`
	ShowID string  `json:"showId,omitempty"`
	Slides []Slide `json:"slides"`
}

// State is an immutable snapshot of the mirrored presentation state.
type State struct {
	Output   *Output                                 `json:"output,omitempty"`
	Layouts  map[string]Layout                       `json:"layouts"`
	Catalogs map[action.Collection]map[string]string `json:"catalogs"`
}

func emptyState() State {
	return State{
		Layouts:  map[string]Layout{},
		Catalogs: map[action.Collection]map[string]string{},
	}
}

// clone copies the maps of s so the copy can be modified.
// Layouts and catalog maps themselves are replaced, never edited.
func (s State) clone() State {
	next := State{
		Layouts:  maps.Clone(s.Layouts),
		Catalogs: maps.Clone(s.Catalogs),
	}
	if s.Output != nil {
		out := *s.Output
		next.Output = &out
	}
	return next
}

func (l Layout) deepCopy() Layout {
	out := Layout{ID: l.ID, ShowID: l.ShowID, Slides: make([]Slide, len(l.Slides))}
	for i, s := range l.Slides {
		out.Slides[i] = s.deepCopy()
	}
	return out
}

func (s Slide) deepCopy() Slide {
	out := Slide{ID: s.ID, Overlays: slices.Clone(s.Overlays)}
	if s.Actions != nil {
		acts := action.SlideActions{SlideActions: make([]action.SlideAction, len(s.Actions.SlideActions))}
		for i, a := range s.Actions.SlideActions {
			acts.SlideActions[i] = a.DeepCopy()
		}
		out.Actions = &acts
	}
	return out
}
