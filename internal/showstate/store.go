package showstate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/nerrad567/show-logic-core/internal/action"
	"github.com/nerrad567/show-logic-core/internal/store"
)

// Store is the mirrored presentation state.
type Store struct {
	state *store.Value[State]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{state: store.New(emptyState())}
}

// Snapshot returns the current state. Its maps must not be modified.
func (s *Store) Snapshot() State {
	return s.state.Get()
}

// Subscribe delivers the state after every change.
func (s *Store) Subscribe(buf int) (<-chan State, func()) {
	return s.state.Subscribe(buf)
}

// ─── Updates ────────────────────────────────────────────────────────

// SetOutput replaces the active output reference. nil clears it.
func (s *Store) SetOutput(out *Output) {
	s.state.Update(func(cur State) State {
		next := cur.clone()
		next.Output = nil
		if out != nil {
			o := *out
			next.Output = &o
		}
		return next
	})
}

// SetLayout stores l under l.ID.
func (s *Store) SetLayout(l Layout) {
	l = l.deepCopy()
	s.state.Update(func(cur State) State {
		next := cur.clone()
		next.Layouts[l.ID] = l
		return next
	})
}

// RemoveLayout forgets a layout.
func (s *Store) RemoveLayout(id string) {
	s.state.Update(func(cur State) State {
		if _, ok := cur.Layouts[id]; !ok {
			return cur
		}
		next := cur.clone()
		delete(next.Layouts, id)
		return next
	})
}

// SetCatalog replaces the id → name catalog of one collection.
func (s *Store) SetCatalog(c action.Collection, names map[string]string) {
	names = maps.Clone(names)
	s.state.Update(func(cur State) State {
		next := cur.clone()
		if len(names) == 0 {
			delete(next.Catalogs, c)
		} else {
			next.Catalogs[c] = names
		}
		return next
	})
}

// ─── MQTT payloads ──────────────────────────────────────────────────

// An empty retained payload clears the topic, so each Apply method treats
// an empty payload as removal.

// ApplyOutput decodes a showlogic/state/output message.
func (s *Store) ApplyOutput(payload []byte) error {
	if isEmpty(payload) {
		s.SetOutput(nil)
		return nil
	}
	var out Output
	if err := json.Unmarshal(payload, &out); err != nil {
		return fmt.Errorf("%w: output: %w", ErrInvalidPayload, err)
	}
	s.SetOutput(&out)
	return nil
}

// ApplyLayout decodes a showlogic/state/layout/{id} message. The topic id
// wins over any id in the body.
func (s *Store) ApplyLayout(layoutID string, payload []byte) error {
	if isEmpty(payload) {
		s.RemoveLayout(layoutID)
		return nil
	}
	var l Layout
	if err := json.Unmarshal(payload, &l); err != nil {
		return fmt.Errorf("%w: layout %s: %w", ErrInvalidPayload, layoutID, err)
	}
	l.ID = layoutID
	s.SetLayout(l)
	return nil
}

// ApplyCatalog decodes a showlogic/state/catalog/{kind} message. Entries
// may be plain names or objects with a "name" field:
//
//	{"s1":"Sunday Service","s2":{"name":"Youth Night"}}
func (s *Store) ApplyCatalog(kind string, payload []byte) error {
	if isEmpty(payload) {
		s.SetCatalog(action.Collection(kind), nil)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("%w: catalog %s: %w", ErrInvalidPayload, kind, err)
	}

	names := make(map[string]string, len(raw))
	for id, v := range raw {
		var name string
		if err := json.Unmarshal(v, &name); err == nil {
			names[id] = name
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(v, &obj); err == nil {
			names[id] = obj.Name
		}
	}
	s.SetCatalog(action.Collection(kind), names)
	return nil
}

func isEmpty(payload []byte) bool {
	p := bytes.TrimSpace(payload)
	return len(p) == 0 || bytes.Equal(p, []byte("null"))
}

// ─── Lookups ────────────────────────────────────────────────────────

// activeLayout returns the layout shown on the active output.
func (st State) activeLayout() (Layout, bool) {
	if st.Output == nil || st.Output.LayoutID == "" {
		return Layout{}, false
	}
	l, ok := st.Layouts[st.Output.LayoutID]
	return l, ok
}

// SlideOverlays returns the overlay ids of a slide in the active layout.
// It reports false when no layout is active or the index is out of range.
func (s *Store) SlideOverlays(slideIndex int) ([]string, bool) {
	l, ok := s.Snapshot().activeLayout()
	if !ok || slideIndex < 0 || slideIndex >= len(l.Slides) {
		return nil, false
	}
	return slices.Clone(l.Slides[slideIndex].Overlays), true
}

// SlideActions returns a copy of the action block of a slide in the
// active layout.
func (s *Store) SlideActions(slideIndex int) (*action.SlideActions, bool) {
	l, ok := s.Snapshot().activeLayout()
	if !ok || slideIndex < 0 || slideIndex >= len(l.Slides) {
		return nil, false
	}
	slide := l.Slides[slideIndex].deepCopy()
	if slide.Actions == nil || len(slide.Actions.SlideActions) == 0 {
		return nil, false
	}
	return slide.Actions, true
}

// AddSlideAction sets trigger on the slide at slideIndex of the active
// layout and returns the updated layout, ready to publish back.
func (s *Store) AddSlideAction(slideIndex int, trigger string, value any, allowMultiple bool) (Layout, string, error) {
	var (
		updated Layout
		entryID string
		err     error
	)
	s.state.Update(func(cur State) State {
		l, ok := cur.activeLayout()
		if !ok {
			err = ErrNoActiveLayout
			return cur
		}
		if slideIndex < 0 || slideIndex >= len(l.Slides) {
			err = fmt.Errorf("%w: %d", ErrSlideOutOfRange, slideIndex)
			return cur
		}

		l = l.deepCopy()
		slide := &l.Slides[slideIndex]
		if slide.Actions == nil {
			slide.Actions = &action.SlideActions{}
		}
		entryID = slide.Actions.Add(trigger, value, allowMultiple)

		next := cur.clone()
		next.Layouts[l.ID] = l
		updated = l.deepCopy()
		return next
	})
	return updated, entryID, err
}

// Name implements action.NameSource.
func (s *Store) Name(c action.Collection, id string) (string, bool) {
	name, ok := s.Snapshot().Catalogs[c][id]
	return name, ok && name != ""
}

// ShowBPM implements action.NameSource. It reports the tempo of the show
// on the active output.
func (s *Store) ShowBPM() (float64, bool) {
	out := s.Snapshot().Output
	if out == nil || out.BPM <= 0 {
		return 0, false
	}
	return out.BPM, true
}

var (
	_ action.SlideLookup = (*Store)(nil)
	_ action.NameSource  = (*Store)(nil)
)
