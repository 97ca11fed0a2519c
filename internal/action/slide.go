package action

import "slices"

// SlideAction is an action embedded in a slide. Each entry carries exactly
// one trigger.
type SlideAction struct {
	ID           string         `json:"id"`
	Triggers     []string       `json:"triggers"`
	ActionValues map[string]any `json:"actionValues,omitempty"`
}

// SlideActions is the action block of a slide.
type SlideActions struct {
	SlideActions []SlideAction `json:"slideActions"`
}

// Add sets the value of trigger on the slide. An existing entry led by the
// same trigger is replaced in place unless allowMultiple is set, in which
// case a new entry is always appended. A falsy value stores no payload.
// Returns the id of the stored entry.
func (s *SlideActions) Add(trigger string, value any, allowMultiple bool) string {
	entry := SlideAction{
		ID:           GenerateID(),
		Triggers:     []string{trigger},
		ActionValues: map[string]any{},
	}
	if truthy(value) {
		entry.ActionValues[trigger] = deepCopyValue(value)
	}

	if !allowMultiple {
		if i := s.index(trigger); i >= 0 {
			s.SlideActions[i] = entry
			return entry.ID
		}
	}
	s.SlideActions = append(s.SlideActions, entry)
	return entry.ID
}

// Has reports whether any entry on the slide lists trigger.
func (s *SlideActions) Has(trigger string) bool {
	for _, sa := range s.SlideActions {
		if slices.Contains(sa.Triggers, trigger) {
			return true
		}
	}
	return false
}

// DeepCopy returns an independent copy of the entry.
func (sa SlideAction) DeepCopy() SlideAction {
	return SlideAction{
		ID:           sa.ID,
		Triggers:     append([]string(nil), sa.Triggers...),
		ActionValues: deepCopyMap(sa.ActionValues),
	}
}

// Actions converts the entries into runnable actions.
func (s *SlideActions) Actions() []Action {
	out := make([]Action, 0, len(s.SlideActions))
	for _, sa := range s.SlideActions {
		out = append(out, Action{
			ID:           sa.ID,
			Triggers:     append([]string(nil), sa.Triggers...),
			ActionValues: deepCopyMap(sa.ActionValues),
		})
	}
	return out
}

// index finds the entry whose first trigger is trigger.
func (s *SlideActions) index(trigger string) int {
	for i, sa := range s.SlideActions {
		if len(sa.Triggers) > 0 && sa.Triggers[0] == trigger {
			return i
		}
	}
	return -1
}
