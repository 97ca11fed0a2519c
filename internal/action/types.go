package action

import (
	"time"

	"github.com/google/uuid"
)

// Action is a named, ordered list of triggers with per-trigger parameters.
//
// Triggers holds trigger references ("next_slide", "start_audio_stream:2")
// and ActionValues maps each reference to its parameter payload. Payloads
// have no fixed shape; most are JSON objects.
type Action struct {
	ID           string         `json:"id"`
	Name         string         `json:"name,omitempty"`
	Triggers     []string       `json:"triggers"`
	ActionValues map[string]any `json:"actionValues,omitempty"`

	// Enabled is nil when never set, which counts as enabled.
	Enabled *bool `json:"enabled,omitempty"`

	// CustomActivation tags the action for bulk activation ("startup").
	CustomActivation string `json:"customActivation,omitempty"`

	// SpecificActivation narrows a custom activation, e.g. "midi__note-60".
	SpecificActivation string `json:"specificActivation,omitempty"`

	// StartupEnabled is the legacy form of CustomActivation "startup".
	StartupEnabled bool `json:"startupEnabled,omitempty"`

	// LegacyTrigger and LegacyTriggerData hold the old single-trigger MIDI
	// shape. UpgradeLegacy moves them into Triggers and ActionValues.
	LegacyTrigger     string `json:"action,omitempty"`
	LegacyTriggerData any    `json:"actionData,omitempty"`

	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEnabled reports whether the action may be activated.
func (a *Action) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// DeepCopy returns an independent copy of the action.
// Nested payload maps and slices are copied so the clone can be mutated
// without affecting cached state.
func (a *Action) DeepCopy() *Action {
	if a == nil {
		return nil
	}

	cpy := *a
	if a.Triggers != nil {
		cpy.Triggers = make([]string, len(a.Triggers))
		copy(cpy.Triggers, a.Triggers)
	}
	cpy.ActionValues = deepCopyMap(a.ActionValues)
	cpy.Enabled = cloneBoolPtr(a.Enabled)
	cpy.LegacyTriggerData = deepCopyValue(a.LegacyTriggerData)
	return &cpy
}

// RunOptions carries the context a run was started from.
type RunOptions struct {
	// MidiIndex is merged into every payload as "index" when > -1.
	MidiIndex int `json:"midi_index"`

	// SlideIndex selects the slide whose overlays start_slide_timers uses.
	SlideIndex int `json:"slide_index"`
}

// DefaultRunOptions returns options for a run with no MIDI or slide context.
func DefaultRunOptions() RunOptions {
	return RunOptions{MidiIndex: -1, SlideIndex: -1}
}

// HistoryEntry records one dispatched trigger.
type HistoryEntry struct {
	Action string    `json:"action"`
	Data   any       `json:"data"`
	Time   time.Time `json:"time"`
	Count  int       `json:"count"`
}

// GenerateID creates a new unique action ID.
func GenerateID() string {
	return uuid.NewString()
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// ─── Copy Helpers ───────────────────────────────────────────────────────────

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	case []string:
		cpy := make([]string, len(val))
		copy(cpy, val)
		return cpy
	default:
		return v
	}
}

func cloneBoolPtr(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
