package action

import "testing"

func TestSlideActions_AddReplacesByTrigger(t *testing.T) {
	var s SlideActions

	first := s.Add("start_slide_timers", map[string]any{}, false)
	second := s.Add("start_slide_timers", map[string]any{"x": 1}, false)

	if len(s.SlideActions) != 1 {
		t.Fatalf("entries = %d, want 1", len(s.SlideActions))
	}
	if first == second {
		t.Error("replacement kept the old entry id")
	}
	if s.SlideActions[0].ActionValues["start_slide_timers"].(map[string]any)["x"] != 1 {
		t.Error("replacement did not store the new value")
	}
}

func TestSlideActions_AllowMultiple(t *testing.T) {
	var s SlideActions
	s.Add("send_midi", map[string]any{"note": 60}, true)
	s.Add("send_midi", map[string]any{"note": 61}, true)

	if len(s.SlideActions) != 2 {
		t.Errorf("entries = %d, want 2", len(s.SlideActions))
	}
}

func TestSlideActions_HasAndActions(t *testing.T) {
	var s SlideActions
	if s.Has("clear_slide") {
		t.Error("Has() on empty block = true")
	}

	s.Add("clear_slide", nil, false)
	if !s.Has("clear_slide") {
		t.Error("Has(clear_slide) = false, want true")
	}

	actions := s.Actions()
	if len(actions) != 1 || actions[0].Triggers[0] != "clear_slide" {
		t.Errorf("Actions() = %v", actions)
	}
	if actions[0].ID != s.SlideActions[0].ID {
		t.Error("Actions() did not keep the entry id")
	}
}

func TestSlideActions_HasMatchesAnyTrigger(t *testing.T) {
	s := SlideActions{SlideActions: []SlideAction{
		{ID: "a", Triggers: []string{"change_volume", "start_slide_timers"}},
	}}

	if !s.Has("start_slide_timers") {
		t.Error("Has(start_slide_timers) = false, want true for a later trigger")
	}
	if s.Has("clear_all") {
		t.Error("Has(clear_all) = true, want false")
	}

	// Replacement only targets entries led by the trigger.
	s.Add("start_slide_timers", map[string]any{}, false)
	if len(s.SlideActions) != 2 {
		t.Errorf("entries = %d, want 2", len(s.SlideActions))
	}
}

func TestSlideActions_FalsyValueStoresNoPayload(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"zero", 0, false},
		{"empty string", "", false},
		{"empty object", map[string]any{}, true},
		{"number", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s SlideActions
			s.Add("clear_all", tt.value, false)

			_, stored := s.SlideActions[0].ActionValues["clear_all"]
			if stored != tt.want {
				t.Errorf("payload stored = %v, want %v", stored, tt.want)
			}
		})
	}
}
