package action

import (
	"strings"
	"testing"
)

func TestFuzzyMatcher_Rank(t *testing.T) {
	candidates := []Action{
		{ID: "1", Name: "Clear All"},
		{ID: "2", Name: "Clear Slide"},
		{ID: "3", Name: "Start Countdown"},
		{ID: "4"},
	}

	tests := []struct {
		name    string
		query   string
		wantTop string
		wantLen int
	}{
		{"exact case-insensitive", "clear slide", "2", 1},
		{"fuzzy subsequence", "cntdwn", "3", 1},
		{"matches id when unnamed", "4", "4", 1},
		{"no match", "xyz", "", 0},
		{"blank query", "  ", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FuzzyMatcher{}.Rank(tt.query, candidates)
			if len(got) != tt.wantLen {
				t.Fatalf("Rank(%q) returned %d results, want %d", tt.query, len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].ID != tt.wantTop {
				t.Errorf("Rank(%q)[0] = %s, want %s", tt.query, got[0].ID, tt.wantTop)
			}
		})
	}
}

func TestTemplateExpander(t *testing.T) {
	e := NewTemplateExpander(map[string]ValueFunc{
		"Song": func() string { return "Amazing Grace" },
	})

	if got := e.Expand("Play {song}"); got != "Play Amazing Grace" {
		t.Errorf("Expand() = %q, want %q", got, "Play Amazing Grace")
	}
	if got := e.Expand("Keep {unknown}"); got != "Keep {unknown}" {
		t.Errorf("Expand() = %q, want placeholder kept", got)
	}
	if got := e.Expand("At {date}"); strings.Contains(got, "{") {
		t.Errorf("Expand() = %q, want date expanded", got)
	}
}
