package action

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Matcher ranks candidate actions against a query, best match first.
type Matcher interface {
	Rank(query string, candidates []Action) []Action
}

// FuzzyMatcher ranks actions by name. Case-insensitive exact matches come
// first, followed by fuzzy matches in score order. Actions without a name
// are matched on their id.
type FuzzyMatcher struct{}

// Rank implements Matcher.
func (FuzzyMatcher) Rank(query string, candidates []Action) []Action {
	query = strings.TrimSpace(query)
	if query == "" || len(candidates) == 0 {
		return nil
	}

	ranked := make([]Action, 0, len(candidates))
	taken := make(map[int]struct{})
	for i := range candidates {
		if strings.EqualFold(label(&candidates[i]), query) {
			ranked = append(ranked, candidates[i])
			taken[i] = struct{}{}
		}
	}

	for _, m := range fuzzy.FindFrom(query, actionLabels(candidates)) {
		if _, dup := taken[m.Index]; dup {
			continue
		}
		ranked = append(ranked, candidates[m.Index])
	}
	return ranked
}

// actionLabels adapts a slice of actions to fuzzy.Source.
type actionLabels []Action

func (a actionLabels) String(i int) string { return label(&a[i]) }
func (a actionLabels) Len() int            { return len(a) }

func label(a *Action) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
