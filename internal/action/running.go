package action

import "github.com/nerrad567/show-logic-core/internal/store"

// RunningSet is the ordered list of action ids currently running.
//
// An id is appended once per run and removed once per completion. The same
// id may appear several times when runs overlap; removal always takes the
// first occurrence, so it is not tied to the run that finished.
type RunningSet struct {
	ids *store.Value[[]string]
}

// NewRunningSet creates an empty running set.
func NewRunningSet() *RunningSet {
	return &RunningSet{ids: store.New([]string{})}
}

// Add appends id.
func (r *RunningSet) Add(id string) {
	r.ids.Update(func(cur []string) []string {
		next := make([]string, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, id)
	})
}

// AddBelow appends id unless it already appears limit times, and reports
// whether it was added.
func (r *RunningSet) AddBelow(id string, limit int) bool {
	added := false
	r.ids.Update(func(cur []string) []string {
		if countOf(cur, id) >= limit {
			return cur
		}
		added = true
		next := make([]string, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, id)
	})
	return added
}

// Remove deletes the first occurrence of id and reports whether one existed.
func (r *RunningSet) Remove(id string) bool {
	removed := false
	r.ids.Update(func(cur []string) []string {
		for i, v := range cur {
			if v != id {
				continue
			}
			removed = true
			next := make([]string, 0, len(cur)-1)
			next = append(next, cur[:i]...)
			return append(next, cur[i+1:]...)
		}
		return cur
	})
	return removed
}

// Snapshot returns a copy of the running ids in start order.
func (r *RunningSet) Snapshot() []string {
	cur := r.ids.Get()
	out := make([]string, len(cur))
	copy(out, cur)
	return out
}

// Contains reports whether id is running.
func (r *RunningSet) Contains(id string) bool {
	return r.Count(id) > 0
}

// Count returns how many runs of id are in progress.
func (r *RunningSet) Count(id string) int {
	return countOf(r.ids.Get(), id)
}

// Subscribe delivers the running ids after every change.
// The received slices must not be modified.
func (r *RunningSet) Subscribe(buf int) (<-chan []string, func()) {
	return r.ids.Subscribe(buf)
}

func countOf(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
