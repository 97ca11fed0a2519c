package action

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"

	"github.com/nerrad567/show-logic-core/internal/store"
)

// HistoryLog is a newest-first record of dispatched triggers.
//
// A trigger whose key and payload equal the newest entry does not add a
// new entry; the newest entry's Count is incremented and its Time refreshed.
type HistoryLog struct {
	entries *store.Value[[]HistoryEntry]
	limit   int
	now     func() time.Time
}

// NewHistoryLog creates an empty log keeping at most limit entries.
// limit <= 0 keeps everything.
func NewHistoryLog(limit int) *HistoryLog {
	return &HistoryLog{
		entries: store.New([]HistoryEntry{}),
		limit:   limit,
		now:     time.Now,
	}
}

// Record adds a dispatched trigger and returns the resulting newest entry.
func (h *HistoryLog) Record(trigger string, data any) HistoryEntry {
	data = deepCopyValue(data)
	now := h.now()

	var newest HistoryEntry
	h.entries.Update(func(cur []HistoryEntry) []HistoryEntry {
		if len(cur) > 0 && cur[0].Action == trigger && samePayload(cur[0].Data, data) {
			next := make([]HistoryEntry, len(cur))
			copy(next, cur)
			next[0].Count++
			next[0].Time = now
			newest = next[0]
			return next
		}

		newest = HistoryEntry{Action: trigger, Data: data, Time: now, Count: 1}
		size := len(cur) + 1
		if h.limit > 0 && size > h.limit {
			size = h.limit
		}
		next := make([]HistoryEntry, 0, size)
		next = append(next, newest)
		return append(next, cur[:size-1]...)
	})
	return newest
}

// Entries returns a copy of the log, newest first.
func (h *HistoryLog) Entries() []HistoryEntry {
	cur := h.entries.Get()
	out := make([]HistoryEntry, len(cur))
	copy(out, cur)
	return out
}

// Len returns the number of entries.
func (h *HistoryLog) Len() int {
	return len(h.entries.Get())
}

// Clear empties the log.
func (h *HistoryLog) Clear() {
	h.entries.Set([]HistoryEntry{})
}

// Subscribe delivers the log after every change.
// The received slices must not be modified.
func (h *HistoryLog) Subscribe(buf int) (<-chan []HistoryEntry, func()) {
	return h.entries.Subscribe(buf)
}

// samePayload compares payloads by their JSON encoding, which ignores map
// ordering and treats numbers by value.
func samePayload(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ja, jb)
}
