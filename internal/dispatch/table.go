package dispatch

import (
	"sort"
	"sync"
)

// Handler performs the effect of one trigger. Handlers must not block the
// caller for longer than it takes to hand the work off.
type Handler func(payload any)

// Table is a concurrency-safe map from canonical trigger key to Handler.
type Table struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{handlers: make(map[string]Handler)}
}

// Register binds key to h, replacing any previous handler.
// Empty keys and nil handlers are ignored.
func (t *Table) Register(key string, h Handler) {
	if key == "" || h == nil {
		return
	}
	t.mu.Lock()
	t.handlers[key] = h
	t.mu.Unlock()
}

// Unregister removes the handler for key.
func (t *Table) Unregister(key string) {
	t.mu.Lock()
	delete(t.handlers, key)
	t.mu.Unlock()
}

// Lookup returns the handler registered for key.
func (t *Table) Lookup(key string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[key]
	return h, ok
}

// Keys returns the registered keys in sorted order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	keys := make([]string, 0, len(t.handlers))
	for k := range t.handlers {
		keys = append(keys, k)
	}
	t.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Len returns the number of registered handlers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}
