// Package notify holds the operator notifications raised by the core,
// such as the "starting action" notice shown when startup actions run.
package notify

import (
	"context"
	"slices"

	"github.com/nerrad567/show-logic-core/internal/store"
)

// Publisher sends the pending list to the bus. *mqtt.Client satisfies it.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Logger is the subset of logging used here.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Center is the list of pending notification keys, oldest first.
// A key is pending at most once.
type Center struct {
	pending *store.Value[[]string]
	logger  Logger
}

// NewCenter creates an empty Center.
func NewCenter() *Center {
	return &Center{
		pending: store.New([]string{}),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for forwarding failures.
func (c *Center) SetLogger(l Logger) {
	if l != nil {
		c.logger = l
	}
}

// Notify adds key unless it is empty or already pending.
func (c *Center) Notify(key string) {
	if key == "" {
		return
	}
	c.pending.Update(func(cur []string) []string {
		if slices.Contains(cur, key) {
			return cur
		}
		next := make([]string, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, key)
	})
}

// Dismiss removes key and reports whether it was pending.
func (c *Center) Dismiss(key string) bool {
	found := false
	c.pending.Update(func(cur []string) []string {
		i := slices.Index(cur, key)
		if i < 0 {
			return cur
		}
		found = true
		next := make([]string, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		return append(next, cur[i+1:]...)
	})
	return found
}

// Clear dismisses everything.
func (c *Center) Clear() {
	c.pending.Set([]string{})
}

// Pending returns a copy of the pending keys.
func (c *Center) Pending() []string {
	return slices.Clone(c.pending.Get())
}

// Subscribe delivers the pending list after every change.
// The received slices must not be modified.
func (c *Center) Subscribe(buf int) (<-chan []string, func()) {
	return c.pending.Subscribe(buf)
}

// Forward publishes the pending list to topic (retained) after every
// change until ctx is done. It publishes the current list first.
func (c *Center) Forward(ctx context.Context, pub Publisher, topic string) {
	ch, cancel := c.Subscribe(0)
	defer cancel()

	publish := func(list []string) {
		if err := pub.PublishJSON(topic, list, true); err != nil {
			c.logger.Warn("publishing notifications failed", "topic", topic, "error", err)
		}
	}

	publish(c.Pending())
	for {
		select {
		case <-ctx.Done():
			return
		case list, ok := <-ch:
			if !ok {
				return
			}
			publish(list)
		}
	}
}
