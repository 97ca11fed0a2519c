package action

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/show-logic-core/internal/dispatch"
)

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// mockRepository is an in-memory implementation of Repository for testing.
type mockRepository struct {
	actions map[string]*Action
	updates int
	mu      sync.RWMutex
}

func newMockRepository(actions ...Action) *mockRepository {
	m := &mockRepository{actions: make(map[string]*Action)}
	for i := range actions {
		m.actions[actions[i].ID] = actions[i].DeepCopy()
	}
	return m
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actions[id]
	if !ok {
		return nil, ErrActionNotFound
	}
	return a.DeepCopy(), nil
}

func (m *mockRepository) List(_ context.Context) ([]Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Action, 0, len(m.actions))
	for _, a := range m.actions {
		out = append(out, *a.DeepCopy())
	}
	return out, nil
}

func (m *mockRepository) Create(_ context.Context, a *Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.actions[a.ID]; exists {
		return ErrActionExists
	}
	m.actions[a.ID] = a.DeepCopy()
	return nil
}

func (m *mockRepository) Update(_ context.Context, a *Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.actions[a.ID]; !exists {
		return ErrActionNotFound
	}
	m.actions[a.ID] = a.DeepCopy()
	m.updates++
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.actions[id]; !exists {
		return ErrActionNotFound
	}
	delete(m.actions, id)
	return nil
}

// call is one recorded handler invocation.
type call struct {
	trigger string
	payload any
	at      time.Time
}

// recorder collects handler invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) handler(trigger string) dispatch.Handler {
	return func(payload any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, call{trigger: trigger, payload: payload, at: time.Now()})
	}
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]call, len(r.calls))
	copy(out, r.calls)
	return out
}

// mockNotifier counts notifications.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *mockNotifier) Notify(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, key)
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// mockSlides returns fixed overlay ids.
type mockSlides struct {
	overlays map[int][]string
}

func (s mockSlides) SlideOverlays(slideIndex int) ([]string, bool) {
	ids, ok := s.overlays[slideIndex]
	return ids, ok
}

// ─── Fixtures ───────────────────────────────────────────────────────────────

type testRig struct {
	engine   *Engine
	registry *Registry
	repo     *mockRepository
	table    *dispatch.Table
	calls    *recorder
	notifier *mockNotifier
}

// newTestRig builds an engine over a registry loaded with actions and a
// dispatch table where every listed trigger records its calls.
func newTestRig(t *testing.T, cfg EngineConfig, triggers []string, actions ...Action) *testRig {
	t.Helper()

	repo := newMockRepository(actions...)
	registry := NewRegistry(repo)
	if err := registry.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}

	rec := &recorder{}
	table := dispatch.NewTable()
	for _, trig := range triggers {
		table.Register(trig, rec.handler(trig))
	}

	notifier := &mockNotifier{}
	engine, err := NewEngine(EngineOptions{
		Store:      registry,
		Dispatcher: table,
		Notifier:   notifier,
		Config:     cfg,
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(engine.Close)

	return &testRig{
		engine:   engine,
		registry: registry,
		repo:     repo,
		table:    table,
		calls:    rec,
		notifier: notifier,
	}
}

// fastConfig keeps timings short but measurable.
func fastConfig() EngineConfig {
	return EngineConfig{
		RunningLinger:   20 * time.Millisecond,
		ClearSlideDelay: 10 * time.Millisecond,
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
