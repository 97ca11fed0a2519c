package remote

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/show-logic-core/internal/action"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/mqtt"
)

// ─── Mocks ──────────────────────────────────────────────────────────

type mockSubscriber struct {
	handlers map[string]mqtt.MessageHandler
	failOn   string
}

func (m *mockSubscriber) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if topic == m.failOn {
		return errors.New("broker refused")
	}
	if m.handlers == nil {
		m.handlers = make(map[string]mqtt.MessageHandler)
	}
	m.handlers[topic] = handler
	return nil
}

type engineCall struct {
	method string
	arg    string
	opts   action.RunOptions
	slide  *action.SlideActions
	index  int
}

type mockEngine struct {
	mu    sync.Mutex
	calls []engineCall
}

func (m *mockEngine) record(c engineCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *mockEngine) RunByID(_ context.Context, id string, opts action.RunOptions) bool {
	m.record(engineCall{method: "RunByID", arg: id, opts: opts})
	return true
}

func (m *mockEngine) RunByName(_ context.Context, name string) *action.Action {
	m.record(engineCall{method: "RunByName", arg: name})
	return nil
}

func (m *mockEngine) RunByCustomActivation(_ context.Context, tag string) int {
	m.record(engineCall{method: "RunByCustomActivation", arg: tag})
	return 0
}

func (m *mockEngine) RunCategory(_ context.Context, id string) bool {
	m.record(engineCall{method: "RunCategory", arg: id})
	return true
}

func (m *mockEngine) RunSlideActions(sa *action.SlideActions, slideIndex int) int {
	m.record(engineCall{method: "RunSlideActions", slide: sa, index: slideIndex})
	return len(sa.SlideActions)
}

func (m *mockEngine) last(t *testing.T) engineCall {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		t.Fatal("engine was not called")
	}
	return m.calls[len(m.calls)-1]
}

type mockState struct {
	output  []byte
	layouts map[string][]byte
	catalog map[string][]byte
	slides  map[int]*action.SlideActions
}

func newMockState() *mockState {
	return &mockState{
		layouts: make(map[string][]byte),
		catalog: make(map[string][]byte),
		slides:  make(map[int]*action.SlideActions),
	}
}

func (m *mockState) ApplyOutput(payload []byte) error {
	m.output = payload
	return nil
}

func (m *mockState) ApplyLayout(id string, payload []byte) error {
	m.layouts[id] = payload
	return nil
}

func (m *mockState) ApplyCatalog(kind string, payload []byte) error {
	m.catalog[kind] = payload
	return nil
}

func (m *mockState) SlideActions(i int) (*action.SlideActions, bool) {
	sa, ok := m.slides[i]
	return sa, ok
}

func startListener(t *testing.T, state State) (*mockSubscriber, *mockEngine) {
	t.Helper()
	sub := &mockSubscriber{}
	eng := &mockEngine{}
	l := NewListener(sub, eng, state, 1)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return sub, eng
}

// deliver invokes the handler registered for pattern with the concrete topic.
func deliver(t *testing.T, sub *mockSubscriber, pattern, topic string, payload string) error {
	t.Helper()
	h, ok := sub.handlers[pattern]
	if !ok {
		t.Fatalf("no handler subscribed for %s", pattern)
	}
	return h(topic, []byte(payload))
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestStart_SubscribesRoutes(t *testing.T) {
	sub, _ := startListener(t, newMockState())
	if len(sub.handlers) != 9 {
		t.Errorf("subscribed %d topics, want 9", len(sub.handlers))
	}

	sub, _ = startListener(t, nil)
	if len(sub.handlers) != 6 {
		t.Errorf("without state subscribed %d topics, want 6", len(sub.handlers))
	}
	if _, ok := sub.handlers[mqtt.Topics{}.StateOutput()]; ok {
		t.Error("state topic subscribed without a state store")
	}
}

func TestStart_SubscribeError(t *testing.T) {
	sub := &mockSubscriber{failOn: mqtt.Topics{}.EventMIDI()}
	l := NewListener(sub, &mockEngine{}, nil, 1)
	if err := l.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want subscribe failure")
	}
}

func TestActivateID(t *testing.T) {
	sub, eng := startListener(t, nil)
	topics := mqtt.Topics{}

	if err := deliver(t, sub, topics.AllActivateID(), topics.ActivateID("a1"), ""); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	got := eng.last(t)
	if got.method != "RunByID" || got.arg != "a1" {
		t.Errorf("call = %+v, want RunByID a1", got)
	}
	if got.opts != action.DefaultRunOptions() {
		t.Errorf("opts = %+v, want defaults", got.opts)
	}

	if err := deliver(t, sub, topics.AllActivateID(), topics.ActivateID("a2"), `{"midiIndex":4,"slideIndex":2}`); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	got = eng.last(t)
	if got.opts.MidiIndex != 4 || got.opts.SlideIndex != 2 {
		t.Errorf("opts = %+v, want midi 4 slide 2", got.opts)
	}

	err := deliver(t, sub, topics.AllActivateID(), topics.ActivateID("a3"), `not json`)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("bad payload error = %v, want ErrInvalidMessage", err)
	}
}

func TestActivateName(t *testing.T) {
	sub, eng := startListener(t, nil)
	topic := mqtt.Topics{}.ActivateName()

	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{"json body", `{"name":"Intro"}`, "Intro", false},
		{"bare name", "  Outro ", "Outro", false},
		{"empty", "", "", true},
		{"json without name", `{}`, "", true},
		{"broken json", `{"name":`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := deliver(t, sub, topic, topic, tt.payload)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMessage) {
					t.Errorf("error = %v, want ErrInvalidMessage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got := eng.last(t); got.method != "RunByName" || got.arg != tt.want {
				t.Errorf("call = %+v, want RunByName %q", got, tt.want)
			}
		})
	}
}

func TestActivateCustom(t *testing.T) {
	sub, eng := startListener(t, nil)
	topics := mqtt.Topics{}

	if err := deliver(t, sub, topics.AllActivateCustom(), topics.ActivateCustom("startup"), ""); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if got := eng.last(t); got.method != "RunByCustomActivation" || got.arg != "startup" {
		t.Errorf("call = %+v, want RunByCustomActivation startup", got)
	}
}

func TestMIDIEvent(t *testing.T) {
	sub, eng := startListener(t, nil)
	topic := mqtt.Topics{}.EventMIDI()

	if err := deliver(t, sub, topic, topic, `{"id":"a1","index":7}`); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	got := eng.last(t)
	if got.arg != "a1" || got.opts.MidiIndex != 7 {
		t.Errorf("call = %+v, want a1 with midi index 7", got)
	}

	if err := deliver(t, sub, topic, topic, `{"index":7}`); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("missing id error = %v, want ErrInvalidMessage", err)
	}
}

func TestSlideEvent(t *testing.T) {
	state := newMockState()
	state.slides[3] = &action.SlideActions{SlideActions: []action.SlideAction{
		{ID: "s1", Triggers: []string{"next_slide"}},
	}}
	sub, eng := startListener(t, state)
	topic := mqtt.Topics{}.EventSlide()

	t.Run("actions from layout", func(t *testing.T) {
		if err := deliver(t, sub, topic, topic, `{"index":3}`); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		got := eng.last(t)
		if got.method != "RunSlideActions" || got.index != 3 || got.slide != state.slides[3] {
			t.Errorf("call = %+v, want layout slide 3", got)
		}
	})

	t.Run("actions in payload", func(t *testing.T) {
		payload := `{"index":5,"slideActions":{"slideActions":[{"id":"x","triggers":["clear_all"]}]}}`
		if err := deliver(t, sub, topic, topic, payload); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		got := eng.last(t)
		if got.index != 5 || len(got.slide.SlideActions) != 1 || got.slide.SlideActions[0].ID != "x" {
			t.Errorf("call = %+v, want payload actions for slide 5", got)
		}
	})

	t.Run("slide without actions", func(t *testing.T) {
		before := len(eng.calls)
		if err := deliver(t, sub, topic, topic, `{"index":9}`); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if len(eng.calls) != before {
			t.Error("engine called for slide without actions")
		}
	})
}

func TestCategoryEvent(t *testing.T) {
	sub, eng := startListener(t, nil)
	topic := mqtt.Topics{}.EventCategory()

	if err := deliver(t, sub, topic, topic, `{"id":"cat-action"}`); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if got := eng.last(t); got.method != "RunCategory" || got.arg != "cat-action" {
		t.Errorf("call = %+v, want RunCategory cat-action", got)
	}
}

func TestStateTopics(t *testing.T) {
	state := newMockState()
	sub, _ := startListener(t, state)
	topics := mqtt.Topics{}

	if err := deliver(t, sub, topics.StateOutput(), topics.StateOutput(), `{"showId":"s"}`); err != nil {
		t.Fatal(err)
	}
	if string(state.output) != `{"showId":"s"}` {
		t.Errorf("output = %s", state.output)
	}

	if err := deliver(t, sub, topics.AllStateLayouts(), topics.StateLayout("L1"), `{"slides":[]}`); err != nil {
		t.Fatal(err)
	}
	if _, ok := state.layouts["L1"]; !ok {
		t.Error("layout L1 not applied")
	}

	if err := deliver(t, sub, topics.AllStateCatalogs(), topics.StateCatalog("shows"), `{}`); err != nil {
		t.Fatal(err)
	}
	if _, ok := state.catalog["shows"]; !ok {
		t.Error("catalog shows not applied")
	}
}
