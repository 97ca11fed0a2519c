package action

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/nerrad567/show-logic-core/internal/dispatch"
)

func TestNewEngine_RequiresDependencies(t *testing.T) {
	if _, err := NewEngine(EngineOptions{Dispatcher: dispatch.NewTable()}); err == nil {
		t.Error("NewEngine() without store: expected error")
	}
	if _, err := NewEngine(EngineOptions{Store: NewRegistry(newMockRepository())}); err == nil {
		t.Error("NewEngine() without dispatcher: expected error")
	}
}

func TestRun_NilAndEmptyActionsHaveNoEffect(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"next_slide"})

	rig.engine.Run(nil, DefaultRunOptions(), false)
	rig.engine.Run(&Action{ID: "empty"}, DefaultRunOptions(), false)
	rig.engine.Run(&Action{ID: "empty2", Triggers: []string{}}, DefaultRunOptions(), false)

	if started := rig.engine.Start(&Action{ID: "empty3"}, DefaultRunOptions(), false); started {
		t.Error("Start() on empty action = true, want false")
	}
	if got := rig.engine.Running().Snapshot(); len(got) != 0 {
		t.Errorf("running = %v, want empty", got)
	}
	if got := rig.engine.History().Len(); got != 0 {
		t.Errorf("history length = %d, want 0", got)
	}
	if got := len(rig.calls.snapshot()); got != 0 {
		t.Errorf("handler calls = %d, want 0", got)
	}
}

func TestRun_SequentialOrderWithWait(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"b", "c"})

	a := &Action{
		ID:       "seq",
		Triggers: []string{"wait", "b", "c"},
		ActionValues: map[string]any{
			"wait": map[string]any{"number": 0.05},
		},
	}

	start := time.Now()
	rig.engine.Run(a, DefaultRunOptions(), false)

	calls := rig.calls.snapshot()
	if len(calls) != 2 {
		t.Fatalf("handler calls = %d, want 2", len(calls))
	}
	if calls[0].trigger != "b" || calls[1].trigger != "c" {
		t.Errorf("call order = [%s %s], want [b c]", calls[0].trigger, calls[1].trigger)
	}
	if waited := calls[0].at.Sub(start); waited < 50*time.Millisecond {
		t.Errorf("b invoked after %v, want >= 50ms", waited)
	}
	if calls[1].at.Before(calls[0].at) {
		t.Error("c invoked before b")
	}
}

func TestRun_WaitIsNotDispatchedOrRecorded(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"wait"})

	rig.engine.Run(&Action{ID: "w", Triggers: []string{"wait"}}, DefaultRunOptions(), false)

	if got := len(rig.calls.snapshot()); got != 0 {
		t.Errorf("wait handler calls = %d, want 0", got)
	}
	if got := rig.engine.History().Len(); got != 0 {
		t.Errorf("history length = %d, want 0", got)
	}
}

func TestRun_HistoryCoalescing(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"start_show"})

	same := &Action{
		ID:           "show",
		Triggers:     []string{"start_show"},
		ActionValues: map[string]any{"start_show": map[string]any{"id": "s1"}},
	}
	rig.engine.Run(same, DefaultRunOptions(), false)
	rig.engine.Run(same, DefaultRunOptions(), false)

	entries := rig.engine.History().Entries()
	if len(entries) != 1 {
		t.Fatalf("history length = %d, want 1", len(entries))
	}
	if entries[0].Count != 2 {
		t.Errorf("Count = %d, want 2", entries[0].Count)
	}

	other := &Action{
		ID:           "show2",
		Triggers:     []string{"start_show"},
		ActionValues: map[string]any{"start_show": map[string]any{"id": "s2"}},
	}
	rig.engine.Run(other, DefaultRunOptions(), false)

	entries = rig.engine.History().Entries()
	if len(entries) != 2 {
		t.Fatalf("history length = %d, want 2", len(entries))
	}
	if entries[0].Count != 1 {
		t.Errorf("newest Count = %d, want 1", entries[0].Count)
	}
	if got := entries[0].Data.(map[string]any)["id"]; got != "s2" {
		t.Errorf("newest entry id = %v, want s2", got)
	}
}

func TestRun_RunningSetLifecycle(t *testing.T) {
	cfg := fastConfig()
	cfg.RunningLinger = 100 * time.Millisecond
	rig := newTestRig(t, cfg, []string{"next_slide"})

	a := &Action{
		ID:           "r1",
		Triggers:     []string{"wait", "next_slide"},
		ActionValues: map[string]any{"wait": map[string]any{"number": 0.03}},
	}

	if !rig.engine.Start(a, DefaultRunOptions(), false) {
		t.Fatal("Start() = false, want true")
	}
	if !rig.engine.Running().Contains("r1") {
		t.Fatal("action not running immediately after Start()")
	}

	waitFor(t, "next_slide dispatch", func() bool { return len(rig.calls.snapshot()) == 1 })
	if !rig.engine.Running().Contains("r1") {
		t.Error("action removed before the linger delay")
	}

	waitFor(t, "running set to empty", func() bool { return !rig.engine.Running().Contains("r1") })
}

func TestRun_OverlappingRunsTrackedSeparately(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"next_slide"})

	a := &Action{
		ID:           "dup",
		Triggers:     []string{"wait", "next_slide"},
		ActionValues: map[string]any{"wait": map[string]any{"number": 0.05}},
	}
	rig.engine.Start(a, DefaultRunOptions(), false)
	rig.engine.Start(a, DefaultRunOptions(), false)

	if got := rig.engine.Running().Count("dup"); got != 2 {
		t.Errorf("Count(dup) = %d, want 2", got)
	}
	waitFor(t, "both runs to clear", func() bool { return rig.engine.Running().Count("dup") == 0 })
}

func TestRun_ClearSlideDelay(t *testing.T) {
	cfg := fastConfig()
	cfg.ClearSlideDelay = 40 * time.Millisecond
	rig := newTestRig(t, cfg, []string{"clear_slide"})

	a := &Action{ID: "a1", Triggers: []string{"clear_slide"}, ActionValues: map[string]any{}}

	start := time.Now()
	rig.engine.Run(a, DefaultRunOptions(), false)
	if elapsed := rig.calls.snapshot()[0].at.Sub(start); elapsed < 40*time.Millisecond {
		t.Errorf("clear_slide dispatched after %v, want >= 40ms", elapsed)
	}

	start = time.Now()
	rig.engine.Run(a, DefaultRunOptions(), true)
	if elapsed := rig.calls.snapshot()[1].at.Sub(start); elapsed >= 40*time.Millisecond {
		t.Errorf("category clear_slide dispatched after %v, want no delay", elapsed)
	}
}

func TestRun_SuffixedTriggersUseOwnValues(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"start_audio_stream"})

	a := &Action{
		ID:       "streams",
		Triggers: []string{"start_audio_stream:1", "start_audio_stream:2"},
		ActionValues: map[string]any{
			"start_audio_stream:1": map[string]any{"id": "one"},
			"start_audio_stream:2": map[string]any{"id": "two"},
		},
	}
	rig.engine.Run(a, DefaultRunOptions(), false)

	calls := rig.calls.snapshot()
	if len(calls) != 2 {
		t.Fatalf("handler calls = %d, want 2", len(calls))
	}
	for i, want := range []string{"one", "two"} {
		if calls[i].trigger != "start_audio_stream" {
			t.Errorf("call %d trigger = %q, want start_audio_stream", i, calls[i].trigger)
		}
		if got := calls[i].payload.(map[string]any)["id"]; got != want {
			t.Errorf("call %d id = %v, want %s", i, got, want)
		}
	}
}

func TestRun_MissingPayloadDefaultsToEmptyObject(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"next_slide"})

	rig.engine.Run(&Action{ID: "n", Triggers: []string{"next_slide"}}, DefaultRunOptions(), false)

	payload, ok := rig.calls.snapshot()[0].payload.(map[string]any)
	if !ok || len(payload) != 0 {
		t.Errorf("payload = %#v, want empty map", rig.calls.snapshot()[0].payload)
	}
}

func TestRun_MidiIndexMerged(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"goto_slide"})

	values := map[string]any{"goto_slide": map[string]any{"index": 1, "layout": "main"}}
	a := &Action{ID: "m", Triggers: []string{"goto_slide"}, ActionValues: values}

	rig.engine.Run(a, RunOptions{MidiIndex: 7, SlideIndex: -1}, false)

	payload := rig.calls.snapshot()[0].payload.(map[string]any)
	if payload["index"] != 7 {
		t.Errorf("index = %v, want 7", payload["index"])
	}
	if payload["layout"] != "main" {
		t.Errorf("layout = %v, want main", payload["layout"])
	}
	if values["goto_slide"].(map[string]any)["index"] != 1 {
		t.Error("stored action values were modified")
	}
}

func TestRun_SendMIDIUnwrapped(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"send_midi"})

	midi := map[string]any{"type": "noteon", "note": 60}
	a := &Action{
		ID:           "midi",
		Triggers:     []string{"send_midi", "send_midi:raw"},
		ActionValues: map[string]any{"send_midi": map[string]any{"midi": midi}, "send_midi:raw": map[string]any{"note": 61}},
	}
	rig.engine.Run(a, DefaultRunOptions(), false)

	calls := rig.calls.snapshot()
	if !reflect.DeepEqual(calls[0].payload, midi) {
		t.Errorf("payload = %v, want %v", calls[0].payload, midi)
	}
	if got := calls[1].payload.(map[string]any)["note"]; got != 61 {
		t.Errorf("payload without midi field changed: %v", calls[1].payload)
	}
}

func TestRun_StartSlideTimersOverlayLookup(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"start_slide_timers"})
	rig.engine.slides = mockSlides{overlays: map[int][]string{2: {"ov1", "ov2"}}}

	original := map[string]any{"keep": true}
	a := &Action{ID: "t", Triggers: []string{"start_slide_timers"}, ActionValues: map[string]any{"start_slide_timers": original}}

	tests := []struct {
		name string
		opts RunOptions
		want any
	}{
		{"resolved slide", RunOptions{MidiIndex: -1, SlideIndex: 2}, map[string]any{"overlayIds": []string{"ov1", "ov2"}}},
		{"unresolved slide", RunOptions{MidiIndex: -1, SlideIndex: 9}, original},
		{"no slide context", DefaultRunOptions(), original},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig.engine.Run(a, tt.opts, false)
			got := rig.calls.snapshot()[i].payload
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("payload = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRun_DispatchMissContinues(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"after"})

	rig.engine.Run(&Action{ID: "miss", Triggers: []string{"unknown", "after"}}, DefaultRunOptions(), false)

	calls := rig.calls.snapshot()
	if len(calls) != 1 || calls[0].trigger != "after" {
		t.Errorf("calls = %v, want only after", calls)
	}
	if got := rig.engine.History().Entries(); len(got) != 1 || got[0].Action != "after" {
		t.Errorf("history = %v, want only after", got)
	}
}

func TestRun_HandlerPanicDoesNotStopSequence(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"after"})
	rig.table.Register("boom", func(any) { panic("handler failure") })

	rig.engine.Run(&Action{ID: "p", Triggers: []string{"boom", "after"}}, DefaultRunOptions(), false)

	if calls := rig.calls.snapshot(); len(calls) != 1 {
		t.Errorf("calls after panic = %d, want 1", len(calls))
	}
}

func TestEngine_CloseInterruptsWait(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"after"})

	a := &Action{
		ID:           "long",
		Triggers:     []string{"wait", "after"},
		ActionValues: map[string]any{"wait": map[string]any{"number": 30}},
	}
	rig.engine.Start(a, DefaultRunOptions(), false)

	done := make(chan struct{})
	go func() {
		rig.engine.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close() did not interrupt the wait")
	}
	if got := len(rig.calls.snapshot()); got != 0 {
		t.Errorf("calls after interrupted wait = %d, want 0", got)
	}
}

func TestEngine_NoRunsAfterClose(t *testing.T) {
	rig := newTestRig(t, fastConfig(), []string{"next_slide"})
	rig.engine.Close()

	a := &Action{ID: "late", Triggers: []string{"next_slide"}}
	if rig.engine.Start(a, DefaultRunOptions(), false) {
		t.Error("Start() after Close = true, want false")
	}
	rig.engine.Run(a, DefaultRunOptions(), false)

	time.Sleep(20 * time.Millisecond)
	if got := len(rig.calls.snapshot()); got != 0 {
		t.Errorf("calls after Close = %d, want 0", got)
	}
	if rig.engine.Running().Contains("late") {
		t.Error("late run left in the running set")
	}
}

func TestWaitDuration(t *testing.T) {
	tests := []struct {
		name string
		data any
		want time.Duration
	}{
		{"float seconds", map[string]any{"number": 1.5}, 1500 * time.Millisecond},
		{"int seconds", map[string]any{"number": 2}, 2 * time.Second},
		{"string seconds", map[string]any{"number": "0.25"}, 250 * time.Millisecond},
		{"missing", map[string]any{}, 0},
		{"negative", map[string]any{"number": -3}, 0},
		{"not an object", "5", 0},
		{"huge clamps", map[string]any{"number": 1e10}, time.Duration(math.MaxInt64)},
		{"infinite clamps", map[string]any{"number": math.Inf(1)}, time.Duration(math.MaxInt64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := waitDuration(tt.data); got != tt.want {
				t.Errorf("waitDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
