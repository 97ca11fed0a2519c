package action

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/nerrad567/show-logic-core/internal/dispatch"
)

// Default timings.
const (
	// DefaultRunningLinger is how long an id stays in the running set after
	// its last trigger, so very short actions still show as running.
	DefaultRunningLinger = 20 * time.Millisecond

	// DefaultClearSlideDelay holds back clear_slide so a slide transition
	// in progress is not cleared mid-way.
	DefaultClearSlideDelay = 10 * time.Millisecond

	// DefaultMaxNestedRuns caps concurrent runs of one action started by
	// run_action triggers.
	DefaultMaxNestedRuns = 8
)

// StartupActivation is the custom activation tag run once at startup.
const StartupActivation = "startup"

// StartingActionNotice is sent when startup actions are run.
const StartingActionNotice = "$toast.starting_action"

// Store provides the actions the engine activates.
type Store interface {
	GetAction(ctx context.Context, id string) (*Action, error)
	ListActions(ctx context.Context) ([]Action, error)
	ToggleAction(ctx context.Context, id string, value *bool) (*Action, error)
}

// Dispatcher resolves a trigger key to its handler.
type Dispatcher interface {
	Lookup(key string) (dispatch.Handler, bool)
}

// SlideLookup resolves the overlay ids of a slide in the layout currently
// shown on the active output.
type SlideLookup interface {
	SlideOverlays(slideIndex int) ([]string, bool)
}

// Notifier shows a message to the operator.
type Notifier interface {
	Notify(key string)
}

// Recorder receives run metrics.
type Recorder interface {
	RecordTrigger(actionID, trigger string, at time.Time)
	RecordRun(actionID string, triggers int, elapsed time.Duration)
}

// EngineConfig holds the engine timings.
type EngineConfig struct {
	RunningLinger   time.Duration
	ClearSlideDelay time.Duration
	MaxNestedRuns   int
}

// DefaultEngineConfig returns the standard timings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RunningLinger:   DefaultRunningLinger,
		ClearSlideDelay: DefaultClearSlideDelay,
		MaxNestedRuns:   DefaultMaxNestedRuns,
	}
}

// EngineOptions wires an Engine. Store and Dispatcher are required.
type EngineOptions struct {
	Store      Store
	Dispatcher Dispatcher
	Running    *RunningSet
	History    *HistoryLog
	Slides     SlideLookup
	Notifier   Notifier
	Expander   Expander
	Matcher    Matcher
	Recorder   Recorder
	Logger     Logger
	Config     EngineConfig
}

// Engine runs actions.
//
// Each run executes its triggers strictly in order. Runs are independent of
// each other; nothing prevents the same action from running twice at once.
type Engine struct {
	store      Store
	dispatcher Dispatcher
	running    *RunningSet
	history    *HistoryLog
	slides     SlideLookup
	notifier   Notifier
	expander   Expander
	matcher    Matcher
	recorder   Recorder
	logger     Logger
	cfg        EngineConfig

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewEngine creates an action engine.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("action: engine requires a store")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("action: engine requires a dispatcher")
	}

	e := &Engine{
		store:      opts.Store,
		dispatcher: opts.Dispatcher,
		running:    opts.Running,
		history:    opts.History,
		slides:     opts.Slides,
		notifier:   opts.Notifier,
		expander:   opts.Expander,
		matcher:    opts.Matcher,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
		cfg:        opts.Config,
		done:       make(chan struct{}),
	}
	if e.running == nil {
		e.running = NewRunningSet()
	}
	if e.history == nil {
		e.history = NewHistoryLog(0)
	}
	if e.matcher == nil {
		e.matcher = FuzzyMatcher{}
	}
	if e.logger == nil {
		e.logger = noopLogger{}
	}
	if e.cfg.MaxNestedRuns <= 0 {
		e.cfg.MaxNestedRuns = DefaultMaxNestedRuns
	}
	return e, nil
}

// Running returns the running set.
func (e *Engine) Running() *RunningSet {
	return e.running
}

// History returns the history log.
func (e *Engine) History() *HistoryLog {
	return e.history
}

// Close interrupts pending waits and waits for started runs to finish.
// Runs interrupted this way skip their remaining triggers.
func (e *Engine) Close() {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.done)
	}
	e.mu.Unlock()
	e.wg.Wait()
}

// Run executes a's triggers and returns when the last one has been
// dispatched. A nil action or one without triggers is ignored, as is any
// run requested after Close.
func (e *Engine) Run(a *Action, opts RunOptions, isCategory bool) {
	if !e.begin(a, 0) {
		return
	}
	defer e.wg.Done()
	e.sequence(a, opts, isCategory)
}

// Start is like Run but returns as soon as the action is marked running;
// the triggers run on a separate goroutine. Reports whether a run started.
//
// Runs are not tied to any caller context: once started, only Close stops
// them.
func (e *Engine) Start(a *Action, opts RunOptions, isCategory bool) bool {
	return e.start(a, opts, isCategory, 0)
}

func (e *Engine) start(a *Action, opts RunOptions, isCategory bool, limit int) bool {
	if !e.begin(a, limit) {
		return false
	}

	a = a.DeepCopy()
	go func() {
		defer e.wg.Done()
		e.sequence(a, opts, isCategory)
	}()
	return true
}

// begin adds a to the running set and registers the run with Close. With a
// limit above zero it refuses when limit runs of a.ID are already in the
// set. The check, the add and the registration happen under e.mu, so no run
// begins once Close has started waiting.
func (e *Engine) begin(a *Action, limit int) bool {
	if a == nil || len(a.Triggers) == 0 {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.logger.Debug("run refused after close", "action_id", a.ID)
		return false
	}
	if limit > 0 {
		if !e.running.AddBelow(a.ID, limit) {
			e.logger.Warn("nested run refused", "action_id", a.ID, "limit", limit)
			return false
		}
	} else {
		e.running.Add(a.ID)
	}
	e.wg.Add(1)
	return true
}

func (e *Engine) sequence(a *Action, opts RunOptions, isCategory bool) {
	start := time.Now()
	defer e.finish(a.ID, len(a.Triggers), start)

	e.logger.Debug("action started", "action_id", a.ID, "triggers", len(a.Triggers))
	for _, ref := range a.Triggers {
		if !e.runTrigger(a, ref, opts, isCategory) {
			e.logger.Info("action interrupted by shutdown", "action_id", a.ID, "trigger", ref)
			return
		}
	}
}

// runTrigger resolves and dispatches one trigger. It returns false only when
// the engine is closing.
func (e *Engine) runTrigger(a *Action, ref string, opts RunOptions, isCategory bool) bool {
	data := resolvePayload(a.ActionValues[ref], opts.MidiIndex)
	key := TriggerID(ref)

	if key == TriggerWait {
		return e.sleep(waitDuration(data))
	}

	handler, ok := e.dispatcher.Lookup(key)
	if !ok {
		e.logger.Warn("no handler for trigger", "action_id", a.ID, "trigger", key)
		return true
	}

	switch key {
	case TriggerStartSlideTimers:
		if opts.SlideIndex > -1 && e.slides != nil {
			if overlays, found := e.slides.SlideOverlays(opts.SlideIndex); found {
				data = map[string]any{"overlayIds": overlays}
			}
		}
	case TriggerSendMIDI:
		if m, isMap := data.(map[string]any); isMap && m["midi"] != nil {
			data = m["midi"]
		}
	case TriggerClearSlide:
		if !isCategory && !e.sleep(e.cfg.ClearSlideDelay) {
			return false
		}
	}

	e.invoke(key, handler, data)
	e.history.Record(key, data)
	if e.recorder != nil {
		e.recorder.RecordTrigger(a.ID, key, time.Now())
	}
	return true
}

func (e *Engine) invoke(key string, h dispatch.Handler, data any) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("trigger handler panicked", "trigger", key, "panic", r)
		}
	}()
	h(data)
}

func (e *Engine) finish(id string, triggers int, start time.Time) {
	if e.recorder != nil {
		e.recorder.RecordRun(id, triggers, time.Since(start))
	}

	if e.cfg.RunningLinger <= 0 {
		e.running.Remove(id)
		return
	}
	time.AfterFunc(e.cfg.RunningLinger, func() {
		e.running.Remove(id)
	})
}

// sleep waits for d. It returns false if the engine closed first.
func (e *Engine) sleep(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-e.done:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-e.done:
		return false
	}
}

// resolvePayload defaults a missing payload to an empty object and merges
// the MIDI index when the run came from MIDI.
func resolvePayload(v any, midiIndex int) any {
	if v == nil {
		v = map[string]any{}
	}
	if midiIndex < 0 {
		return v
	}

	src, _ := v.(map[string]any)
	merged := make(map[string]any, len(src)+1)
	for k, val := range src {
		merged[k] = val
	}
	merged["index"] = midiIndex
	return merged
}

// waitDuration reads the "number" field of a wait payload as seconds.
func waitDuration(data any) time.Duration {
	m, ok := data.(map[string]any)
	if !ok {
		return 0
	}
	seconds, ok := toFloat(m["number"])
	if !ok || seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	ns := seconds * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}
