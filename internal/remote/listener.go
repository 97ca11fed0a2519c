// Package remote routes inbound MQTT traffic to the action engine and the
// mirrored show state: remote activations, presentation events and
// retained presentation state.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/show-logic-core/internal/action"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/mqtt"
)

// ErrInvalidMessage is returned by handlers for payloads they cannot use.
// The mqtt client logs it; nothing is retried.
var ErrInvalidMessage = errors.New("remote: invalid message")

// Subscriber is the part of *mqtt.Client the listener needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Engine is the part of *action.Engine the listener drives.
type Engine interface {
	RunByID(ctx context.Context, id string, opts action.RunOptions) bool
	RunByName(ctx context.Context, name string) *action.Action
	RunByCustomActivation(ctx context.Context, tag string) int
	RunCategory(ctx context.Context, id string) bool
	RunSlideActions(sa *action.SlideActions, slideIndex int) int
}

// State is the part of *showstate.Store the listener feeds.
type State interface {
	ApplyOutput(payload []byte) error
	ApplyLayout(layoutID string, payload []byte) error
	ApplyCatalog(kind string, payload []byte) error
	SlideActions(slideIndex int) (*action.SlideActions, bool)
}

// Logger is the subset of logging used here.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Listener subscribes to the inbound topics.
type Listener struct {
	sub    Subscriber
	engine Engine
	state  State
	qos    byte
	logger Logger

	ctx context.Context
}

// NewListener creates a Listener. state may be nil, in which case state
// topics are not subscribed and slide events must carry their actions.
func NewListener(sub Subscriber, engine Engine, state State, qos byte) *Listener {
	return &Listener{
		sub:    sub,
		engine: engine,
		state:  state,
		qos:    qos,
		logger: noopLogger{},
		ctx:    context.Background(),
	}
}

// SetLogger sets the logger.
func (l *Listener) SetLogger(logger Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// Start subscribes every route. ctx is passed to the engine for store
// lookups made by remote activations.
func (l *Listener) Start(ctx context.Context) error {
	l.ctx = ctx

	for _, r := range l.routes() {
		if err := l.sub.Subscribe(r.topic, l.qos, r.handler); err != nil {
			return fmt.Errorf("subscribing %s: %w", r.topic, err)
		}
	}
	l.logger.Info("remote listener subscribed", "routes", len(l.routes()))
	return nil
}

type route struct {
	topic   string
	handler mqtt.MessageHandler
}

func (l *Listener) routes() []route {
	t := mqtt.Topics{}
	routes := []route{
		{t.AllActivateID(), l.handleActivateID},
		{t.ActivateName(), l.handleActivateName},
		{t.AllActivateCustom(), l.handleActivateCustom},
		{t.EventMIDI(), l.handleMIDI},
		{t.EventSlide(), l.handleSlide},
		{t.EventCategory(), l.handleCategory},
	}
	if l.state != nil {
		routes = append(routes,
			route{t.StateOutput(), l.handleStateOutput},
			route{t.AllStateLayouts(), l.handleStateLayout},
			route{t.AllStateCatalogs(), l.handleStateCatalog},
		)
	}
	return routes
}

// ─── Activations ────────────────────────────────────────────────────

// activateIDMessage is the optional body of showlogic/activate/id/{id}.
type activateIDMessage struct {
	MidiIndex  *int `json:"midiIndex"`
	SlideIndex *int `json:"slideIndex"`
}

func (l *Listener) handleActivateID(topic string, payload []byte) error {
	id := mqtt.LastLevel(topic)
	if id == "" {
		return fmt.Errorf("%w: empty action id", ErrInvalidMessage)
	}

	opts := action.DefaultRunOptions()
	if len(strings.TrimSpace(string(payload))) > 0 {
		var msg activateIDMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		if msg.MidiIndex != nil {
			opts.MidiIndex = *msg.MidiIndex
		}
		if msg.SlideIndex != nil {
			opts.SlideIndex = *msg.SlideIndex
		}
	}

	if !l.engine.RunByID(l.ctx, id, opts) {
		l.logger.Debug("remote activation ignored", "action_id", id)
	}
	return nil
}

// handleActivateName accepts {"name":"..."} or a bare name.
func (l *Listener) handleActivateName(_ string, payload []byte) error {
	var msg struct {
		Name string `json:"name"`
	}
	name := strings.TrimSpace(string(payload))
	if strings.HasPrefix(name, "{") {
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		name = msg.Name
	}
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidMessage)
	}

	if a := l.engine.RunByName(l.ctx, name); a == nil {
		l.logger.Debug("no action matches remote name", "name", name)
	}
	return nil
}

func (l *Listener) handleActivateCustom(topic string, _ []byte) error {
	tag := mqtt.LastLevel(topic)
	if tag == "" {
		return fmt.Errorf("%w: empty activation tag", ErrInvalidMessage)
	}
	l.engine.RunByCustomActivation(l.ctx, tag)
	return nil
}

// ─── Presentation events ────────────────────────────────────────────

// midiMessage is published by the MIDI input service when a note bound to
// an action arrives.
type midiMessage struct {
	ID    string `json:"id"`
	Index *int   `json:"index"`
}

func (l *Listener) handleMIDI(_ string, payload []byte) error {
	var msg midiMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.ID == "" {
		return fmt.Errorf("%w: midi event without action id", ErrInvalidMessage)
	}

	opts := action.DefaultRunOptions()
	if msg.Index != nil {
		opts.MidiIndex = *msg.Index
	}
	l.engine.RunByID(l.ctx, msg.ID, opts)
	return nil
}

// slideMessage is published when a slide is shown. SlideActions may be
// omitted, in which case the slide's actions come from the mirrored layout.
type slideMessage struct {
	Index        int                  `json:"index"`
	SlideActions *action.SlideActions `json:"slideActions"`
}

func (l *Listener) handleSlide(_ string, payload []byte) error {
	var msg slideMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	sa := msg.SlideActions
	if sa == nil && l.state != nil {
		sa, _ = l.state.SlideActions(msg.Index)
	}
	if sa == nil {
		return nil
	}
	l.engine.RunSlideActions(sa, msg.Index)
	return nil
}

func (l *Listener) handleCategory(_ string, payload []byte) error {
	var msg struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.ID == "" {
		return nil
	}
	l.engine.RunCategory(l.ctx, msg.ID)
	return nil
}

// ─── Presentation state ─────────────────────────────────────────────

func (l *Listener) handleStateOutput(_ string, payload []byte) error {
	return l.state.ApplyOutput(payload)
}

func (l *Listener) handleStateLayout(topic string, payload []byte) error {
	return l.state.ApplyLayout(mqtt.LastLevel(topic), payload)
}

func (l *Listener) handleStateCatalog(topic string, payload []byte) error {
	return l.state.ApplyCatalog(mqtt.LastLevel(topic), payload)
}
