package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/show-logic-core/internal/infrastructure/mqtt"
)

// defaultQueueSize bounds the number of trigger commands waiting to be published.
const defaultQueueSize = 256

// ErrPublisherClosed is returned by Enqueue after Close.
var ErrPublisherClosed = errors.New("dispatch: publisher closed")

// ErrQueueFull is returned by Enqueue when the publish queue is full.
var ErrQueueFull = errors.New("dispatch: publish queue full")

// MQTTClient is the subset of the MQTT client used for publishing.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by the publisher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Command is the JSON body published for a trigger.
type Command struct {
	CommandID string `json:"command_id"`
	Trigger   string `json:"trigger"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Publisher forwards trigger payloads to MQTT.
//
// Handlers only enqueue; a single worker goroutine publishes in enqueue
// order, so triggers of one action reach the broker in sequence even though
// the engine never waits for the broker.
type Publisher struct {
	client MQTTClient
	qos    byte
	logger Logger

	queue  chan Command
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewPublisher creates a Publisher. queueSize <= 0 selects the default.
func NewPublisher(client MQTTClient, qos byte, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Publisher{
		client: client,
		qos:    qos,
		logger: noopLogger{},
		queue:  make(chan Command, queueSize),
		done:   make(chan struct{}),
	}
}

// SetLogger sets the logger for the publisher.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Start runs the publishing worker until ctx is cancelled or Close is called.
func (p *Publisher) Start(ctx context.Context) {
	go p.run(ctx)
}

// Close stops accepting commands and waits for the worker to drain the queue.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	<-p.done
}

// Enqueue schedules a trigger payload for publishing. It never blocks.
func (p *Publisher) Enqueue(trigger string, payload any) error {
	cmd := Command{
		CommandID: uuid.NewString(),
		Trigger:   trigger,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Handler returns a dispatch handler that enqueues payloads for trigger.
func (p *Publisher) Handler(trigger string) Handler {
	return func(payload any) {
		if err := p.Enqueue(trigger, payload); err != nil {
			p.logger.Warn("trigger not forwarded", "trigger", trigger, "error", err)
		}
	}
}

// RegisterAll binds an MQTT-forwarding handler for every key in triggers.
// Keys already present in the table are left untouched so in-process
// handlers take precedence.
func (p *Publisher) RegisterAll(t *Table, triggers []string) {
	for _, key := range triggers {
		if _, exists := t.Lookup(key); exists {
			continue
		}
		t.Register(key, p.Handler(key))
	}
}

func (p *Publisher) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case cmd, ok := <-p.queue:
			if !ok {
				return
			}
			p.publish(cmd)
		case <-ctx.Done():
			// Drain whatever is already queued before exiting.
			for {
				select {
				case cmd, ok := <-p.queue:
					if !ok {
						return
					}
					p.publish(cmd)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) publish(cmd Command) {
	body, err := json.Marshal(cmd)
	if err != nil {
		p.logger.Error("marshalling trigger command", "trigger", cmd.Trigger, "error", err)
		return
	}

	topic := mqtt.Topics{}.Trigger(cmd.Trigger)
	if err := p.client.Publish(topic, body, p.qos, false); err != nil {
		p.logger.Error("publishing trigger command", "topic", topic, "error", err)
		return
	}
	p.logger.Debug("trigger command published", "topic", topic, "command_id", cmd.CommandID)
}
