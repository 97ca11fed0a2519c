package influxdb

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// fakeWriter captures points as line protocol.
type fakeWriter struct {
	mu      sync.Mutex
	lines   []string
	flushes int
}

func (w *fakeWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	w.lines = append(w.lines, write.PointToLineProtocol(p, time.Nanosecond))
	w.mu.Unlock()
}

func (w *fakeWriter) Flush() {
	w.mu.Lock()
	w.flushes++
	w.mu.Unlock()
}

func (w *fakeWriter) snapshot() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.lines...)
}

func TestRecordTrigger(t *testing.T) {
	w := &fakeWriter{}
	c := newWithWriter(w)

	at := time.Unix(1700000000, 0)
	c.RecordTrigger("a1", "next_slide", at)

	lines := w.snapshot()
	if len(lines) != 1 {
		t.Fatalf("got %d points, want 1", len(lines))
	}
	line := lines[0]
	for _, want := range []string{"action_triggers,", "action_id=a1", "trigger=next_slide", "count=1i", "1700000000000000000"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestRecordRun(t *testing.T) {
	w := &fakeWriter{}
	c := newWithWriter(w)

	c.RecordRun("", 3, 1500*time.Millisecond)

	lines := w.snapshot()
	if len(lines) != 1 {
		t.Fatalf("got %d points, want 1", len(lines))
	}
	line := lines[0]
	for _, want := range []string{"action_runs,", "action_id=adhoc", "triggers=3i", "elapsed_ms=1500"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestWritesDroppedAfterClose(t *testing.T) {
	w := &fakeWriter{}
	c := newWithWriter(w)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if w.flushes != 1 {
		t.Errorf("Close() flushed %d times, want 1", w.flushes)
	}

	c.RecordTrigger("a1", "clear_all", time.Now())
	c.Flush()

	if len(w.snapshot()) != 0 {
		t.Error("point written after Close()")
	}
	if w.flushes != 1 {
		t.Error("Flush() after Close() should be a no-op")
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	c := newWithWriter(&fakeWriter{})

	// No server behind a fake writer.
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHandleWriteErrors(t *testing.T) {
	c := newWithWriter(&fakeWriter{})

	got := make(chan error, 1)
	c.SetOnError(func(err error) { got <- err })

	ch := make(chan error, 1)
	want := errors.New("bucket not found")
	ch <- want
	close(ch)
	c.handleWriteErrors(ch)

	select {
	case err := <-got:
		if err != want {
			t.Errorf("callback error = %v, want %v", err, want)
		}
	default:
		t.Error("error callback not invoked")
	}
}
