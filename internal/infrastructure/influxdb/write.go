package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementTrigger = "action_triggers"
	MeasurementRun     = "action_runs"
)

// RecordTrigger writes one point per dispatched trigger:
//
//	action_triggers,action_id=a1,trigger=next_slide count=1i
//
// Ad-hoc actions without an id are tagged action_id=adhoc.
func (c *Client) RecordTrigger(actionID, trigger string, at time.Time) {
	c.WritePointWithTime(MeasurementTrigger,
		map[string]string{
			"action_id": actionTag(actionID),
			"trigger":   trigger,
		},
		map[string]any{"count": 1},
		at,
	)
}

// RecordRun writes one point per finished run with its trigger count
// and wall-clock duration.
func (c *Client) RecordRun(actionID string, triggers int, elapsed time.Duration) {
	c.WritePoint(MeasurementRun,
		map[string]string{"action_id": actionTag(actionID)},
		map[string]any{
			"triggers":   triggers,
			"elapsed_ms": float64(elapsed) / float64(time.Millisecond),
		},
	)
}

func actionTag(id string) string {
	if id == "" {
		return "adhoc"
	}
	return id
}

// WritePoint writes a point stamped now. Dropped while disconnected.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() || c.writer == nil {
		return
	}
	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
