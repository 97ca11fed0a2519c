// Package influxdb records action engine metrics to InfluxDB v2.
//
// *Client implements the engine's Recorder: every dispatched trigger and
// every finished run becomes a point in the configured bucket, so an
// operator can chart which cues fired during a show and how long each
// action took.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without metrics
//	}
//	defer client.Close()
//
// Writes are batched (batch_size, flush_interval) and never block a run.
package influxdb
