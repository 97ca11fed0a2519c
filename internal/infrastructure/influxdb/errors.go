package influxdb

import "errors"

// Sentinel errors. Check with errors.Is.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	// Callers treat it as "run without metrics".
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
