// Package influxdb provides optional call telemetry for the HAL bridge.
//
// This package manages:
//   - Connection to InfluxDB v2 with token authentication
//   - Non-blocking batched metric writes
//   - Asynchronous write error reporting via callback
//
// Telemetry is disabled by default and the bridge is fully functional
// without it. No module state is stored here; the measurements record
// only per-call durations and helper lifecycle events.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer client.Close()
//
//	client.WriteCallMetric("get_parameters", elapsed, true)
package influxdb
