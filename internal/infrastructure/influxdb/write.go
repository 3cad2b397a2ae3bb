package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCallMetric records one parameter RPC served by the gateway.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - method: RPC method name ("get_parameters" or "set_parameters")
//   - duration: Wall time spent serving the call, device lock included
//   - success: Whether the call produced a success reply
//
// Example:
//
//	client.WriteCallMetric("get_parameters", 840*time.Microsecond, true)
func (c *Client) WriteCallMetric(method string, duration time.Duration, success bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"parameter_calls",
		map[string]string{
			"method": method,
		},
		map[string]interface{}{
			"duration_us": duration.Microseconds(),
			"success":     success,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteHelperEvent records a helper process lifecycle event.
//
// Parameters:
//   - event: Event name (e.g., "started", "drained", "stopped")
//   - pid: Process ID of the helper, 0 if not applicable
func (c *Client) WriteHelperEvent(event string, pid int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"helper_events",
		map[string]string{
			"event": event,
		},
		map[string]interface{}{
			"pid": pid,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
