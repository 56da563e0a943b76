package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteConnectionEvent records one observed connection transition.
//
// The write is non-blocking; points are batched and sent asynchronously.
//
// Example:
//
//	client.WriteConnectionEvent("AA:BB:CC:DD:EE:FF", "connected", time.Now())
func (c *Client) WriteConnectionEvent(address, event string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"connection_events",
		map[string]string{
			"address": address,
			"event":   event,
		},
		map[string]interface{}{
			"count": 1,
		},
		at,
	)
	c.writeAPI.WritePoint(point)
}

// WriteSessionDuration records how long a completed connection session
// lasted, from observed connect to observed disconnect.
func (c *Client) WriteSessionDuration(address string, duration time.Duration, endedAt time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"connection_sessions",
		map[string]string{
			"address": address,
		},
		map[string]interface{}{
			"duration_seconds": duration.Seconds(),
		},
		endedAt,
	)
	c.writeAPI.WritePoint(point)
}
