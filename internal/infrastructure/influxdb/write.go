package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementNotifications = "notifications"
	MeasurementSessions      = "ws_sessions"
)

// WriteBroadcastStats records the outcome of one notification fan-out.
//
//	client.WriteBroadcastStats("inkwell-001", 3, 2, 1)
//	// notifications,site=inkwell-001 attempted=3i,delivered=2i,dropped=1i
func (c *Client) WriteBroadcastStats(site string, attempted, delivered, dropped int) {
	c.WritePoint(MeasurementNotifications,
		map[string]string{"site": site},
		map[string]any{
			"attempted": attempted,
			"delivered": delivered,
			"dropped":   dropped,
		})
}

// WriteSessionCount records the number of open notification sockets.
func (c *Client) WriteSessionCount(site string, sessions int) {
	c.WritePoint(MeasurementSessions,
		map[string]string{"site": site},
		map[string]any{"count": sessions})
}

// WritePoint writes a point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp. Writes on a
// closed client are dropped.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
