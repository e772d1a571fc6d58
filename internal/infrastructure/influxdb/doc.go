// Package influxdb records notification delivery telemetry in InfluxDB.
//
// Each broadcast produces one "notifications" point with attempted,
// delivered and dropped counts, tagged with the site id, so operators can
// see when slow sockets start shedding messages. Writes go through the
// non-blocking batched write API and never slow the broadcast path.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteBroadcastStats("inkwell-001", 3, 3, 0)
//
// All methods are safe for concurrent use.
package influxdb
