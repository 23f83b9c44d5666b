// Package influxdb stores decoded radio telemetry in InfluxDB v2.
//
// It is an optional sink: MQTT remains the primary output of the gateway,
// and a disabled or unreachable InfluxDB never stops the bridge loop.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without history
//	}
//	client.WriteSensorReading(influxdb.SensorReading{Node: 5, Sensor: 2, Counter: 100})
//
// Points use the "sensor_readings" measurement tagged by node and sensor.
package influxdb
