package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementSensorReadings is the measurement every radio record lands in.
const MeasurementSensorReadings = "sensor_readings"

// SensorReading is one decoded radio record plus its reception metadata.
type SensorReading struct {
	Node       int
	Sensor     int
	Counter    uint32
	FloatA     float32
	FloatB     float32
	RSSI       int
	ReceivedAt time.Time
}

// WriteSensorReading queues a reading for the next batch.
// Tags are node and sensor; the four record variables become fields.
func (c *Client) WriteSensorReading(r SensorReading) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(readingPoint(r))
}

// WritePoint queues a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func readingPoint(r SensorReading) *write.Point {
	ts := r.ReceivedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	return write.NewPoint(
		MeasurementSensorReadings,
		map[string]string{
			"node":   strconv.Itoa(r.Node),
			"sensor": strconv.Itoa(r.Sensor),
		},
		map[string]interface{}{
			"counter": r.Counter,
			"float_a": r.FloatA,
			"float_b": r.FloatB,
			"rssi":    r.RSSI,
		},
		ts,
	)
}
