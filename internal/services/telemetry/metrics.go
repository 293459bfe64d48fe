package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readingsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_readings_ingested_total",
		Help: "Readings written to the latest cache, by metric.",
	}, []string{"metric"})

	influxWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_influx_write_errors_total",
		Help: "Failed InfluxDB point writes.",
	})

	aggregatesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_aggregates_published_total",
		Help: "Zone averages published on the bus.",
	})

	sensorAlertsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_sensor_alerts_published_total",
		Help: "Out-of-range alerts published on the bus.",
	})
)
