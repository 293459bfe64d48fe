package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposed on /metrics.
type Metrics struct {
	Ingested   *prometheus.CounterVec
	Duplicates prometheus.Counter
	Unknown    prometheus.Counter
	Readings   prometheus.Counter
	Clients    prometheus.GaugeFunc
}

func NewMetrics(reg prometheus.Registerer, clientCount func() int) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Ingested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_events_ingested_total",
			Help: "Notification events accepted, by kind.",
		}, []string{"kind"}),
		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifier_events_duplicate_total",
			Help: "Events suppressed because their id was already seen.",
		}),
		Unknown: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifier_events_unknown_total",
			Help: "Payloads dropped for unknown topic or malformed body.",
		}),
		Readings: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifier_readings_relayed_total",
			Help: "Sensor readings relayed onto the live socket.",
		}),
		Clients: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "notifier_ws_clients",
			Help: "Currently connected dashboard sockets.",
		}, func() float64 { return float64(clientCount()) }),
	}
}
