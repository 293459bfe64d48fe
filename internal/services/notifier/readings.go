package notifier

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/agrovive/greenhouse-live/internal/ws"
)

// ReadingSink receives decoded readings for live delivery. *ws.Hub
// satisfies it.
type ReadingSink interface {
	Broadcast(scope ws.Scope, msgType string, data any)
}

// NewReadingHandler returns a bus handler that relays sensor readings onto
// the sink as "reading" frames, scoped to their zone. Readings are at-most-
// once live data, so there is no dedupe and no store behind them.
func NewReadingHandler(sink ReadingSink, metrics *Metrics) func(topic string, m mqtt.Message) error {
	return func(topic string, m mqtt.Message) error {
		r, ok, err := DecodeReading(topic, m.Payload())
		if err != nil {
			metrics.Unknown.Inc()
			return err
		}
		if !ok {
			metrics.Unknown.Inc()
			return nil
		}
		metrics.Readings.Inc()
		sink.Broadcast(ws.Scope{GreenhouseID: r.GreenhouseID, ZoneID: r.ZoneID}, ws.MessageTypeReading, r)
		return nil
	}
}
