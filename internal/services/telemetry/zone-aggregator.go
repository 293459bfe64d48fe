package telemetry

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrovive/greenhouse-live/internal/model"
	"github.com/agrovive/greenhouse-live/pkg/logging"
	"github.com/agrovive/greenhouse-live/pkg/mqttbus"
)

// PublisherFactory builds a publisher bound to one topic.
type PublisherFactory func(topic string) mqttbus.IPublisher

// ZoneAggregator buffers raw readings per (zone, metric), publishes the
// window average on sensor/aggregated/... every interval, and raises a
// sensor-alert event when the average crosses out of the configured range.
// Alerts fire on the crossing only, not on every out-of-range window.
type ZoneAggregator struct {
	makePublisher PublisherFactory
	interval      time.Duration

	mu         sync.Mutex
	buffer     map[string][]model.Reading
	outOfRange map[string]bool
}

func NewZoneAggregator(factory PublisherFactory, interval time.Duration) *ZoneAggregator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ZoneAggregator{
		makePublisher: factory,
		interval:      interval,
		buffer:        make(map[string][]model.Reading),
		outOfRange:    make(map[string]bool),
	}
}

// Offer buffers one raw reading for the next aggregation cycle. Aggregated
// readings are ignored to avoid feedback.
func (z *ZoneAggregator) Offer(r model.Reading) {
	if r.Aggregated {
		return
	}
	z.mu.Lock()
	key := cacheKey(r)
	z.buffer[key] = append(z.buffer[key], r)
	z.mu.Unlock()
}

// Start runs the aggregation ticker until ctx is done.
func (z *ZoneAggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(z.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			z.aggregateAndPublish()
		}
	}
}

func (z *ZoneAggregator) aggregateAndPublish() {
	z.mu.Lock()
	defer z.mu.Unlock()

	for key, readings := range z.buffer {
		if len(readings) == 0 {
			continue
		}
		sum := 0.0
		for _, r := range readings {
			sum += r.Value
		}
		last := readings[len(readings)-1]
		avg := model.Reading{
			GreenhouseID: last.GreenhouseID,
			ZoneID:       last.ZoneID,
			Metric:       last.Metric,
			Value:        sum / float64(len(readings)),
			Unit:         last.Unit,
			Min:          last.Min,
			Max:          last.Max,
			Aggregated:   true,
			Timestamp:    time.Now().UTC(),
		}

		z.publish("sensor/aggregated/"+avg.GreenhouseID+"/"+avg.ZoneID, avg)
		aggregatesPublished.Inc()

		wasOut := z.outOfRange[key]
		isOut := !avg.InBounds()
		z.outOfRange[key] = isOut
		if isOut && !wasOut {
			z.publishAlert(avg)
		}

		z.buffer[key] = readings[:0]
	}
}

func (z *ZoneAggregator) publish(topic string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := z.makePublisher(topic).Publish(b); err != nil {
		log := logging.Component("zone-aggregator")
		log.Error().Err(err).Str("topic", topic).Msg("publish error")
	}
}

func (z *ZoneAggregator) publishAlert(avg model.Reading) {
	alert := model.HardwareAlertEvent{
		ID:           uuid.NewString(),
		GreenhouseID: avg.GreenhouseID,
		ZoneID:       avg.ZoneID,
		Severity:     "warning",
		Title:        model.DefaultTitle(model.KindSensorAlert),
		Message:      alertMessage(avg),
		Timestamp:    avg.Timestamp,
	}
	b, err := json.Marshal(alert)
	if err != nil {
		return
	}
	topic := "event/sensorAlert/" + avg.GreenhouseID + "/" + avg.ZoneID
	if err := z.makePublisher(topic).Publish(b); err != nil {
		log := logging.Component("zone-aggregator")
		log.Error().Err(err).Str("topic", topic).Msg("alert publish error")
		return
	}
	sensorAlertsPublished.Inc()
}

func alertMessage(r model.Reading) string {
	var b strings.Builder
	b.WriteString("Promedio de ")
	b.WriteString(r.Metric)
	b.WriteString(" fuera de rango en zona ")
	b.WriteString(r.ZoneID)
	return b.String()
}
