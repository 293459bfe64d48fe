package telemetry

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovive/greenhouse-live/internal/model"
	"github.com/agrovive/greenhouse-live/internal/model/messages"
	"github.com/agrovive/greenhouse-live/pkg/mqttbus"
)

type fakePublisher struct {
	mu       sync.Mutex
	payloads map[string][][]byte
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{payloads: map[string][][]byte{}}
}

func (f *fakePublisher) factory(topic string) mqttbus.IPublisher {
	return &topicPublisher{parent: f, topic: topic}
}

func (f *fakePublisher) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.payloads))
	for t := range f.payloads {
		out = append(out, t)
	}
	return out
}

type topicPublisher struct {
	parent *fakePublisher
	topic  string
}

func (t *topicPublisher) Publish(payload []byte) error {
	t.parent.mu.Lock()
	t.parent.payloads[t.topic] = append(t.parent.payloads[t.topic], payload)
	t.parent.mu.Unlock()
	return nil
}

func (t *topicPublisher) Close() {}

func reading(zone string, value float64) model.Reading {
	return model.Reading{
		GreenhouseID: "gh1", ZoneID: zone, Metric: "humidity",
		Value: value, Min: 30, Max: 70, Timestamp: time.Now(),
	}
}

func TestAggregatorPublishesZoneAverage(t *testing.T) {
	pub := newFakePublisher()
	agg := NewZoneAggregator(pub.factory, time.Minute)

	agg.Offer(reading("z7", 40))
	agg.Offer(reading("z7", 60))
	agg.aggregateAndPublish()

	payloads := pub.payloads["sensor/aggregated/gh1/z7"]
	require.Len(t, payloads, 1)

	var out model.Reading
	require.NoError(t, json.Unmarshal(payloads[0], &out))
	assert.Equal(t, 50.0, out.Value)
	assert.True(t, out.Aggregated)

	// buffer drained: next cycle publishes nothing
	agg.aggregateAndPublish()
	assert.Len(t, pub.payloads["sensor/aggregated/gh1/z7"], 1)
}

func TestAggregatorAlertsOnRangeCrossingOnly(t *testing.T) {
	pub := newFakePublisher()
	agg := NewZoneAggregator(pub.factory, time.Minute)

	// in range: no alert
	agg.Offer(reading("z7", 50))
	agg.aggregateAndPublish()
	assert.Empty(t, pub.payloads["event/sensorAlert/gh1/z7"])

	// crosses out: one alert
	agg.Offer(reading("z7", 90))
	agg.aggregateAndPublish()
	require.Len(t, pub.payloads["event/sensorAlert/gh1/z7"], 1)

	var alert messages.HardwareAlertEvent
	require.NoError(t, json.Unmarshal(pub.payloads["event/sensorAlert/gh1/z7"][0], &alert))
	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, "z7", alert.ZoneID)
	assert.Equal(t, "warning", alert.Severity)

	// still out: no repeat alert
	agg.Offer(reading("z7", 95))
	agg.aggregateAndPublish()
	assert.Len(t, pub.payloads["event/sensorAlert/gh1/z7"], 1)

	// back in range then out again: a new alert
	agg.Offer(reading("z7", 50))
	agg.aggregateAndPublish()
	agg.Offer(reading("z7", 10))
	agg.aggregateAndPublish()
	assert.Len(t, pub.payloads["event/sensorAlert/gh1/z7"], 2)
}

func TestAggregatorIgnoresAggregatedReadings(t *testing.T) {
	pub := newFakePublisher()
	agg := NewZoneAggregator(pub.factory, time.Minute)

	r := reading("z1", 50)
	r.Aggregated = true
	agg.Offer(r)
	agg.aggregateAndPublish()
	assert.Empty(t, pub.topics())
}

func TestDecodeReadingAliasesAndDefaults(t *testing.T) {
	payload := []byte(`{"tipo":"temperature","valor":21.5,"unidad":"°C"}`)
	r, err := DecodeReading("sensor/reading/gh1/z7", payload)
	require.NoError(t, err)

	assert.Equal(t, "gh1", r.GreenhouseID)
	assert.Equal(t, "z7", r.ZoneID)
	assert.Equal(t, "temperature", r.Metric)
	assert.Equal(t, 21.5, r.Value)
	assert.Equal(t, model.DefaultReadingMin, r.Min, "fallback range when bounds absent")
	assert.Equal(t, model.DefaultReadingMax, r.Max)
	assert.False(t, r.Timestamp.IsZero())
}

func TestDecodeReadingAggregatedTopic(t *testing.T) {
	payload := []byte(`{"zone_id":"z2","greenhouse_id":"gh1","metric":"humidity","value":55,"min":30,"max":70}`)
	r, err := DecodeReading("sensor/aggregated/gh1/z2", payload)
	require.NoError(t, err)
	assert.True(t, r.Aggregated)
	assert.Equal(t, 30.0, r.Min)
	assert.Equal(t, 70.0, r.Max)
}
