package notifier

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovive/greenhouse-live/internal/model"
	"github.com/agrovive/greenhouse-live/internal/ws"
)

type busMessage struct{ payload []byte }

func (m *busMessage) Duplicate() bool   { return false }
func (m *busMessage) Qos() byte         { return 0 }
func (m *busMessage) Retained() bool    { return false }
func (m *busMessage) Topic() string     { return "" }
func (m *busMessage) MessageID() uint16 { return 0 }
func (m *busMessage) Payload() []byte   { return m.payload }
func (m *busMessage) Ack()              {}

type captureSink struct {
	scope   ws.Scope
	msgType string
	data    any
	calls   int
}

func (c *captureSink) Broadcast(scope ws.Scope, msgType string, data any) {
	c.scope, c.msgType, c.data = scope, msgType, data
	c.calls++
}

func TestDecodeReadingWithAliasesAndDefaults(t *testing.T) {
	// sensor dialect: Spanish field names, no scope ids, no range
	payload := []byte(`{"tipo": "humidity", "valor": 43.2, "unidad": "%"}`)

	before := time.Now().UTC()
	r, ok, err := DecodeReading("sensor/reading/gh1/z7", payload)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "gh1", r.GreenhouseID, "greenhouse recovered from topic")
	assert.Equal(t, "z7", r.ZoneID, "zone recovered from topic")
	assert.Equal(t, "humidity", r.Metric)
	assert.Equal(t, 43.2, r.Value)
	assert.Equal(t, model.DefaultReadingMin, r.Min)
	assert.Equal(t, model.DefaultReadingMax, r.Max)
	assert.False(t, r.Aggregated)
	assert.WithinDuration(t, before, r.Timestamp, 2*time.Second)
}

func TestDecodeReadingAggregatedTopic(t *testing.T) {
	r, ok, err := DecodeReading("sensor/aggregated/gh2/z1", []byte(`{"valor": 21.5}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.Aggregated, "aggregated inferred from topic")
	assert.Equal(t, "gh2", r.GreenhouseID)
}

func TestDecodeReadingNonSensorTopic(t *testing.T) {
	_, ok, err := DecodeReading("event/visit/gh1", []byte(`{"id":"x"}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadingHandlerRelaysScopedFrame(t *testing.T) {
	sink := &captureSink{}
	metrics := NewMetrics(prometheus.NewRegistry(), func() int { return 0 })
	handle := NewReadingHandler(sink, metrics)

	payload := []byte(`{"greenhouse_id":"gh1","zone_id":"z7","metric":"temperature","value":22.1}`)
	err := handle("sensor/reading/gh1/z7", &busMessage{payload: payload})
	require.NoError(t, err)

	require.Equal(t, 1, sink.calls)
	assert.Equal(t, ws.Scope{GreenhouseID: "gh1", ZoneID: "z7"}, sink.scope)
	assert.Equal(t, ws.MessageTypeReading, sink.msgType)
	r, isReading := sink.data.(model.Reading)
	require.True(t, isReading)
	assert.Equal(t, "temperature", r.Metric)
}

func TestReadingHandlerSkipsForeignTopics(t *testing.T) {
	sink := &captureSink{}
	metrics := NewMetrics(prometheus.NewRegistry(), func() int { return 0 })
	handle := NewReadingHandler(sink, metrics)

	err := handle("event/schedule/gh1/z7", &busMessage{payload: []byte(`{}`)})
	require.NoError(t, err)
	assert.Zero(t, sink.calls)
}

func TestReadingHandlerMalformedPayload(t *testing.T) {
	sink := &captureSink{}
	metrics := NewMetrics(prometheus.NewRegistry(), func() int { return 0 })
	handle := NewReadingHandler(sink, metrics)

	err := handle("sensor/reading/gh1/z7", &busMessage{payload: []byte("not json")})
	assert.Error(t, err)
	assert.Zero(t, sink.calls)
}
