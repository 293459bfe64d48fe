package livefeed

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovive/greenhouse-live/internal/model"
)

func sample(zone string, seq int, at time.Time) model.Reading {
	return model.Reading{
		ZoneID: zone, Metric: "humidity", Unit: "%",
		Value: float64(seq), Min: 0, Max: 100, Timestamp: at,
	}
}

func TestReadingsBufferEvictsOldest(t *testing.T) {
	b := NewReadingsBuffer(DefaultBufferSize)
	base := time.Now()

	for i := 1; i <= 21; i++ {
		b.Append(sample("z7", i, base.Add(time.Duration(i)*time.Second)))
	}

	buf, ok := b.Zone("z7")
	require.True(t, ok)
	require.Len(t, buf, DefaultBufferSize)
	assert.Equal(t, 2.0, buf[0].Value, "first sample evicted")
	assert.Equal(t, 21.0, buf[len(buf)-1].Value)
}

func TestReadingsBufferKeepsArrivalOrder(t *testing.T) {
	b := NewReadingsBuffer(5)
	base := time.Now()

	// a straggler with an older sensor timestamp arrives last
	b.Append(sample("z1", 1, base))
	b.Append(sample("z1", 2, base.Add(time.Second)))
	b.Append(sample("z1", 3, base.Add(-time.Hour)))

	buf, ok := b.Zone("z1")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, []float64{buf[0].Value, buf[1].Value, buf[2].Value})
}

func TestReadingsBufferZonesIsolated(t *testing.T) {
	b := NewReadingsBuffer(3)
	now := time.Now()
	for i := 0; i < 3; i++ {
		b.Append(sample("z1", i, now))
	}
	b.Append(sample("z2", 99, now))

	z1, ok := b.Zone("z1")
	require.True(t, ok)
	assert.Len(t, z1, 3)

	z2, ok := b.Zone("z2")
	require.True(t, ok)
	assert.Len(t, z2, 1)

	assert.ElementsMatch(t, []string{"z1", "z2"}, b.Zones())
}

func TestReadingsBufferNoDataState(t *testing.T) {
	b := NewReadingsBuffer(0) // falls back to default size
	buf, ok := b.Zone("z9")
	assert.False(t, ok, "unseen zone reports no data, not an empty default")
	assert.Nil(t, buf)
	assert.Empty(t, b.Zones())
}

func TestReadingsBufferCopyIsDetached(t *testing.T) {
	b := NewReadingsBuffer(5)
	b.Append(sample("z1", 1, time.Now()))

	buf, _ := b.Zone("z1")
	buf[0].Value = 999

	again, _ := b.Zone("z1")
	assert.Equal(t, 1.0, again[0].Value)
}

func TestFeedClientDispatch(t *testing.T) {
	list := NewNotificationList(nil)
	readings := NewReadingsBuffer(5)
	fc := NewFeedClient(FeedConfig{ZoneID: "z7"}, list, readings)

	fc.dispatch(frame{Type: "notification", Data: []byte(`{"id":"n1","kind":"visit"}`)})
	assert.Equal(t, 1, list.Len())

	fc.dispatch(frame{Type: "reading", Data: []byte(`{"zone_id":"z7","value":42}`)})
	fc.dispatch(frame{Type: "reading", Data: []byte(`{"zone_id":"z9","value":13}`)})
	buf, ok := readings.Zone("z7")
	require.True(t, ok)
	assert.Len(t, buf, 1)
	_, ok = readings.Zone("z9")
	assert.False(t, ok, "out-of-scope reading dropped")

	// unknown discriminators and junk payloads are ignored
	fc.dispatch(frame{Type: "telemetry-v2", Data: []byte(`{}`)})
	fc.dispatch(frame{Type: "notification", Data: []byte(`not json`)})
	assert.Equal(t, 1, list.Len())
}

func BenchmarkReadingsBufferAppend(b *testing.B) {
	buf := NewReadingsBuffer(DefaultBufferSize)
	now := time.Now()
	zones := make([]string, 8)
	for i := range zones {
		zones[i] = fmt.Sprintf("z%d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Append(sample(zones[i%len(zones)], i, now))
	}
}
