package livefeed

import (
	"sync"

	"github.com/agrovive/greenhouse-live/internal/model"
)

// DefaultBufferSize is how many samples a zone trend chart shows.
const DefaultBufferSize = 20

// ReadingsBuffer keeps the last N readings per zone in strict arrival
// order. Arrival order is authoritative: a late sample with an earlier
// sensor timestamp is appended, not re-sorted, because the chart reflects
// receipt time.
type ReadingsBuffer struct {
	mu      sync.RWMutex
	size    int
	buffers map[string][]model.Reading
}

func NewReadingsBuffer(size int) *ReadingsBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &ReadingsBuffer{size: size, buffers: make(map[string][]model.Reading)}
}

// Append adds a reading to its zone buffer, evicting the oldest entry when
// the buffer is full.
func (b *ReadingsBuffer) Append(r model.Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := append(b.buffers[r.ZoneID], r)
	if len(buf) > b.size {
		buf = buf[len(buf)-b.size:]
	}
	b.buffers[r.ZoneID] = buf
}

// Zone returns a copy of the buffer for zoneID. The second return is false
// when no reading has arrived yet, so the view can render an explicit
// "no data" state instead of a default sample.
func (b *ReadingsBuffer) Zone(zoneID string) ([]model.Reading, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	buf, ok := b.buffers[zoneID]
	if !ok || len(buf) == 0 {
		return nil, false
	}
	out := make([]model.Reading, len(buf))
	copy(out, buf)
	return out, true
}

// Zones lists the zone ids with at least one buffered reading.
func (b *ReadingsBuffer) Zones() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.buffers))
	for id, buf := range b.buffers {
		if len(buf) > 0 {
			out = append(out, id)
		}
	}
	return out
}
