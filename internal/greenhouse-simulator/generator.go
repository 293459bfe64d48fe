package greenhouse_simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/agrovive/greenhouse-live/internal/model"
)

// Tunables for the synthetic climate.
const (
	// humidity gained per minute while an irrigation window is open, in
	// percentage points
	humidityGainPerMin = 0.8
	// passive humidity loss per minute
	humidityDecayPerMin = 0.05
	// heat added per minute while lighting is on
	lightingWarmPerMin = 0.04

	defaultHumiditySeed    = 55.0 // %
	defaultTemperatureSeed = 21.0 // °C
)

// DataGenerator keeps the synthetic climate state for one zone and walks
// it forward on each sample: a small random jitter plus drift from the
// active irrigation and lighting windows.
type DataGenerator struct {
	mu          sync.Mutex
	last        time.Time
	humidity    float64
	temperature float64
	irrigating  bool
	lighting    bool
	rng         *rand.Rand
}

func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		humidity:    defaultHumiditySeed,
		temperature: defaultTemperatureSeed,
		last:        time.Now().UTC(),
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// SetIrrigating flips the irrigation state the schedule events announce.
func (g *DataGenerator) SetIrrigating(on bool) {
	g.mu.Lock()
	g.irrigating = on
	g.mu.Unlock()
}

func (g *DataGenerator) SetLighting(on bool) {
	g.mu.Lock()
	g.lighting = on
	g.mu.Unlock()
}

// Next advances the walk and returns the two current samples.
func (g *DataGenerator) Next(greenhouseID, zoneID string) []model.Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC()
	dtMin := now.Sub(g.last).Minutes()
	if dtMin < 0 {
		dtMin = 0
	}
	g.last = now

	if g.irrigating {
		g.humidity += humidityGainPerMin * dtMin
	} else {
		g.humidity -= humidityDecayPerMin * dtMin
	}
	if g.lighting {
		g.temperature += lightingWarmPerMin * dtMin
	}

	// jitter
	g.humidity += g.rng.Float64()*0.6 - 0.3
	g.temperature += g.rng.Float64()*0.4 - 0.2

	g.humidity = clamp(g.humidity, 0, 100)
	g.temperature = clamp(g.temperature, -5, 45)

	return []model.Reading{
		{
			GreenhouseID: greenhouseID, ZoneID: zoneID,
			Metric: "humidity", Value: round1(g.humidity), Unit: "%",
			Min: 30, Max: 70, Timestamp: now,
		},
		{
			GreenhouseID: greenhouseID, ZoneID: zoneID,
			Metric: "temperature", Value: round1(g.temperature), Unit: "°C",
			Min: 15, Max: 30, Timestamp: now,
		},
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
