package model

import "time"

// Fallback display range applied when a producer omits min/max bounds.
const (
	DefaultReadingMin = 0.0
	DefaultReadingMax = 100.0
)

// Reading is one humidity/temperature sample scoped to a zone.
type Reading struct {
	GreenhouseID string    `json:"greenhouse_id"`
	ZoneID       string    `json:"zone_id"`
	Metric       string    `json:"metric"` // humidity | temperature
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	Aggregated   bool      `json:"aggregated"`
	Timestamp    time.Time `json:"timestamp"`
}

// InBounds reports whether the sample sits inside its configured range.
func (r Reading) InBounds() bool {
	return r.Value >= r.Min && r.Value <= r.Max
}
