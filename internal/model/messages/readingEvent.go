package messages

import "time"

// ReadingEvent carries one humidity/temperature sample on
// sensor/reading/{greenhouse}/{zone} (raw) or sensor/aggregated/... (zone
// average).
type ReadingEvent struct {
	GreenhouseID string    `json:"greenhouse_id"`
	ZoneID       string    `json:"zone_id"`
	Metric       string    `json:"metric"` // humidity | temperature
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`
	Min          float64   `json:"min,omitempty"`
	Max          float64   `json:"max,omitempty"`
	HasBounds    bool      `json:"-"`
	Aggregated   bool      `json:"aggregated"`
	Timestamp    time.Time `json:"timestamp"`
}

func (r *ReadingEvent) UnmarshalJSON(b []byte) error {
	m, err := toMap(b)
	if err != nil {
		return err
	}
	r.GreenhouseID = pickString(m, "greenhouse_id", "id_invernadero")
	r.ZoneID = pickString(m, "zone_id", "id_zona", "zona")
	r.Metric = pickString(m, "metric", "tipo")
	r.Unit = pickString(m, "unit", "unidad")
	r.Aggregated = pickBool(m, "aggregated")
	if v, ok := pickFloat(m, "value", "valor"); ok {
		r.Value = v
	}
	minV, okMin := pickFloat(m, "min")
	maxV, okMax := pickFloat(m, "max")
	r.HasBounds = okMin && okMax
	if r.HasBounds {
		r.Min, r.Max = minV, maxV
	}
	r.Timestamp = pickTime(m, "timestamp", "fecha")
	return nil
}
