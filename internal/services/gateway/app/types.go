package app

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/agrovive/greenhouse-live/internal/model"
)

// ---------- Upstream payloads ----------

// ZoneReading is the telemetry latest-value row. The telemetry service
// emits canonical fields, but older deployments still answer with the
// Spanish dialect, so decoding stays alias tolerant.
type ZoneReading struct {
	GreenhouseID string  `json:"greenhouse_id"`
	ZoneID       string  `json:"zone_id"`
	Metric       string  `json:"metric"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Time         string  `json:"time"` // RFC3339
}

func (z *ZoneReading) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	getStr := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := m[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}
	getNum := func(keys ...string) (float64, bool) {
		for _, k := range keys {
			switch x := m[k].(type) {
			case float64:
				return x, true
			case string:
				if f, err := strconv.ParseFloat(x, 64); err == nil {
					return f, true
				}
			}
		}
		return 0, false
	}

	z.GreenhouseID = getStr("greenhouse_id", "id_invernadero")
	z.ZoneID = getStr("zone_id", "id_zona", "zona")
	z.Metric = getStr("metric", "tipo")
	z.Unit = getStr("unit", "unidad")
	z.Time = getStr("time", "timestamp", "fecha")
	if v, ok := getNum("value", "valor"); ok {
		z.Value = v
	}
	if v, ok := getNum("min"); ok {
		z.Min = v
	} else {
		z.Min = model.DefaultReadingMin
	}
	if v, ok := getNum("max"); ok {
		z.Max = v
	} else {
		z.Max = model.DefaultReadingMax
	}
	return nil
}

// ZoneStats is the per-metric roll-up the dashboard header shows.
type ZoneStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

type DashboardData struct {
	Readings      []ZoneReading        `json:"readings"`
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
	Stats         map[string]ZoneStats `json:"stats"`
	Degraded      []string             `json:"degraded,omitempty"`
}

// statsByMetric computes mean/min/max per metric, mean rounded for the UI.
func statsByMetric(readings []ZoneReading) map[string]ZoneStats {
	type acc struct {
		sum, min, max float64
		n             int
	}
	accs := map[string]*acc{}
	for _, r := range readings {
		a, ok := accs[r.Metric]
		if !ok {
			a = &acc{min: math.MaxFloat64, max: -math.MaxFloat64}
			accs[r.Metric] = a
		}
		a.sum += r.Value
		a.n++
		if r.Value < a.min {
			a.min = r.Value
		}
		if r.Value > a.max {
			a.max = r.Value
		}
	}
	out := make(map[string]ZoneStats, len(accs))
	for metric, a := range accs {
		out[metric] = ZoneStats{
			Mean: math.Round(a.sum/float64(a.n)*10) / 10,
			Min:  a.min,
			Max:  a.max,
		}
	}
	return out
}
