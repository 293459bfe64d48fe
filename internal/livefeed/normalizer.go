// Package livefeed is the dashboard-side consumer of the live event feed:
// one socket connection per view, a normalizer for the mixed producer
// dialects, the notification list and the per-zone readings buffer backing
// the charts.
package livefeed

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrovive/greenhouse-live/internal/model"
)

// Producers disagree on field names; the feed still carries legacy shapes
// (titulo/mensaje/fecha/id_visita). Resolution order below is the
// backward-compatibility shim: explicit fields first, then aliases, then
// kind defaults.

func resolveString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch x := v.(type) {
			case string:
				if s := strings.TrimSpace(x); s != "" {
					return s
				}
			case float64:
				if x == math.Trunc(x) {
					return strconv.FormatInt(int64(x), 10)
				}
				return strconv.FormatFloat(x, 'f', -1, 64)
			}
		}
	}
	return ""
}

func resolveFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch x := v.(type) {
			case float64:
				return x, true
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
					return f, true
				}
			}
		}
	}
	return 0, false
}

func resolveBool(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := m[k].(bool); ok {
			return v
		}
	}
	return false
}

func resolveTime(m map[string]any, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		s, ok := m[k].(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Normalize maps a raw feed payload to the canonical Notification. The
// second return is false for unknown kinds (silently dropped, forward
// compatibility). Missing timestamps become the local receipt time; this
// biases "time since" displays toward now, accepted per the feed contract.
func Normalize(payload map[string]any) (model.Notification, bool) {
	kind := model.Kind(resolveString(payload, "kind", "tipo"))
	if !model.KnownKind(kind) {
		return model.Notification{}, false
	}

	n := model.Notification{
		ID:           resolveString(payload, "id", "id_visita", "id_evento"),
		Kind:         kind,
		Title:        resolveString(payload, "title", "titulo"),
		Message:      resolveString(payload, "message", "mensaje", "descripcion"),
		Read:         resolveBool(payload, "read", "leida"),
		GreenhouseID: resolveString(payload, "greenhouse_id", "id_invernadero"),
		ZoneID:       resolveString(payload, "zone_id", "id_zona"),
	}
	if n.Title == "" {
		n.Title = model.DefaultTitle(kind)
	}
	if n.Message == "" {
		if visitor := resolveString(payload, "visitor_name", "nombre_visitante"); visitor != "" {
			n.Message = "Visitante: " + visitor
		}
	}
	if t, ok := resolveTime(payload, "timestamp", "createdAt", "fecha", "fecha_activacion"); ok {
		n.CreatedAt = t
	} else {
		n.CreatedAt = time.Now().UTC()
	}
	if n.ID == "" {
		// nothing to dedupe on; give it a local identity
		n.ID = uuid.NewString()
	}
	return n, true
}

// NormalizeReading maps a raw feed payload to a Reading, applying the
// fallback display range when bounds are absent.
func NormalizeReading(payload map[string]any) (model.Reading, bool) {
	value, ok := resolveFloat(payload, "value", "valor")
	if !ok {
		return model.Reading{}, false
	}

	r := model.Reading{
		GreenhouseID: resolveString(payload, "greenhouse_id", "id_invernadero"),
		ZoneID:       resolveString(payload, "zone_id", "id_zona", "zona"),
		Metric:       resolveString(payload, "metric", "tipo"),
		Value:        value,
		Unit:         resolveString(payload, "unit", "unidad"),
		Aggregated:   resolveBool(payload, "aggregated"),
	}
	if r.ZoneID == "" {
		return model.Reading{}, false
	}

	minV, okMin := resolveFloat(payload, "min")
	maxV, okMax := resolveFloat(payload, "max")
	if okMin && okMax {
		r.Min, r.Max = minV, maxV
	} else {
		r.Min, r.Max = model.DefaultReadingMin, model.DefaultReadingMax
	}

	if t, ok := resolveTime(payload, "timestamp", "fecha"); ok {
		r.Timestamp = t
	} else {
		r.Timestamp = time.Now().UTC()
	}
	return r, true
}
