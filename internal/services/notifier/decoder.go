package notifier

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrovive/greenhouse-live/internal/model"
)

// Topic prefixes the notifier ingests. Anything else on the bus is not a
// notification producer and is skipped.
const (
	topicVisit         = "event/visit/"
	topicHardwareAlert = "event/hardwareAlert/"
	topicSchedule      = "event/schedule/"
	topicSensorAlert   = "event/sensorAlert/"

	topicReading    = "sensor/reading/"
	topicAggregated = "sensor/aggregated/"
)

// Decode maps a producer payload to the canonical Notification. The second
// return is false when the topic is not a notification source (silent drop,
// forward compatibility).
func Decode(topic string, payload []byte) (model.Notification, bool, error) {
	switch {
	case strings.HasPrefix(topic, topicVisit):
		return decodeVisit(topic, payload)
	case strings.HasPrefix(topic, topicHardwareAlert):
		return decodeAlert(topic, payload, model.KindHardwareAlert, topicHardwareAlert)
	case strings.HasPrefix(topic, topicSensorAlert):
		return decodeAlert(topic, payload, model.KindSensorAlert, topicSensorAlert)
	case strings.HasPrefix(topic, topicSchedule):
		return decodeSchedule(topic, payload)
	default:
		return model.Notification{}, false, nil
	}
}

func decodeVisit(topic string, payload []byte) (model.Notification, bool, error) {
	var v model.VisitEvent
	if err := json.Unmarshal(payload, &v); err != nil {
		return model.Notification{}, false, err
	}
	n := model.Notification{
		ID:           v.ID,
		Kind:         model.KindVisit,
		Title:        v.Title,
		Message:      v.Message,
		GreenhouseID: v.GreenhouseID,
		CreatedAt:    v.Timestamp,
	}
	if n.GreenhouseID == "" {
		n.GreenhouseID, _ = idsFromTopic(topic, topicVisit)
	}
	if n.Message == "" && v.VisitorName != "" {
		n.Message = "Visitante: " + v.VisitorName
	}
	return finish(n), true, nil
}

func decodeAlert(topic string, payload []byte, kind model.Kind, prefix string) (model.Notification, bool, error) {
	var a model.HardwareAlertEvent
	if err := json.Unmarshal(payload, &a); err != nil {
		return model.Notification{}, false, err
	}
	n := model.Notification{
		ID:           a.ID,
		Kind:         kind,
		Title:        a.Title,
		Message:      a.Message,
		GreenhouseID: a.GreenhouseID,
		ZoneID:       a.ZoneID,
		CreatedAt:    a.Timestamp,
	}
	if n.GreenhouseID == "" || n.ZoneID == "" {
		gh, zone := idsFromTopic(topic, prefix)
		if n.GreenhouseID == "" {
			n.GreenhouseID = gh
		}
		if n.ZoneID == "" {
			n.ZoneID = zone
		}
	}
	if n.Message == "" && a.DeviceID != "" {
		n.Message = "Dispositivo: " + a.DeviceID
	}
	return finish(n), true, nil
}

func decodeSchedule(topic string, payload []byte) (model.Notification, bool, error) {
	var s model.ScheduleEvent
	if err := json.Unmarshal(payload, &s); err != nil {
		return model.Notification{}, false, err
	}

	var kind model.Kind
	switch {
	case s.System == model.SystemIrrigation && s.Phase == model.PhaseStart:
		kind = model.KindIrrigationStart
	case s.System == model.SystemIrrigation && s.Phase == model.PhaseEnd:
		kind = model.KindIrrigationEnd
	case s.System == model.SystemLighting && s.Phase == model.PhaseStart:
		kind = model.KindLightingStart
	case s.System == model.SystemLighting && s.Phase == model.PhaseEnd:
		kind = model.KindLightingEnd
	default:
		// producer we don't understand yet
		return model.Notification{}, false, nil
	}

	n := model.Notification{
		ID:           s.ID,
		Kind:         kind,
		GreenhouseID: s.GreenhouseID,
		ZoneID:       s.ZoneID,
		CreatedAt:    s.Timestamp,
	}
	if n.GreenhouseID == "" || n.ZoneID == "" {
		gh, zone := idsFromTopic(topic, topicSchedule)
		if n.GreenhouseID == "" {
			n.GreenhouseID = gh
		}
		if n.ZoneID == "" {
			n.ZoneID = zone
		}
	}
	if n.ZoneID != "" {
		n.Message = "Zona " + n.ZoneID
	}
	return finish(n), true, nil
}

// finish fills the fallback fields: default title per kind, receipt-time
// timestamp, and a generated id when the producer assigned none (such
// events cannot be deduplicated across redeliveries).
func finish(n model.Notification) model.Notification {
	if n.Title == "" {
		n.Title = model.DefaultTitle(n.Kind)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return n
}

// DecodeReading parses a sensor bus payload into a Reading for the live
// fan-out, recovering scope ids from the topic when the body omits them.
// The second return is false for non-reading topics.
func DecodeReading(topic string, payload []byte) (model.Reading, bool, error) {
	if !strings.HasPrefix(topic, topicReading) && !strings.HasPrefix(topic, topicAggregated) {
		return model.Reading{}, false, nil
	}
	var ev model.ReadingEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return model.Reading{}, false, err
	}

	r := model.Reading{
		GreenhouseID: ev.GreenhouseID,
		ZoneID:       ev.ZoneID,
		Metric:       ev.Metric,
		Value:        ev.Value,
		Unit:         ev.Unit,
		Min:          ev.Min,
		Max:          ev.Max,
		Aggregated:   ev.Aggregated || strings.HasPrefix(topic, topicAggregated),
		Timestamp:    ev.Timestamp,
	}
	if r.GreenhouseID == "" || r.ZoneID == "" {
		parts := strings.Split(topic, "/")
		if len(parts) >= 4 {
			if r.GreenhouseID == "" {
				r.GreenhouseID = parts[2]
			}
			if r.ZoneID == "" {
				r.ZoneID = parts[3]
			}
		}
	}
	if r.Metric == "" {
		r.Metric = "humidity"
	}
	if !ev.HasBounds {
		r.Min, r.Max = model.DefaultReadingMin, model.DefaultReadingMax
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return r, true, nil
}

// idsFromTopic recovers scope ids from "prefix/{greenhouse}/{zone}".
func idsFromTopic(topic, prefix string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(topic, prefix), "/")
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}
