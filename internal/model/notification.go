package model

import "time"

// Kind discriminates notification events fanned out to the dashboard.
type Kind string

const (
	KindVisit           Kind = "visit"
	KindHardwareAlert   Kind = "hardware-alert"
	KindIrrigationStart Kind = "irrigation-start"
	KindIrrigationEnd   Kind = "irrigation-end"
	KindLightingStart   Kind = "lighting-start"
	KindLightingEnd     Kind = "lighting-end"
	KindSensorInfo      Kind = "sensor-info"
	KindSensorAlert     Kind = "sensor-alert"
)

// KnownKind reports whether k is one of the kinds this system fans out.
// Unknown kinds are dropped, not rejected, so new producers can roll out
// before the dashboard learns about them.
func KnownKind(k Kind) bool {
	switch k {
	case KindVisit, KindHardwareAlert, KindIrrigationStart, KindIrrigationEnd,
		KindLightingStart, KindLightingEnd, KindSensorInfo, KindSensorAlert:
		return true
	}
	return false
}

// DefaultTitle returns the fallback title for events that arrive without one.
func DefaultTitle(k Kind) string {
	switch k {
	case KindVisit:
		return "Nueva visita programada"
	case KindHardwareAlert:
		return "Alerta de hardware"
	case KindIrrigationStart:
		return "Riego iniciado"
	case KindIrrigationEnd:
		return "Riego finalizado"
	case KindLightingStart:
		return "Iluminación encendida"
	case KindLightingEnd:
		return "Iluminación apagada"
	case KindSensorAlert:
		return "Alerta de sensor"
	default:
		return "Notificación"
	}
}

// Notification is the canonical record shown in the dashboard feed.
// ID is producer-assigned and unique within a feed; insertion by ID is
// idempotent (first arrival wins).
type Notification struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Read         bool      `json:"read"`
	GreenhouseID string    `json:"greenhouse_id,omitempty"`
	ZoneID       string    `json:"zone_id,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
