package messages

import "time"

// HardwareAlertEvent is published by device firmware on
// event/hardwareAlert/{greenhouse}/{zone} when a pump, valve or sensor
// misbehaves.
type HardwareAlertEvent struct {
	ID           string    `json:"id"`
	GreenhouseID string    `json:"greenhouse_id"`
	ZoneID       string    `json:"zone_id"`
	DeviceID     string    `json:"device_id"`
	Severity     string    `json:"severity"` // info|warning|error
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

func (h *HardwareAlertEvent) UnmarshalJSON(b []byte) error {
	m, err := toMap(b)
	if err != nil {
		return err
	}
	h.ID = pickString(m, "id", "id_evento")
	h.GreenhouseID = pickString(m, "greenhouse_id", "id_invernadero")
	h.ZoneID = pickString(m, "zone_id", "id_zona")
	h.DeviceID = pickString(m, "device_id", "id_dispositivo")
	h.Severity = pickString(m, "severity", "severidad")
	if h.Severity == "" {
		h.Severity = "warning"
	}
	h.Title = pickString(m, "title", "titulo")
	h.Message = pickString(m, "message", "mensaje", "descripcion")
	h.Timestamp = pickTime(m, "timestamp", "fecha", "fecha_activacion")
	return nil
}
