package messages

import "time"

// Schedule systems and phases.
const (
	SystemIrrigation = "irrigation"
	SystemLighting   = "lighting"

	PhaseStart = "start"
	PhaseEnd   = "end"
)

// ScheduleEvent is emitted by the scheduler on
// event/schedule/{greenhouse}/{zone} when an irrigation or lighting window
// opens or closes.
type ScheduleEvent struct {
	ID           string        `json:"id"`
	GreenhouseID string        `json:"greenhouse_id"`
	ZoneID       string        `json:"zone_id"`
	System       string        `json:"system"` // irrigation | lighting
	Phase        string        `json:"phase"`  // start | end
	Duration     time.Duration `json:"duration"`
	Timestamp    time.Time     `json:"timestamp"`
}

func (s *ScheduleEvent) UnmarshalJSON(b []byte) error {
	m, err := toMap(b)
	if err != nil {
		return err
	}
	s.ID = pickString(m, "id", "id_evento")
	s.GreenhouseID = pickString(m, "greenhouse_id", "id_invernadero")
	s.ZoneID = pickString(m, "zone_id", "id_zona")
	s.System = pickString(m, "system", "sistema")
	s.Phase = pickString(m, "phase", "fase")
	if d, ok := pickFloat(m, "duration"); ok {
		s.Duration = time.Duration(d)
	}
	s.Timestamp = pickTime(m, "timestamp", "fecha", "fecha_activacion")
	return nil
}
