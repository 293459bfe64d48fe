package messages

import "time"

// VisitEvent is published by the visit-intake form on
// event/visit/{greenhouse}.
type VisitEvent struct {
	ID           string    `json:"id"`
	GreenhouseID string    `json:"greenhouse_id"`
	VisitorName  string    `json:"visitor_name"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

func (v *VisitEvent) UnmarshalJSON(b []byte) error {
	m, err := toMap(b)
	if err != nil {
		return err
	}
	v.ID = pickString(m, "id", "id_visita")
	v.GreenhouseID = pickString(m, "greenhouse_id", "id_invernadero")
	v.VisitorName = pickString(m, "visitor_name", "nombre_visitante")
	v.Title = pickString(m, "title", "titulo")
	v.Message = pickString(m, "message", "mensaje", "descripcion")
	v.Timestamp = pickTime(m, "timestamp", "createdAt", "fecha")
	return nil
}
