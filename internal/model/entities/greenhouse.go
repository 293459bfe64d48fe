package entities

// GreenhouseState indicates whether a greenhouse is in operation.
type GreenhouseState string

const (
	GreenhouseActive   GreenhouseState = "active"
	GreenhouseInactive GreenhouseState = "inactive"
)

// Greenhouse groups one or more zones. Owned by the REST backend; the
// live-feed subsystem only carries its id for scoping.
type Greenhouse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	State GreenhouseState `json:"state"`
	Zones []Zone          `json:"zones"`
}

// Zone is a section of a greenhouse with its own sensors and schedule.
type Zone struct {
	ID           string  `json:"id"`
	GreenhouseID string  `json:"greenhouse_id"`
	Name         string  `json:"name"`
	CropID       string  `json:"crop_id,omitempty"`
	HumidityMin  float64 `json:"humidity_min"`
	HumidityMax  float64 `json:"humidity_max"`
	TempMin      float64 `json:"temp_min"`
	TempMax      float64 `json:"temp_max"`
}

func (g *Greenhouse) GetZone(zoneID string) *Zone {
	for i := range g.Zones {
		if g.Zones[i].ID == zoneID {
			return &g.Zones[i]
		}
	}
	return nil
}
