package entities

import "time"

// Crop is the cultivation assigned to a zone.
type Crop struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // e.g. "tomate", "lechuga"
	Variety   string    `json:"variety,omitempty"`
	ZoneID    string    `json:"zone_id"`
	PlantedAt time.Time `json:"planted_at"`
}
