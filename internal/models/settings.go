package models

import "time"

type Geofence struct {
	CenterLat    float64 `json:"center_lat"`
	CenterLng    float64 `json:"center_lng"`
	RadiusMeters float64 `json:"radius_meters"`
}

// Settings is the singleton work schedule. Times are zero-padded "HH:MM" so
// they order correctly as strings.
type Settings struct {
	WorkStart  string     `json:"work_start"`
	WorkEnd    string     `json:"work_end"`
	LunchStart string     `json:"lunch_start"`
	LunchEnd   string     `json:"lunch_end"`
	Geofence   Geofence   `json:"geofence"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		WorkStart:  "09:00",
		WorkEnd:    "18:00",
		LunchStart: "13:00",
		LunchEnd:   "14:00",
		Geofence: Geofence{
			CenterLat:    41.311081,
			CenterLng:    69.240562,
			RadiusMeters: 100,
		},
	}
}
