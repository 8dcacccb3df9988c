package models

import "time"

// SettingsChange is one applied frequency or gain change
type SettingsChange struct {
	ID        string    `json:"id" doc:"Change record identifier"`
	DeviceID  string    `json:"device_id" doc:"Device the change was applied to"`
	Field     string    `json:"field" enum:"frequency,gain" doc:"Changed field"`
	Value     float64   `json:"value" doc:"New value (Hz for frequency, dB for gain)"`
	CreatedAt time.Time `json:"created_at" doc:"When the change was applied"`
}

// GetSettingsHistoryRequest represents a request for a device's change history
type GetSettingsHistoryRequest struct {
	ID    string `path:"id" doc:"Device ID"`
	Limit int    `query:"limit" minimum:"1" maximum:"1000" default:"50" doc:"Maximum number of records"`
}

// GetSettingsHistoryResponse lists the most recent changes first
type GetSettingsHistoryResponse struct {
	Body struct {
		DeviceID string            `json:"device_id" doc:"Device ID"`
		Changes  []*SettingsChange `json:"changes" doc:"Applied changes, newest first"`
	}
}
