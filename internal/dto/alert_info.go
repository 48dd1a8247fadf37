package dto

import (
	"encoding/json"
	"time"
)

// AlertInfo represents one fired alert in the alert history.
type AlertInfo struct {
	ID          int64     `json:"id"`
	Source      string    `json:"source"`
	Label       string    `json:"label"`
	Confidence  float64   `json:"confidence"`
	Box         [4]int    `json:"box"`
	OutputImage string    `json:"output_image,omitempty"`
	Date        time.Time `json:"date"`
	TimeOfDay   time.Time `json:"timeOfDay"`
}

// MarshalJSON customizes JSON output for AlertInfo to format date and time-of-day.
func (a AlertInfo) MarshalJSON() ([]byte, error) {
	type Alias AlertInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      a.Date.Format("02-01-2006"),
		TimeOfDay: a.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(a),
	})
}

// AlertsData is the response payload of the alert history endpoint.
type AlertsData struct {
	Alerts []AlertInfo `json:"alerts"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
}
