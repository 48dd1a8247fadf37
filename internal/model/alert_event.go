package model

import "time"

// AlertEvent represents an alert that actually fired.
type AlertEvent struct {
	ID          int64     `json:"id"`
	Source      string    `json:"source"`
	Label       string    `json:"label"`
	Confidence  float64   `json:"confidence"`
	X1          int       `json:"x1"`
	Y1          int       `json:"y1"`
	X2          int       `json:"x2"`
	Y2          int       `json:"y2"`
	OutputImage string    `json:"output_image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
