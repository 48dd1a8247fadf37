package alert

import (
	"context"

	"ambulancewatch/internal/model"
	"ambulancewatch/internal/repository"
)

// Broadcaster pushes JSON messages to connected viewers.
type Broadcaster interface {
	BroadcastJSON(ctx context.Context, v interface{}) error
}

// Message is what viewers receive for every fired alert.
type Message struct {
	Type        string  `json:"type"`
	Source      string  `json:"source"`
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	Box         [4]int  `json:"box"`
	OutputImage string  `json:"output_image,omitempty"`
	At          string  `json:"at"`
}

// NewMessage converts an alert to its wire form.
func NewMessage(a Alert) Message {
	return Message{
		Type:        "alert",
		Source:      a.Source,
		Label:       a.Label,
		Confidence:  a.Confidence,
		Box:         [4]int{a.Box.Min.X, a.Box.Min.Y, a.Box.Max.X, a.Box.Max.Y},
		OutputImage: a.OutputImage,
		At:          a.At.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// BroadcastSink sends every alert to websocket viewers.
func BroadcastSink(b Broadcaster) Sink {
	return SinkFunc(func(ctx context.Context, a Alert) error {
		return b.BroadcastJSON(ctx, NewMessage(a))
	})
}

// RecorderSink stores every alert as an AlertEvent.
func RecorderSink(repo repository.AlertRepository) Sink {
	return SinkFunc(func(_ context.Context, a Alert) error {
		_, err := repo.Insert(&model.AlertEvent{
			Source:      a.Source,
			Label:       a.Label,
			Confidence:  a.Confidence,
			X1:          a.Box.Min.X,
			Y1:          a.Box.Min.Y,
			X2:          a.Box.Max.X,
			Y2:          a.Box.Max.Y,
			OutputImage: a.OutputImage,
			CreatedAt:   a.At,
		})
		return err
	})
}

// DefaultSinks is the delivery chain for fired alerts. The player blocks until
// the sound ends so it goes last.
func DefaultSinks(b Broadcaster, repo repository.AlertRepository, player *Player) []Sink {
	return []Sink{BroadcastSink(b), RecorderSink(repo), player}
}
