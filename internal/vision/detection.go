// Package vision holds the model-independent parts of object detection:
// the Detection record, result filtering, YOLOv8 output decoding, overlay
// drawing and image encoding.
package vision

import (
	"context"
	"image"
	"strings"

	"github.com/samber/lo"
)

// Detection is a single labelled bounding box returned by a model.
type Detection struct {
	Label      string          `json:"label"`
	Confidence float64         `json:"confidence"`
	Box        image.Rectangle `json:"-"`
}

// Coordinates returns the box as x1, y1, x2, y2.
func (d Detection) Coordinates() (int, int, int, int) {
	return d.Box.Min.X, d.Box.Min.Y, d.Box.Max.X, d.Box.Max.Y
}

// Detector runs a model over one frame.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(ctx context.Context, img image.Image) ([]Detection, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	return f(ctx, img)
}

// Postprocessor filters or modifies a list of detections.
type Postprocessor func([]Detection) []Detection

// NewTargetFilter keeps detections whose label equals target (case-insensitive)
// and whose confidence is strictly above threshold.
func NewTargetFilter(target string, threshold float64) Postprocessor {
	return func(in []Detection) []Detection {
		return lo.Filter(in, func(d Detection, _ int) bool {
			return strings.EqualFold(d.Label, target) && d.Confidence > threshold
		})
	}
}
