package vision

import (
	"image"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// YOLOOutput describes a raw YOLOv8 head: Data is laid out attribute-major
// as [4+classes][anchors], the first four rows being cx, cy, w, h in model
// input pixels.
type YOLOOutput struct {
	Data    []float32
	Classes int
	Anchors int
}

// DecodeParams controls how raw YOLO output is turned into detections.
type DecodeParams struct {
	Labels   []string
	MinScore float64
	// ScaleX and ScaleY map model input pixels back onto the source frame.
	ScaleX, ScaleY float64
	// Bounds clips every box when non-empty.
	Bounds image.Rectangle
}

// DecodeYOLOv8 picks the best class per anchor, drops anchors scoring below
// MinScore and converts center boxes to scaled corner rectangles.
func DecodeYOLOv8(out YOLOOutput, p DecodeParams) ([]Detection, error) {
	if out.Classes <= 0 || out.Anchors <= 0 {
		return nil, errors.Errorf("invalid yolo output shape: classes=%d anchors=%d", out.Classes, out.Anchors)
	}
	if want := (4 + out.Classes) * out.Anchors; len(out.Data) < want {
		return nil, errors.Errorf("yolo output too short: got %d values, want %d", len(out.Data), want)
	}
	at := func(attr, anchor int) float64 {
		return float64(out.Data[attr*out.Anchors+anchor])
	}

	var results []Detection
	for i := 0; i < out.Anchors; i++ {
		bestClass, bestScore := -1, 0.0
		for c := 0; c < out.Classes; c++ {
			if s := at(4+c, i); s > bestScore {
				bestClass, bestScore = c, s
			}
		}
		if bestClass < 0 || bestScore < p.MinScore {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		box := image.Rect(
			int(math.Round((cx-w/2)*p.ScaleX)),
			int(math.Round((cy-h/2)*p.ScaleY)),
			int(math.Round((cx+w/2)*p.ScaleX)),
			int(math.Round((cy+h/2)*p.ScaleY)),
		)
		if !p.Bounds.Empty() {
			box = box.Intersect(p.Bounds)
			if box.Empty() {
				continue
			}
		}

		results = append(results, Detection{
			Label:      LabelFor(p.Labels, bestClass),
			Confidence: bestScore,
			Box:        box,
		})
	}
	return results, nil
}

// NonMaxSuppression keeps, per label, the highest scoring boxes and removes
// any box overlapping an already kept one by more than iouThreshold.
func NonMaxSuppression(dets []Detection, iouThreshold float64) []Detection {
	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Detection, 0, len(sorted))
	for _, cand := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.Label == cand.Label && IoU(k.Box, cand.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, cand)
		}
	}
	return kept
}

// IoU is the intersection-over-union of two rectangles.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
