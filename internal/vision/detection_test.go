package vision

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestTargetFilter(t *testing.T) {
	dets := []Detection{
		{Label: "ambulance", Confidence: 0.9, Box: image.Rect(0, 0, 10, 10)},
		{Label: "Ambulance", Confidence: 0.31, Box: image.Rect(0, 0, 10, 10)},
		{Label: "AMBULANCE", Confidence: 0.3, Box: image.Rect(0, 0, 10, 10)},
		{Label: "car", Confidence: 0.99, Box: image.Rect(0, 0, 10, 10)},
		{Label: "ambulance", Confidence: 0.1, Box: image.Rect(0, 0, 10, 10)},
	}

	got := NewTargetFilter("ambulance", 0.3)(dets)
	test.That(t, len(got), test.ShouldEqual, 2)
	test.That(t, got[0].Confidence, test.ShouldEqual, 0.9)
	test.That(t, got[1].Label, test.ShouldEqual, "Ambulance")
}

func TestTargetFilterEmpty(t *testing.T) {
	test.That(t, NewTargetFilter("ambulance", 0.3)(nil), test.ShouldBeEmpty)
}

func TestCoordinates(t *testing.T) {
	d := Detection{Box: image.Rect(1, 2, 30, 40)}
	x1, y1, x2, y2 := d.Coordinates()
	test.That(t, []int{x1, y1, x2, y2}, test.ShouldResemble, []int{1, 2, 30, 40})
}
