package vision

import (
	"image"
	"testing"

	"go.viam.com/test"
)

// yoloOutput builds an attribute-major head from per-anchor rows of
// cx, cy, w, h followed by class scores.
func yoloOutput(classes int, rows ...[]float32) YOLOOutput {
	anchors := len(rows)
	data := make([]float32, (4+classes)*anchors)
	for i, row := range rows {
		for a, v := range row {
			data[a*anchors+i] = v
		}
	}
	return YOLOOutput{Data: data, Classes: classes, Anchors: anchors}
}

func TestDecodeYOLOv8(t *testing.T) {
	out := yoloOutput(2,
		[]float32{320, 320, 100, 50, 0.1, 0.8},
		[]float32{100, 100, 20, 20, 0.2, 0.1},
	)

	dets, err := DecodeYOLOv8(out, DecodeParams{
		Labels:   []string{"car", "ambulance"},
		MinScore: 0.25,
		ScaleX:   2,
		ScaleY:   0.5,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(dets), test.ShouldEqual, 1)
	test.That(t, dets[0].Label, test.ShouldEqual, "ambulance")
	test.That(t, dets[0].Confidence, test.ShouldAlmostEqual, 0.8, 1e-6)
	test.That(t, dets[0].Box, test.ShouldResemble, image.Rect(540, 148, 740, 173))
}

func TestDecodeYOLOv8ClipsToBounds(t *testing.T) {
	out := yoloOutput(1, []float32{5, 5, 20, 20, 0.9})

	dets, err := DecodeYOLOv8(out, DecodeParams{
		Labels: []string{"ambulance"},
		ScaleX: 1,
		ScaleY: 1,
		Bounds: image.Rect(0, 0, 100, 100),
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(dets), test.ShouldEqual, 1)
	test.That(t, dets[0].Box, test.ShouldResemble, image.Rect(0, 0, 15, 15))
}

func TestDecodeYOLOv8UnknownClass(t *testing.T) {
	out := yoloOutput(3, []float32{10, 10, 4, 4, 0, 0, 0.7})
	dets, err := DecodeYOLOv8(out, DecodeParams{Labels: []string{"a"}, ScaleX: 1, ScaleY: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dets[0].Label, test.ShouldEqual, "class_2")
}

func TestDecodeYOLOv8BadShape(t *testing.T) {
	_, err := DecodeYOLOv8(YOLOOutput{Data: make([]float32, 5), Classes: 2, Anchors: 1}, DecodeParams{})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = DecodeYOLOv8(YOLOOutput{Classes: 0, Anchors: 1}, DecodeParams{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNonMaxSuppression(t *testing.T) {
	dets := []Detection{
		{Label: "ambulance", Confidence: 0.6, Box: image.Rect(2, 2, 102, 102)},
		{Label: "ambulance", Confidence: 0.9, Box: image.Rect(0, 0, 100, 100)},
		{Label: "car", Confidence: 0.5, Box: image.Rect(0, 0, 100, 100)},
		{Label: "ambulance", Confidence: 0.4, Box: image.Rect(300, 300, 350, 350)},
	}

	kept := NonMaxSuppression(dets, 0.45)
	test.That(t, len(kept), test.ShouldEqual, 3)
	test.That(t, kept[0].Confidence, test.ShouldEqual, 0.9)
	test.That(t, kept[1].Label, test.ShouldEqual, "car")
	test.That(t, kept[2].Box, test.ShouldResemble, image.Rect(300, 300, 350, 350))
	// input order is preserved
	test.That(t, dets[0].Confidence, test.ShouldEqual, 0.6)
}

func TestIoU(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	test.That(t, IoU(a, a), test.ShouldEqual, 1.0)
	test.That(t, IoU(a, image.Rect(20, 20, 30, 30)), test.ShouldEqual, 0.0)
	test.That(t, IoU(a, image.Rect(5, 0, 15, 10)), test.ShouldAlmostEqual, 50.0/150.0, 1e-9)
}
