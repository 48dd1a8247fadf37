package vision

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestLoadLabelsDefault(t *testing.T) {
	labels, err := LoadLabels("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(labels), test.ShouldEqual, 80)
	test.That(t, labels[0], test.ShouldEqual, "person")
	test.That(t, labels[79], test.ShouldEqual, "toothbrush")
}

func TestLoadLabelsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	test.That(t, os.WriteFile(path, []byte("car\n\n ambulance \nfire truck\n"), 0o644), test.ShouldBeNil)

	labels, err := LoadLabels(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, labels, test.ShouldResemble, []string{"car", "ambulance", "fire truck"})
}

func TestLoadLabelsErrors(t *testing.T) {
	_, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	test.That(t, err, test.ShouldNotBeNil)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	test.That(t, os.WriteFile(empty, []byte("\n\n"), 0o644), test.ShouldBeNil)
	_, err = LoadLabels(empty)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLabelFor(t *testing.T) {
	test.That(t, LabelFor([]string{"a", "b"}, 1), test.ShouldEqual, "b")
	test.That(t, LabelFor([]string{"a"}, 4), test.ShouldEqual, "class_4")
	test.That(t, LabelFor(nil, -1), test.ShouldEqual, "class_-1")
}
