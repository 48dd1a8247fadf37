package storage

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ambulancewatch/internal/config"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/metrics"

	"go.viam.com/test"
)

func newTestService(t *testing.T, retain int) (*OutputService, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		MediaDir:         dir,
		MediaURL:         "/media/",
		JPEGQuality:      80,
		OutputRetain:     retain,
		OutputPruneEvery: 10 * time.Millisecond,
	}
	s, err := NewOutputService(cfg, metrics.New(), logger.NewNop())
	test.That(t, err, test.ShouldBeNil)
	return s, dir
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})
	return img
}

// touch creates an output file with a given age.
func touch(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	test.That(t, os.WriteFile(path, []byte("jpg"), 0o644), test.ShouldBeNil)
	mod := time.Now().Add(-age)
	test.That(t, os.Chtimes(path, mod, mod), test.ShouldBeNil)
}

func TestSaveWritesUniqueFiles(t *testing.T) {
	s, dir := newTestService(t, 0)

	const n = 8
	var wg sync.WaitGroup
	names := make([]string, n)
	urls := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names[i], urls[i], errs[i] = s.Save(testImage())
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		test.That(t, errs[i], test.ShouldBeNil)
		test.That(t, strings.HasPrefix(names[i], "detected_"), test.ShouldBeTrue)
		test.That(t, strings.HasSuffix(names[i], ".jpg"), test.ShouldBeTrue)
		test.That(t, urls[i], test.ShouldEqual, "/media/"+names[i])
		test.That(t, seen[names[i]], test.ShouldBeFalse)
		seen[names[i]] = true

		data, err := os.ReadFile(filepath.Join(dir, names[i]))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, data[:2], test.ShouldResemble, []byte{0xFF, 0xD8})
	}

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldEqual, n)
}

func TestPruneKeepsNewest(t *testing.T) {
	s, dir := newTestService(t, 2)

	for i := 0; i < 5; i++ {
		touch(t, dir, fmt.Sprintf("detected_%d.jpg", i), time.Duration(i)*time.Hour)
	}
	touch(t, dir, "unrelated.jpg", 10*time.Hour)

	removed, err := s.Prune()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, removed, test.ShouldEqual, 3)

	names, err := s.List()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, names, test.ShouldResemble, []string{"detected_0.jpg", "detected_1.jpg"})

	_, err = os.Stat(filepath.Join(dir, "unrelated.jpg"))
	test.That(t, err, test.ShouldBeNil)
}

func TestPruneDisabled(t *testing.T) {
	s, dir := newTestService(t, 0)
	for i := 0; i < 3; i++ {
		touch(t, dir, fmt.Sprintf("detected_%d.jpg", i), time.Duration(i)*time.Minute)
	}

	removed, err := s.Prune()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, removed, test.ShouldEqual, 0)
}

func TestRunSchedulesPrune(t *testing.T) {
	s, dir := newTestService(t, 1)
	for i := 0; i < 3; i++ {
		touch(t, dir, fmt.Sprintf("detected_%d.jpg", i), time.Duration(i)*time.Minute)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		names, err := s.List()
		test.That(t, err, test.ShouldBeNil)
		if len(names) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("retention job did not run, still have %v", names)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	test.That(t, <-done, test.ShouldBeNil)
}
