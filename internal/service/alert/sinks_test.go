package alert

import (
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/repository/sqlite"

	"go.viam.com/test"
)

type fakeBroadcaster struct {
	got []interface{}
}

func (f *fakeBroadcaster) BroadcastJSON(_ context.Context, v interface{}) error {
	f.got = append(f.got, v)
	return nil
}

func testAlert() Alert {
	return Alert{
		Source:      SourceUpload,
		Label:       "ambulance",
		Confidence:  0.87,
		Box:         image.Rect(10, 20, 110, 220),
		OutputImage: "/media/detected_1.jpg",
		At:          time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
	}
}

func TestBroadcastSink(t *testing.T) {
	b := &fakeBroadcaster{}
	test.That(t, BroadcastSink(b).Notify(context.Background(), testAlert()), test.ShouldBeNil)

	test.That(t, len(b.got), test.ShouldEqual, 1)
	msg := b.got[0].(Message)
	test.That(t, msg.Type, test.ShouldEqual, "alert")
	test.That(t, msg.Box, test.ShouldResemble, [4]int{10, 20, 110, 220})
	test.That(t, msg.At, test.ShouldEqual, "2025-06-15T14:30:00Z")
}

func TestRecorderSink(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	test.That(t, err, test.ShouldBeNil)
	defer db.Close()
	repo := sqlite.NewAlertRepository(db)

	test.That(t, RecorderSink(repo).Notify(context.Background(), testAlert()), test.ShouldBeNil)

	events, err := repo.GetRecent(10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(events), test.ShouldEqual, 1)
	test.That(t, events[0].OutputImage, test.ShouldEqual, "/media/detected_1.jpg")
	test.That(t, events[0].X2, test.ShouldEqual, 110)
	test.That(t, events[0].Confidence, test.ShouldAlmostEqual, 0.87, 1e-9)
}

func TestDefaultSinksPlaySoundLast(t *testing.T) {
	dir := t.TempDir()
	db, err := sqlite.New(filepath.Join(dir, "test.db"))
	test.That(t, err, test.ShouldBeNil)
	defer db.Close()
	repo := sqlite.NewAlertRepository(db)

	sound := filepath.Join(dir, "alarm.wav")
	writeWAV(t, sound, 800)
	player := NewPlayer(sound, "aplay", logger.NewNop())

	b := &fakeBroadcaster{}
	var broadcastBeforeSound, recordedBeforeSound bool
	player.run = func(context.Context, string, ...string) error {
		broadcastBeforeSound = len(b.got) == 1
		n, err := repo.GetTotalCount()
		recordedBeforeSound = err == nil && n == 1
		return nil
	}

	d := NewDispatcher(Options{}, logger.NewNop(), DefaultSinks(b, repo, player)...)
	test.That(t, d.Trigger(testAlert()), test.ShouldEqual, Queued)
	d.Close()

	test.That(t, broadcastBeforeSound, test.ShouldBeTrue)
	test.That(t, recordedBeforeSound, test.ShouldBeTrue)
}
