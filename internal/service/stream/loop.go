package stream

import (
	"context"
	"image"
	"io"
	"sync"
	"sync/atomic"

	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/metrics"
	"ambulancewatch/internal/service/detection"
	"ambulancewatch/internal/vision"

	"github.com/pkg/errors"
)

// Source yields frames on demand. Read returns io.EOF when it is exhausted.
type Source interface {
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// FrameProcessor analyses a frame and schedules alerts for it.
type FrameProcessor interface {
	ProcessFrame(ctx context.Context, img image.Image) (detection.Analysis, error)
}

// State of a Loop.
type State int32

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Stats counts what one loop produced.
type Stats struct {
	Frames     int
	Detections int
}

// Loop pumps frames from a source through the detector into an MJPEG body.
// It is single-use: once Stopped it stays Stopped and the source is closed.
type Loop struct {
	src       Source
	processor FrameProcessor
	quality   int
	metrics   *metrics.Metrics
	logger    *logger.Logger

	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// NewLoop creates a loop in the Running state. It takes ownership of src.
func NewLoop(src Source, processor FrameProcessor, quality int, m *metrics.Metrics, logger *logger.Logger) *Loop {
	if m == nil {
		m = metrics.New()
	}
	return &Loop{
		src:       src,
		processor: processor,
		quality:   quality,
		metrics:   m,
		logger:    logger,
	}
}

// State returns the current state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Run writes frames to out until the source is exhausted, a read, inference,
// encode or write error happens, or ctx is done. Exhaustion and cancellation
// return a nil error. The source is closed exactly once before Run returns.
func (l *Loop) Run(ctx context.Context, out *PartWriter) (Stats, error) {
	var stats Stats
	if l.State() == Stopped {
		return stats, errors.New("stream loop already stopped")
	}
	defer l.stop()

	for {
		if ctx.Err() != nil {
			return stats, nil
		}

		frame, err := l.src.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return stats, nil
			}
			return stats, errors.Wrap(err, "read frame")
		}

		a, err := l.processor.ProcessFrame(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return stats, nil
			}
			return stats, err
		}

		jpeg, err := vision.JPEGBytes(a.Frame, l.quality)
		if err != nil {
			return stats, err
		}
		if err := out.WritePart(jpeg); err != nil {
			// consumer went away
			return stats, err
		}

		stats.Frames++
		stats.Detections += len(a.Targets)
		l.metrics.FramesStreamed.Add(1)
		l.metrics.StreamDetections.Add(uint64(len(a.Targets)))
	}
}

// stop moves the loop to Stopped and closes the source once.
func (l *Loop) stop() {
	l.state.Store(int32(Stopped))
	l.closeOnce.Do(func() {
		if err := l.src.Close(); err != nil {
			l.closeErr = err
			l.logger.Warning("Error closing capture source: %v", err)
		}
	})
}

// Close stops the loop without running it.
func (l *Loop) Close() error {
	l.stop()
	return l.closeErr
}
