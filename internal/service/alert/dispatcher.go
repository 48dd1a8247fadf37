package alert

import (
	"context"
	"image"
	"sync"
	"time"

	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/metrics"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
)

const (
	SourceUpload = "upload"
	SourceCCTV   = "cctv"

	sinkTimeout = 30 * time.Second
)

// Alert is one fired detection.
type Alert struct {
	Source      string
	Label       string
	Confidence  float64
	Box         image.Rectangle
	OutputImage string
	At          time.Time
}

// Sink receives every alert accepted by the dispatcher.
type Sink interface {
	Notify(ctx context.Context, a Alert) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, a Alert) error

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, a Alert) error {
	return f(ctx, a)
}

// Outcome says what Trigger did with an alert.
type Outcome int

const (
	Queued Outcome = iota
	Suppressed
	Dropped
	Closed
)

func (o Outcome) String() string {
	switch o {
	case Queued:
		return "queued"
	case Suppressed:
		return "suppressed"
	case Dropped:
		return "dropped"
	default:
		return "closed"
	}
}

// Options configures a Dispatcher. Zero values fall back to sane defaults.
type Options struct {
	Workers   int
	QueueSize int
	Cooldown  time.Duration
	// Debounced lists the sources the cooldown applies to. Defaults to SourceCCTV;
	// uploads are single user actions and always fire.
	Debounced []string
	Clock     clock.Clock
	Metrics   *metrics.Metrics
}

// Dispatcher fans alerts out to sinks on a fixed pool of workers.
// Trigger never blocks: a full queue drops the alert and a debounced source
// that fired within the cooldown window is suppressed.
type Dispatcher struct {
	queue     chan Alert
	sinks     []Sink
	cooldown  time.Duration
	debounced map[string]bool
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *logger.Logger

	mu     sync.Mutex
	last   map[string]time.Time
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts opts.Workers goroutines draining the alert queue.
func NewDispatcher(opts Options, logger *logger.Logger, sinks ...Sink) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if len(opts.Debounced) == 0 {
		opts.Debounced = []string{SourceCCTV}
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	d := &Dispatcher{
		queue:     make(chan Alert, opts.QueueSize),
		sinks:     sinks,
		cooldown:  opts.Cooldown,
		debounced: lo.SliceToMap(opts.Debounced, func(src string) (string, bool) { return src, true }),
		clock:     opts.Clock,
		metrics:   opts.Metrics,
		logger:    logger,
		last:      make(map[string]time.Time),
	}

	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	logger.Info("🚨 Alert dispatcher started - %d worker(s), queue %d, cooldown %s", opts.Workers, opts.QueueSize, opts.Cooldown)
	return d
}

// Trigger schedules a for delivery and reports what happened to it.
func (d *Dispatcher) Trigger(a Alert) Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Closed
	}

	now := d.clock.Now()
	if a.At.IsZero() {
		a.At = now
	}
	if last, ok := d.last[a.Source]; ok && d.debounced[a.Source] && d.cooldown > 0 && now.Sub(last) < d.cooldown {
		d.metrics.AlertsSuppressed.Add(1)
		return Suppressed
	}

	select {
	case d.queue <- a:
		d.last[a.Source] = now
		return Queued
	default:
		d.metrics.AlertsDropped.Add(1)
		d.logger.Warning("⚠️  Alert queue full - dropping %s alert from %s", a.Label, a.Source)
		return Dropped
	}
}

// Pending returns the number of queued, not yet delivered alerts.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Close stops accepting alerts, delivers what is queued and waits for the workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("🚨 Alert dispatcher stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for a := range d.queue {
		d.deliver(a)
	}
	d.logger.Debug("Alert worker %d stopped", id)
}

// deliver runs every sink in order. Sink failures are logged and never stop the others.
func (d *Dispatcher) deliver(a Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	d.logger.Info("🚑 %s alert: %s (%.2f)", a.Source, a.Label, a.Confidence)
	for _, s := range d.sinks {
		if err := s.Notify(ctx, a); err != nil {
			d.logger.Error("Alert sink failed for %s alert: %v", a.Source, err)
		}
	}
	d.metrics.AlertsFired.Add(1)
}
