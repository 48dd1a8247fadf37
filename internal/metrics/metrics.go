package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// Stream counters
	FramesStreamed   atomic.Uint64
	StreamDetections atomic.Uint64
	ActiveStreams    atomic.Int64
	StreamsRejected  atomic.Uint64
	StreamErrors     atomic.Uint64

	// Upload counters
	UploadsProcessed atomic.Uint64
	UploadsDetected  atomic.Uint64
	UploadErrors     atomic.Uint64

	// Alerts
	AlertsFired      atomic.Uint64
	AlertsSuppressed atomic.Uint64
	AlertsDropped    atomic.Uint64

	// Output store
	OutputsSaved  atomic.Uint64
	OutputsPruned atomic.Uint64

	// Latency of the last inference call in ms
	InferenceLatencyMs atomic.Uint64

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	gauges := []struct {
		name, help string
		value      func() float64
	}{
		{"ambulancewatch_stream_frames_total", "Total frames written to MJPEG streams", func() float64 { return float64(m.FramesStreamed.Load()) }},
		{"ambulancewatch_stream_detections_total", "Total target detections in streamed frames", func() float64 { return float64(m.StreamDetections.Load()) }},
		{"ambulancewatch_streams_active", "Currently open MJPEG streams", func() float64 { return float64(m.ActiveStreams.Load()) }},
		{"ambulancewatch_streams_rejected_total", "Stream requests rejected because the limit was reached", func() float64 { return float64(m.StreamsRejected.Load()) }},
		{"ambulancewatch_stream_errors_total", "Streams ended by a capture, inference or write error", func() float64 { return float64(m.StreamErrors.Load()) }},
		{"ambulancewatch_uploads_total", "Uploaded images analysed", func() float64 { return float64(m.UploadsProcessed.Load()) }},
		{"ambulancewatch_uploads_detected_total", "Uploaded images containing the target", func() float64 { return float64(m.UploadsDetected.Load()) }},
		{"ambulancewatch_upload_errors_total", "Uploaded images that failed to decode or analyse", func() float64 { return float64(m.UploadErrors.Load()) }},
		{"ambulancewatch_alerts_fired_total", "Alerts delivered to sinks", func() float64 { return float64(m.AlertsFired.Load()) }},
		{"ambulancewatch_alerts_suppressed_total", "Alerts suppressed by the cooldown", func() float64 { return float64(m.AlertsSuppressed.Load()) }},
		{"ambulancewatch_alerts_dropped_total", "Alerts dropped because the queue was full", func() float64 { return float64(m.AlertsDropped.Load()) }},
		{"ambulancewatch_outputs_saved_total", "Annotated images written to the media directory", func() float64 { return float64(m.OutputsSaved.Load()) }},
		{"ambulancewatch_outputs_pruned_total", "Annotated images removed by retention", func() float64 { return float64(m.OutputsPruned.Load()) }},
		{"ambulancewatch_inference_latency_ms", "Latency of the last inference call", func() float64 { return float64(m.InferenceLatencyMs.Load()) }},
	}
	for _, g := range gauges {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: g.name, Help: g.help}, g.value))
	}
}

// ObserveInference records how long a single inference took.
func (m *Metrics) ObserveInference(d time.Duration) {
	m.InferenceLatencyMs.Store(uint64(d.Milliseconds()))
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
