package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestHandlerExportsCounters(t *testing.T) {
	m := New()
	m.FramesStreamed.Add(3)
	m.AlertsDropped.Add(1)
	m.ActiveStreams.Add(2)
	m.ObserveInference(42 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	test.That(t, err, test.ShouldBeNil)

	text := string(body)
	test.That(t, strings.Contains(text, "ambulancewatch_stream_frames_total 3"), test.ShouldBeTrue)
	test.That(t, strings.Contains(text, "ambulancewatch_alerts_dropped_total 1"), test.ShouldBeTrue)
	test.That(t, strings.Contains(text, "ambulancewatch_streams_active 2"), test.ShouldBeTrue)
	test.That(t, strings.Contains(text, "ambulancewatch_inference_latency_ms 42"), test.ShouldBeTrue)
}
