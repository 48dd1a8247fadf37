package handler

import (
	"context"
	"net/http"

	"ambulancewatch/internal/config"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/metrics"
	"ambulancewatch/internal/service/stream"

	"golang.org/x/sync/semaphore"
)

// SourceOpener opens a fresh capture source for one stream.
type SourceOpener func(ctx context.Context) (stream.Source, error)

// CCTVStreamHandler streams annotated camera frames as multipart JPEG.
// At most limit streams run at once, extra requests get 503.
func CCTVStreamHandler(
	cfg *config.Config,
	open SourceOpener,
	processor stream.FrameProcessor,
	limit *semaphore.Weighted,
	m *metrics.Metrics,
	logger *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limit.TryAcquire(1) {
			m.StreamsRejected.Add(1)
			logger.Warning("Stream limit reached, rejecting %s", r.RemoteAddr)
			writeError(w, http.StatusServiceUnavailable, "Too many active streams")
			return
		}
		defer limit.Release(1)

		src, err := open(r.Context())
		if err != nil {
			logger.Error("Error opening camera %s: %v", cfg.CameraSource, err)
			writeError(w, http.StatusServiceUnavailable, "Camera unavailable")
			return
		}

		m.ActiveStreams.Add(1)
		defer m.ActiveStreams.Add(-1)

		logger.Info("📹 Stream started for %s", r.RemoteAddr)
		loop := stream.NewLoop(src, processor, cfg.JPEGQuality, m, logger)
		stats, err := loop.Run(r.Context(), stream.NewPartWriter(w))
		if err != nil {
			m.StreamErrors.Add(1)
			logger.Warning("📹 Stream for %s ended: %v", r.RemoteAddr, err)
		}
		logger.Info("📹 Stream for %s closed after %d frame(s), %d detection(s)", r.RemoteAddr, stats.Frames, stats.Detections)
	}
}
