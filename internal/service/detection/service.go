package detection

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"ambulancewatch/internal/dto"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/metrics"
	"ambulancewatch/internal/service/alert"
	"ambulancewatch/internal/vision"

	"github.com/pkg/errors"
)

// ErrInference marks a failure inside the model.
var ErrInference = errors.New("inference failed")

// Alerter accepts alerts without blocking.
type Alerter interface {
	Trigger(a alert.Alert) alert.Outcome
}

// OutputStore persists annotated images.
type OutputStore interface {
	Save(img image.Image) (name, url string, err error)
}

// Analysis is the outcome of running one frame through the pipeline.
type Analysis struct {
	Frame   image.Image
	Targets []vision.Detection
}

// Detected reports whether the frame contains the target.
func (a Analysis) Detected() bool {
	return len(a.Targets) > 0
}

// Best returns the most confident target detection.
func (a Analysis) Best() (vision.Detection, bool) {
	if len(a.Targets) == 0 {
		return vision.Detection{}, false
	}
	best := a.Targets[0]
	for _, d := range a.Targets[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best, true
}

// Service runs detect, filter, draw and alert for uploads and stream frames.
type Service struct {
	detector vision.Detector
	filter   vision.Postprocessor
	overlay  *vision.Overlay
	alerts   Alerter
	outputs  OutputStore
	target   string
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewService wires the pipeline for target detections above threshold.
func NewService(
	detector vision.Detector,
	target string,
	threshold float64,
	alerts Alerter,
	outputs OutputStore,
	m *metrics.Metrics,
	logger *logger.Logger,
) (*Service, error) {
	overlay, err := vision.NewOverlay(target)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		detector: detector,
		filter:   vision.NewTargetFilter(target, threshold),
		overlay:  overlay,
		alerts:   alerts,
		outputs:  outputs,
		target:   target,
		metrics:  m,
		logger:   logger,
	}, nil
}

// Analyze detects, keeps only target detections and draws them onto a copy of img.
// It never triggers alerts.
func (s *Service) Analyze(ctx context.Context, img image.Image) (Analysis, error) {
	start := time.Now()
	dets, err := s.detector.Detect(ctx, img)
	s.metrics.ObserveInference(time.Since(start))
	if err != nil {
		return Analysis{}, errors.Wrapf(ErrInference, "%v", err)
	}

	targets := s.filter(dets)
	return Analysis{
		Frame:   s.overlay.Draw(img, targets),
		Targets: targets,
	}, nil
}

// ProcessFrame analyses one stream frame and schedules an alert when the target is in it.
func (s *Service) ProcessFrame(ctx context.Context, img image.Image) (Analysis, error) {
	a, err := s.Analyze(ctx, img)
	if err != nil {
		return a, err
	}
	if best, ok := a.Best(); ok {
		s.trigger(alert.SourceCCTV, best, "")
	}
	return a, nil
}

// DetectImage handles one uploaded image. Undecodable input is reported as
// vision.ErrDecode and model failures as ErrInference.
func (s *Service) DetectImage(ctx context.Context, data []byte) (dto.DetectResponse, error) {
	s.metrics.UploadsProcessed.Add(1)

	img, err := vision.DecodeBytes(data)
	if err != nil {
		s.metrics.UploadErrors.Add(1)
		return dto.DetectResponse{}, err
	}

	a, err := s.Analyze(ctx, img)
	if err != nil {
		s.metrics.UploadErrors.Add(1)
		return dto.DetectResponse{}, err
	}

	best, ok := a.Best()
	if !ok {
		return dto.DetectResponse{Detected: false, Message: s.NotDetectedMessage()}, nil
	}

	_, url, err := s.outputs.Save(a.Frame)
	if err != nil {
		s.metrics.UploadErrors.Add(1)
		return dto.DetectResponse{}, errors.Wrap(err, "save annotated image")
	}
	s.metrics.UploadsDetected.Add(1)
	s.trigger(alert.SourceUpload, best, url)

	return dto.DetectResponse{
		Detected:    true,
		Message:     s.DetectedMessage(),
		OutputImage: url,
	}, nil
}

func (s *Service) trigger(source string, d vision.Detection, outputURL string) {
	outcome := s.alerts.Trigger(alert.Alert{
		Source:      source,
		Label:       d.Label,
		Confidence:  d.Confidence,
		Box:         d.Box,
		OutputImage: outputURL,
	})
	s.logger.Debug("Alert from %s %s", source, outcome)
}

// DetectedMessage is returned when an upload contains the target,
// e.g. "Ambulance detected! Alert triggered.".
func (s *Service) DetectedMessage() string {
	return strings.TrimSuffix(vision.Caption(s.target), " Detected") + " detected! Alert triggered."
}

// NotDetectedMessage is returned for uploads without the target.
func (s *Service) NotDetectedMessage() string {
	return fmt.Sprintf("No %s detected.", strings.ToLower(strings.TrimSpace(s.target)))
}
