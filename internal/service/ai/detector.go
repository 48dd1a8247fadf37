package ai

import (
	"context"
	"image"
	"os"

	"ambulancewatch/internal/config"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/vision"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DetectorService runs a YOLOv8 ONNX model through the OpenCV DNN module.
// gocv.Net is not safe for concurrent use, so the service keeps a pool of
// independent networks and every Detect call borrows one.
type DetectorService struct {
	nets      chan gocv.Net
	size      int
	labels    []string
	inputSize int
	minScore  float64
	nmsIoU    float64
	logger    *logger.Logger
}

// NewDetectorService loads cfg.InferenceWorkers copies of the model at cfg.ModelPath.
// The model file must already exist (see EnsureModel).
func NewDetectorService(cfg *config.Config, labels []string, logger *logger.Logger) (*DetectorService, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model file not found: %s", cfg.ModelPath)
	}

	size := cfg.InferenceWorkers
	if size < 1 {
		size = 1
	}
	inputSize := cfg.ModelInputSize
	if inputSize <= 0 {
		inputSize = 640
	}

	s := &DetectorService{
		nets:      make(chan gocv.Net, size),
		size:      size,
		labels:    labels,
		inputSize: inputSize,
		// keep everything the target filter could still accept
		minScore: cfg.ConfidenceThreshold,
		nmsIoU:   cfg.NMSThreshold,
		logger:   logger,
	}

	for i := 0; i < size; i++ {
		net, err := initializeNet(cfg.ModelPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.nets <- net
	}

	logger.Info("Detection network initialized successfully (%d workers, %d labels)", size, len(labels))
	return s, nil
}

// initializeNet loads one network and sets backend/target preferences.
func initializeNet(modelPath string) (gocv.Net, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return net, errors.Errorf("failed to load network from %s", modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return net, errors.New("failed to set preferable backend or target")
	}
	return net, nil
}

// Detect runs the model over img and returns every detection above the
// configured minimum score, after per-class non-maximum suppression.
func (s *DetectorService) Detect(ctx context.Context, img image.Image) ([]vision.Detection, error) {
	var net gocv.Net
	select {
	case net = <-s.nets:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { s.nets <- net }()

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "convert frame to mat")
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("frame is empty")
	}

	// BGR -> RGB happens inside blob creation
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(s.inputSize, s.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	// YOLOv8 head: [1, 4+classes, anchors]
	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, errors.Errorf("unexpected model output shape %v", dims)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "read model output")
	}

	bounds := img.Bounds()
	dets, err := vision.DecodeYOLOv8(vision.YOLOOutput{
		Data:    data,
		Classes: dims[1] - 4,
		Anchors: dims[2],
	}, vision.DecodeParams{
		Labels:   s.labels,
		MinScore: s.minScore,
		ScaleX:   float64(bounds.Dx()) / float64(s.inputSize),
		ScaleY:   float64(bounds.Dy()) / float64(s.inputSize),
		Bounds:   image.Rect(0, 0, bounds.Dx(), bounds.Dy()),
	})
	if err != nil {
		return nil, err
	}

	dets = vision.NonMaxSuppression(dets, s.nmsIoU)
	for _, d := range dets {
		s.logger.Debug("Detected %s (%.2f) at %v", d.Label, d.Confidence, d.Box)
	}
	return dets, nil
}

// Workers returns the number of pooled networks.
func (s *DetectorService) Workers() int {
	return s.size
}

// Close releases every pooled network. It must not race with Detect.
func (s *DetectorService) Close() error {
	for {
		select {
		case net := <-s.nets:
			net.Close()
		default:
			return nil
		}
	}
}
