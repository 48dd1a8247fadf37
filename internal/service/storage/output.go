package storage

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ambulancewatch/internal/config"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/metrics"
	"ambulancewatch/internal/vision"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	outputPrefix = "detected_"
	outputExt    = ".jpg"
)

// OutputService writes annotated detection results under the media directory
// and keeps only the newest ones.
type OutputService struct {
	dir        string
	urlPrefix  string
	quality    int
	retain     int
	pruneEvery time.Duration
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// NewOutputService creates the media directory if needed.
func NewOutputService(cfg *config.Config, m *metrics.Metrics, logger *logger.Logger) (*OutputService, error) {
	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create media directory %s", cfg.MediaDir)
	}
	if m == nil {
		m = metrics.New()
	}
	return &OutputService{
		dir:        cfg.MediaDir,
		urlPrefix:  strings.TrimSuffix(cfg.MediaURL, "/") + "/",
		quality:    cfg.JPEGQuality,
		retain:     cfg.OutputRetain,
		pruneEvery: cfg.OutputPruneEvery,
		metrics:    m,
		logger:     logger,
	}, nil
}

// Save encodes img under a fresh detected_<uuid>.jpg name and returns the
// file name and its public URL. The file appears atomically.
func (s *OutputService) Save(img image.Image) (string, string, error) {
	name := outputPrefix + uuid.NewString() + outputExt

	tmp, err := os.CreateTemp(s.dir, "."+outputPrefix+"*.tmp")
	if err != nil {
		return "", "", errors.Wrap(err, "create temp output")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := vision.EncodeJPEG(tmp, img, s.quality); err != nil {
		tmp.Close()
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		return "", "", errors.Wrap(err, "close temp output")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", "", errors.Wrap(err, "chmod output")
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return "", "", errors.Wrap(err, "publish output")
	}

	s.metrics.OutputsSaved.Add(1)
	return name, s.URL(name), nil
}

// URL returns the public URL of an output file name.
func (s *OutputService) URL(name string) string {
	return s.urlPrefix + name
}

// List returns output file names, newest first.
func (s *OutputService) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "read media directory")
	}

	type output struct {
		name string
		mod  time.Time
	}
	var outputs []output
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, outputPrefix) || !strings.HasSuffix(name, outputExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed concurrently
			continue
		}
		outputs = append(outputs, output{name: name, mod: info.ModTime()})
	}

	sort.Slice(outputs, func(i, j int) bool {
		if outputs[i].mod.Equal(outputs[j].mod) {
			return outputs[i].name > outputs[j].name
		}
		return outputs[i].mod.After(outputs[j].mod)
	})

	names := make([]string, len(outputs))
	for i, o := range outputs {
		names[i] = o.name
	}
	return names, nil
}

// Prune removes all but the newest retain outputs and returns how many were removed.
// A retain of zero or less keeps everything.
func (s *OutputService) Prune() (int, error) {
	if s.retain <= 0 {
		return 0, nil
	}
	names, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(names) <= s.retain {
		return 0, nil
	}

	removed := 0
	for _, name := range names[s.retain:] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			s.logger.Error("Error removing old output %s: %v", name, err)
			continue
		}
		removed++
	}
	s.metrics.OutputsPruned.Add(uint64(removed))
	s.logger.Info("Pruned %d old output image(s), kept %d", removed, s.retain)
	return removed, nil
}

// Run schedules Prune every prune interval until ctx is done.
func (s *OutputService) Run(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "create retention scheduler")
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.pruneEvery),
		gocron.NewTask(func() {
			if _, err := s.Prune(); err != nil {
				s.logger.Error("Output retention failed: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.Wrap(err, "schedule output retention")
	}

	scheduler.Start()
	s.logger.Info("Output retention keeps %d image(s), checked every %s", s.retain, s.pruneEvery)

	<-ctx.Done()
	return errors.Wrap(scheduler.Shutdown(), "stop retention scheduler")
}
