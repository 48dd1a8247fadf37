// Package modelfetch obtains detection model weights before the detector starts.
package modelfetch

import (
	"context"
	"os"
	"path/filepath"

	"ambulancewatch/internal/logger"

	"github.com/hashicorp/go-getter"
	"github.com/pkg/errors"
)

// EnsureModel makes sure a model exists at path, downloading it from url
// when it is missing. Any failure here should abort start-up.
func EnsureModel(ctx context.Context, path, url string, logger *logger.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat model %s", path)
	}
	return FetchModel(ctx, path, url, logger)
}

// FetchModel downloads url to path unconditionally.
func FetchModel(ctx context.Context, path, url string, logger *logger.Logger) error {
	if url == "" {
		return errors.Errorf("model %s is missing and no download url is configured", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create model directory %s", dir)
		}
	}

	logger.Info("Downloading model from %s to %s", url, path)
	if err := getter.GetFile(path, url, getter.WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "download model from %s", url)
	}
	logger.Info("Model saved to %s", path)
	return nil
}
