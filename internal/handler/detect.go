package handler

import (
	"context"
	"io"
	"net/http"

	"ambulancewatch/internal/dto"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/service/detection"
	"ambulancewatch/internal/vision"

	"github.com/pkg/errors"
)

const (
	// MaxUploadSize limits the multipart body of an upload (32 MB).
	MaxUploadSize = 32 << 20

	msgInvalidRequest = "Invalid Request"
)

// ImageDetector analyses one uploaded image.
type ImageDetector interface {
	DetectImage(ctx context.Context, data []byte) (dto.DetectResponse, error)
}

// DetectAmbulanceHandler handles POST /detect-ambulance with a multipart field "file".
func DetectAmbulanceHandler(detector ImageDetector, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusBadRequest, msgInvalidRequest)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.Error("Error reading upload: %v", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		result, err := detector.DetectImage(r.Context(), data)
		if err != nil {
			switch {
			case errors.Is(err, vision.ErrDecode):
				logger.Warning("Rejected upload: %v", err)
			case errors.Is(err, detection.ErrInference):
				logger.Error("Inference failed on upload: %v", err)
			default:
				logger.Error("Error processing upload: %v", err)
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
