package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// DefaultModelURL points at the exported YOLOv8n ONNX weights.
const DefaultModelURL = "https://github.com/ultralytics/assets/releases/download/v8.2.0/yolov8n.onnx"

type Config struct {
	Port             int
	DatabasePath     string
	StaticDir        string
	MediaDir         string
	MediaURL         string
	LogDirectory     string
	LogLevel         string
	RequireLogin     bool
	CORSOrigins      []string
	SessionHash      string
	SessionBlock     string
	CameraSource     string
	MaxStreams       int
	JPEGQuality      int
	OutputRetain     int
	OutputPruneEvery time.Duration

	// Detection model
	ModelPath           string
	ModelURL            string
	LabelsPath          string
	ModelInputSize      int
	InferenceWorkers    int // Liczba niezależnych sieci w puli detektora
	TargetLabel         string
	ConfidenceThreshold float64
	NMSThreshold        float64

	// Alerts
	AlertSound     string
	AlertPlayer    string
	AlertWorkers   int
	AlertQueueSize int
	AlertCooldown  time.Duration
}

// LoadEnvFile reads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win over the file. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

func Load() *Config {
	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		DatabasePath:     getEnv("DB_PATH", filepath.Join(".", "data", "ambulancewatch.db")),
		StaticDir:        getEnv("STATIC_DIR", filepath.Join(".", "static")),
		MediaDir:         getEnv("MEDIA_DIR", filepath.Join(".", "media")),
		MediaURL:         getEnv("MEDIA_URL", "/media/"),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		RequireLogin:     getEnvAsBool("REQUIRE_LOGIN", false),
		CORSOrigins:      getEnvAsList("CORS_ORIGINS"),
		SessionHash:      getEnv("SESSION_HASH_KEY", ""),
		SessionBlock:     getEnv("SESSION_BLOCK_KEY", ""),
		CameraSource:     getEnv("CAMERA_SOURCE", "0"),
		MaxStreams:       getEnvAsInt("MAX_STREAMS", 4),
		JPEGQuality:      getEnvAsInt("JPEG_QUALITY", 80),
		OutputRetain:     getEnvAsInt("OUTPUT_RETENTION", 50),
		OutputPruneEvery: getEnvAsDuration("OUTPUT_PRUNE_INTERVAL", time.Minute),

		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "yolov8n.onnx")),
		ModelURL:            getEnv("MODEL_URL", DefaultModelURL),
		LabelsPath:          getEnv("LABELS_PATH", ""),
		ModelInputSize:      getEnvAsInt("MODEL_INPUT_SIZE", 640),
		InferenceWorkers:    getEnvAsInt("INFERENCE_WORKERS", 1),
		TargetLabel:         getEnv("TARGET_LABEL", "ambulance"),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.3),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.45),

		AlertSound:     getEnv("ALERT_SOUND", filepath.Join(".", "static", "sounds", "alarm.wav")),
		AlertPlayer:    getEnv("ALERT_PLAYER", "aplay"),
		AlertWorkers:   getEnvAsInt("ALERT_WORKERS", 2),
		AlertQueueSize: getEnvAsInt("ALERT_QUEUE_SIZE", 16),
		AlertCooldown:  getEnvAsDuration("ALERT_COOLDOWN", 5*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := cast.ToIntE(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := cast.ToFloat64E(value); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := cast.ToBoolE(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := cast.ToDurationE(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
