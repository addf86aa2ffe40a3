package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Camera      CameraConfig
	FaceService FaceServiceConfig
	Gallery     GalleryConfig
	Database    DatabaseConfig
	Session     SessionConfig
	Pipeline    PipelineConfig
	Report      ReportConfig
	Notify      NotifyConfig
	Web         WebConfig
}

type CameraConfig struct {
	URL string // MJPEG stream URL (e.g., http://camera:8081/stream)
}

type FaceServiceConfig struct {
	URL string // face detection/encoding service (defaults to http://localhost:8000)
}

type GalleryConfig struct {
	Path       string // path to the encoded gallery artifact
	DatasetDir string // directory with per-student reference images (<id>_<name>/*.jpg)
	Profile    string // matcher profile name from profiles.yaml (defaults to dlib)
	Threshold  float64
	HNSW       bool // use the HNSW index instead of a linear scan
}

type DatabaseConfig struct {
	Driver string // sqlite (default), postgres or mysql
	DSN    string // connection string; for sqlite defaults to <DataDir>/attendance.db
}

type SessionConfig struct {
	HoldDuration time.Duration // confirmation overlay dwell time
	DedupWindow  time.Duration // store-level re-mark suppression window
}

type PipelineConfig struct {
	ScaleFactor float64 // detection downscale factor (0 < f <= 1)
	MaxFPS      float64 // frame-rate cap for the polling loop
}

type ReportConfig struct {
	DataDir string // base directory for the database and CSV mirror
	Dir     string // directory for per-session report artifacts
}

type NotifyConfig struct {
	URLs []string // shoutrrr service URLs, comma separated in NOTIFY_URLS
}

type WebConfig struct {
	AllowedOrigins []string // extra CORS origins; localhost is always allowed
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a Go duration.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envStringSlice(key string) []string {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}

func Load() *Config {
	dataDir := envString("DATA_DIR", "attendance")

	return &Config{
		Camera: CameraConfig{
			URL: os.Getenv("CAMERA_URL"),
		},
		FaceService: FaceServiceConfig{
			URL: os.Getenv("FACE_SERVICE_URL"),
		},
		Gallery: GalleryConfig{
			Path:       envString("GALLERY_PATH", filepath.Join(dataDir, "gallery.gob")),
			DatasetDir: envString("DATASET_DIR", "dataset"),
			Profile:    envString("MATCH_PROFILE", "dlib"),
			Threshold:  envFloat("MATCH_THRESHOLD", 0), // 0 means use the profile default
			HNSW:       os.Getenv("HNSW_ENABLED") == "true",
		},
		Database: DatabaseConfig{
			Driver: envString("DB_DRIVER", "sqlite"),
			DSN:    os.Getenv("DB_DSN"),
		},
		Session: SessionConfig{
			HoldDuration: envDuration("HOLD_DURATION", 4*time.Second),
			DedupWindow:  envDuration("DEDUP_WINDOW", 3*time.Minute),
		},
		Pipeline: PipelineConfig{
			ScaleFactor: envFloat("SCALE_FACTOR", 0.5),
			MaxFPS:      envFloat("MAX_FPS", 15),
		},
		Report: ReportConfig{
			DataDir: dataDir,
			Dir:     envString("REPORT_DIR", dataDir),
		},
		Notify: NotifyConfig{
			URLs: envStringSlice("NOTIFY_URLS"),
		},
		Web: WebConfig{
			AllowedOrigins: envStringSlice("WEB_ALLOWED_ORIGINS"),
		},
	}
}
