package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/classtrack/classtrack/internal/camera"
	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/gallery"
	"github.com/classtrack/classtrack/internal/recognize"
	"github.com/classtrack/classtrack/internal/store"
	"github.com/classtrack/classtrack/internal/store/mysql"
	"github.com/classtrack/classtrack/internal/store/postgres"
	"github.com/classtrack/classtrack/internal/store/sqlite"
)

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// formatDuration formats a duration as a human-readable string
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// openStore opens the attendance store backend selected by DB_DRIVER.
func openStore(cfg *config.Config) (store.Recorder, error) {
	switch cfg.Database.Driver {
	case "sqlite", "":
		path := cfg.Database.DSN
		if path == "" {
			path = filepath.Join(cfg.Report.DataDir, "attendance.db")
		}
		return sqlite.Open(path, cfg.Session.DedupWindow)
	case "postgres":
		return postgres.Open(cfg.Database.DSN, cfg.Session.DedupWindow)
	case "mysql":
		return mysql.Open(cfg.Database.DSN, cfg.Session.DedupWindow)
	default:
		return nil, fmt.Errorf("unknown database driver %q (want sqlite, postgres or mysql)", cfg.Database.Driver)
	}
}

// newMatcher loads the configured profile and gallery artifact. A missing
// artifact yields an empty matcher; every face is unknown until a gallery is
// built and reloaded.
func newMatcher(cfg *config.Config) (recognize.Matcher, error) {
	profile, err := recognize.LoadProfile(cfg.Gallery.Profile, cfg.Gallery.Threshold)
	if err != nil {
		return nil, err
	}

	var entries []gallery.Entry
	artifact, err := gallery.Load(cfg.Gallery.Path)
	switch {
	case err == nil:
		entries = artifact.Entries
	case errors.Is(err, os.ErrNotExist):
		fmt.Printf("No gallery artifact at %s, starting with an empty gallery\n", cfg.Gallery.Path)
	default:
		return nil, err
	}

	if cfg.Gallery.HNSW {
		return recognize.NewHNSWMatcher(profile, entries)
	}
	return recognize.NewFlatMatcher(profile, entries)
}

// cameraOpener picks the source type from the camera URL: http(s) URLs are
// MJPEG streams, anything else is a directory of still frames.
func cameraOpener(url string) (camera.Opener, error) {
	if url == "" {
		return nil, fmt.Errorf("CAMERA_URL environment variable is required")
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return camera.MJPEGOpener(url), nil
	}
	return camera.DirOpener(url), nil
}
