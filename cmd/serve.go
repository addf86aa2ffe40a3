package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/detect"
	"github.com/classtrack/classtrack/internal/notify"
	"github.com/classtrack/classtrack/internal/pipeline"
	"github.com/classtrack/classtrack/internal/report"
	"github.com/classtrack/classtrack/internal/session"
	"github.com/classtrack/classtrack/internal/store"
	"github.com/classtrack/classtrack/internal/store/csvlog"
	"github.com/classtrack/classtrack/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance server",
	Long: `Start the ClassTrack server: the recognition pipeline and the web
interface with the live annotated stream and session controls.

Requires CAMERA_URL and FACE_SERVICE_URL to be set. The attendance
database defaults to a SQLite file under DATA_DIR; every insertion is
mirrored into a CSV file next to it.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// openRecorder opens the durable store and wraps it with the CSV mirror.
func openRecorder(cfg *config.Config) (store.Recorder, error) {
	backend, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening attendance store: %w", err)
	}

	mirrorPath := filepath.Join(cfg.Report.DataDir, "attendance.csv")
	mirror, err := csvlog.Open(mirrorPath, cfg.Session.DedupWindow)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("opening attendance mirror: %w", err)
	}

	fmt.Printf("Attendance store: %s (mirror %s)\n", cfg.Database.Driver, mirrorPath)
	return store.NewWriteThrough(backend, mirror), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.FaceService.URL == "" {
		return fmt.Errorf("FACE_SERVICE_URL environment variable is required")
	}
	opener, err := cameraOpener(cfg.Camera.URL)
	if err != nil {
		return err
	}

	recorder, err := openRecorder(cfg)
	if err != nil {
		return err
	}
	defer recorder.Close()

	matcher, err := newMatcher(cfg)
	if err != nil {
		return fmt.Errorf("initializing matcher: %w", err)
	}
	fmt.Printf("Gallery ready: %d entries (profile %s)\n", matcher.Len(), cfg.Gallery.Profile)

	notifier, err := notify.New(cfg.Notify.URLs)
	if err != nil {
		return fmt.Errorf("initializing notifier: %w", err)
	}
	if notifier.Enabled() {
		fmt.Printf("Notifications enabled (%d channels)\n", len(cfg.Notify.URLs))
	}

	sessions := session.NewManager(cfg.Session.HoldDuration)
	faces := detect.NewClient(cfg.FaceService.URL)
	pipe := pipeline.New(opener, faces, matcher, sessions, recorder, pipeline.Options{
		ScaleFactor: cfg.Pipeline.ScaleFactor,
		MaxFPS:      cfg.Pipeline.MaxFPS,
	})

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, web.Deps{
		Sessions:    sessions,
		Recorder:    recorder,
		Reports:     report.NewGenerator(cfg.Report.Dir),
		Matcher:     matcher,
		Notifier:    notifier,
		Frames:      pipe,
		Pipeline:    pipe,
		GalleryPath: cfg.Gallery.Path,
		DatasetDir:  cfg.Gallery.DatasetDir,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pipe.Run(ctx)
	})
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	fmt.Printf("Starting ClassTrack on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
