package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/detect"
	"github.com/classtrack/classtrack/internal/gallery"
	"github.com/classtrack/classtrack/internal/recognize"
)

var galleryBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Encode the dataset into a gallery artifact",
	Long: `Encode every reference image in the dataset directory and write the
gallery artifact the matcher loads at startup.

Images where the face service finds no face are skipped with a warning.
Images with several faces use the first detected one, so reference
images should show a single person.

Examples:
  # Build with defaults from the environment
  classtrack gallery build

  # Explicit dataset and output
  classtrack gallery build --dataset ./dataset --output ./attendance/gallery.gob`,
	RunE: runGalleryBuild,
}

func init() {
	galleryCmd.AddCommand(galleryBuildCmd)

	galleryBuildCmd.Flags().String("dataset", "", "Dataset directory (defaults to DATASET_DIR)")
	galleryBuildCmd.Flags().String("output", "", "Artifact path (defaults to GALLERY_PATH)")
	galleryBuildCmd.Flags().Int("concurrency", 4, "Parallel encode requests")
	galleryBuildCmd.Flags().Bool("json", false, "Output as JSON")
}

// GalleryBuildResult represents the result of a gallery build operation
type GalleryBuildResult struct {
	Success       bool   `json:"success"`
	Students      int    `json:"students"`
	Images        int    `json:"images"`
	Entries       int    `json:"entries"`
	Skipped       int    `json:"skipped"`
	Output        string `json:"output"`
	Profile       string `json:"profile"`
	DurationMs    int64  `json:"duration_ms"`
	DurationHuman string `json:"duration_human,omitempty"`
}

// encodeImage sends one reference image to the face service and returns the
// embedding of its first face, or nil if no face was found.
func encodeImage(ctx context.Context, client *detect.Client, path string, dim int) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	faces, err := client.Encode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	if len(faces) == 0 {
		return nil, nil
	}

	emb := faces[0].Embedding
	if len(emb) != dim {
		return nil, fmt.Errorf("%s: face service returned %d-dim embedding, profile expects %d", path, len(emb), dim)
	}
	return emb, nil
}

func runGalleryBuild(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	concurrency := mustGetInt(cmd, "concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	cfg := config.Load()
	datasetDir := mustGetString(cmd, "dataset")
	if datasetDir == "" {
		datasetDir = cfg.Gallery.DatasetDir
	}
	output := mustGetString(cmd, "output")
	if output == "" {
		output = cfg.Gallery.Path
	}
	if cfg.FaceService.URL == "" {
		return fmt.Errorf("FACE_SERVICE_URL environment variable is required")
	}

	profile, err := recognize.LoadProfile(cfg.Gallery.Profile, cfg.Gallery.Threshold)
	if err != nil {
		return err
	}

	people, err := gallery.ScanDataset(datasetDir)
	if err != nil {
		return err
	}
	if len(people) == 0 {
		return fmt.Errorf("no student folders found in %s (expected <id>_<name>/ directories)", datasetDir)
	}

	totalImages := 0
	for _, p := range people {
		totalImages += len(p.Images)
	}
	if !jsonOutput {
		fmt.Printf("Encoding %d images for %d students\n\n", totalImages, len(people))
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(totalImages,
			progressbar.OptionSetDescription("Encoding gallery"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	client := detect.NewClient(cfg.FaceService.URL)
	startTime := time.Now()

	var mu sync.Mutex
	var entries []gallery.Entry
	var skipped int64

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(concurrency)

	for _, person := range people {
		for _, image := range person.Images {
			g.Go(func() error {
				emb, err := encodeImage(ctx, client, image, profile.Dim)
				if bar != nil {
					bar.Add(1)
				}
				if err != nil {
					return err
				}
				if emb == nil {
					atomic.AddInt64(&skipped, 1)
					if !jsonOutput {
						fmt.Fprintf(os.Stderr, "\nWarning: no face found in %s, skipping\n", image)
					}
					return nil
				}

				mu.Lock()
				entries = append(entries, gallery.Entry{
					StudentID: person.StudentID,
					Name:      person.Name,
					Embedding: emb,
				})
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no usable faces found in %s", datasetDir)
	}

	artifact := &gallery.Artifact{
		Profile: profile.Name,
		Dim:     profile.Dim,
		Entries: entries,
	}
	if err := gallery.Save(output, artifact); err != nil {
		return err
	}

	duration := time.Since(startTime)
	result := GalleryBuildResult{
		Success:       true,
		Students:      len(people),
		Images:        totalImages,
		Entries:       len(entries),
		Skipped:       int(skipped),
		Output:        output,
		Profile:       profile.Name,
		DurationMs:    duration.Milliseconds(),
		DurationHuman: formatDuration(duration),
	}

	if jsonOutput {
		result.DurationHuman = ""
		return outputJSON(result)
	}

	fmt.Println("\n\nGallery build complete!")
	fmt.Printf("  Students:  %d\n", result.Students)
	fmt.Printf("  Entries:   %d\n", result.Entries)
	if result.Skipped > 0 {
		fmt.Printf("  Skipped:   %d\n", result.Skipped)
	}
	fmt.Printf("  Output:    %s\n", result.Output)
	fmt.Printf("  Duration:  %s\n", result.DurationHuman)

	return nil
}
