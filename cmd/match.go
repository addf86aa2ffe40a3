package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/detect"
)

var matchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Match the faces in an image against the gallery",
	Long: `Match every face in a single image against the gallery artifact and
print who was recognized. Useful for checking the threshold before a
live session.

Examples:
  classtrack match photo.jpg
  classtrack match photo.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

// MatchOutcome is one matched face in the image
type MatchOutcome struct {
	StudentID string  `json:"student_id,omitempty"`
	Name      string  `json:"name"`
	Distance  float64 `json:"distance"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	if cfg.FaceService.URL == "" {
		return fmt.Errorf("FACE_SERVICE_URL environment variable is required")
	}

	matcher, err := newMatcher(cfg)
	if err != nil {
		return err
	}
	if matcher.Len() == 0 {
		return fmt.Errorf("gallery is empty, run 'classtrack gallery build' first")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	client := detect.NewClient(cfg.FaceService.URL)
	faces, err := client.Encode(context.Background(), data)
	if err != nil {
		return err
	}

	outcomes := make([]MatchOutcome, 0, len(faces))
	for _, face := range faces {
		res := matcher.Match(face.Embedding)
		outcomes = append(outcomes, MatchOutcome{
			StudentID: res.StudentID,
			Name:      res.Name,
			Distance:  res.Distance,
		})
	}

	if jsonOutput {
		return outputJSON(map[string]any{
			"faces":   len(faces),
			"matches": outcomes,
		})
	}

	if len(outcomes) == 0 {
		fmt.Println("No faces found in the image.")
		return nil
	}

	fmt.Printf("Found %d faces:\n", len(outcomes))
	for _, o := range outcomes {
		if o.StudentID == "" {
			fmt.Printf("  %s (distance %.3f)\n", o.Name, o.Distance)
			continue
		}
		fmt.Printf("  %s (%s), distance %.3f\n", o.Name, o.StudentID, o.Distance)
	}
	return nil
}
