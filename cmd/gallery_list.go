package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/gallery"
)

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the students in the gallery artifact",
	RunE:  runGalleryList,
}

func init() {
	galleryCmd.AddCommand(galleryListCmd)

	galleryListCmd.Flags().String("input", "", "Artifact path (defaults to GALLERY_PATH)")
	galleryListCmd.Flags().Bool("json", false, "Output as JSON")
}

// GalleryStudent is one student summarized from the artifact
type GalleryStudent struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Samples   int    `json:"samples"`
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	input := mustGetString(cmd, "input")
	if input == "" {
		input = config.Load().Gallery.Path
	}

	artifact, err := gallery.Load(input)
	if err != nil {
		return err
	}

	byStudent := make(map[string]*GalleryStudent)
	for _, e := range artifact.Entries {
		if s, ok := byStudent[e.StudentID]; ok {
			s.Samples++
			continue
		}
		byStudent[e.StudentID] = &GalleryStudent{StudentID: e.StudentID, Name: e.Name, Samples: 1}
	}

	students := make([]GalleryStudent, 0, len(byStudent))
	for _, s := range byStudent {
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].StudentID < students[j].StudentID })

	if jsonOutput {
		return outputJSON(map[string]any{
			"profile":  artifact.Profile,
			"dim":      artifact.Dim,
			"entries":  len(artifact.Entries),
			"students": students,
		})
	}

	fmt.Printf("Gallery: %s (profile %s, %d-dim, %d entries)\n\n", input, artifact.Profile, artifact.Dim, len(artifact.Entries))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT ID\tNAME\tSAMPLES")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%d\n", s.StudentID, s.Name, s.Samples)
	}
	return w.Flush()
}
