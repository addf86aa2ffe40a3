package cmd

import (
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Manage the reference face gallery",
	Long: `Manage the gallery of registered student embeddings.

The gallery is built from a dataset directory laid out as one folder per
student, named <id>_<name>, containing reference images.`,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
}
