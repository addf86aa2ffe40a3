package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "classtrack",
	Short: "Face recognition attendance tracking",
	Long: `ClassTrack marks student attendance from a live camera feed.
It matches detected faces against a gallery of registered students,
records attendance with duplicate suppression, and produces per-session
CSV reports.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
