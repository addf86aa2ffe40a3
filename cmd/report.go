package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/report"
	"github.com/classtrack/classtrack/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a session report from the attendance log",
	Long: `Generate a session report offline, without a running server. Records
from the given date at or after the start time are aggregated the same
way a live session stop would.

Examples:
  # Everything recorded today from 09:00 on
  classtrack report --session "Morning Lecture" --from 09:00:00

  # A past day
  classtrack report --session "Morning Lecture" --date 2025-09-01 --from 09:00:00`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("session", "Session", "Session name used in the report")
	reportCmd.Flags().String("date", "", "Date of the session (YYYY-MM-DD, defaults to today)")
	reportCmd.Flags().String("from", "00:00:00", "Start of the session window (HH:MM:SS)")
	reportCmd.Flags().Bool("json", false, "Output as JSON")
}

func runReport(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	sessionName := mustGetString(cmd, "session")

	date := mustGetString(cmd, "date")
	if date == "" {
		date = time.Now().Format(store.DateLayout)
	}
	from := mustGetString(cmd, "from")

	start, err := store.ParseStamp(date, from)
	if err != nil {
		return err
	}

	cfg := config.Load()
	recorder, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer recorder.Close()

	rep, err := report.NewGenerator(cfg.Report.Dir).Generate(context.Background(), recorder, start, sessionName)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(rep)
	}

	fmt.Println(rep.Summary)
	for _, a := range rep.Attendees {
		fmt.Printf("  %s (%s) at %s\n", a.Name, a.StudentID, a.Time)
	}
	return nil
}
