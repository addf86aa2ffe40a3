package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/classtrack/classtrack/internal/config"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "List the attendance log",
	Long:  `List every attendance record in the durable store, most recent first.`,
	RunE:  runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)

	attendanceCmd.Flags().Bool("json", false, "Output as JSON")
	attendanceCmd.Flags().Int("limit", 0, "Show at most N records (0 = all)")
}

func runAttendance(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	limit := mustGetInt(cmd, "limit")

	cfg := config.Load()
	recorder, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer recorder.Close()

	records, err := recorder.All(context.Background())
	if err != nil {
		return err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	if jsonOutput {
		return outputJSON(map[string]any{
			"count":   len(records),
			"records": records,
		})
	}

	if len(records) == 0 {
		fmt.Println("No attendance records.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT ID\tNAME\tDATE\tTIME")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.StudentID, r.Name, r.Date, r.Time)
	}
	return w.Flush()
}
