package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Work with the attendance ledger",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records",
	Long: `List attendance records from the ledger.

Examples:
  # All records
  face-attendance attendance list

  # One day
  face-attendance attendance list --date 2026-08-29

  # One person (name matching ignores case and diacritics)
  face-attendance attendance list --name "Jan Novák"`,
	RunE: runAttendanceList,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd)

	attendanceListCmd.Flags().String("date", "", "Only records for this date (YYYY-MM-DD)")
	attendanceListCmd.Flags().String("name", "", "Only records for this person")
	attendanceListCmd.Flags().Bool("json", false, "Output as JSON")
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	date := mustGetString(cmd, "date")
	name := mustGetString(cmd, "name")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	ctx := cmd.Context()

	pool, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	led, err := openLedger(cfg, pool)
	if err != nil {
		return err
	}

	records, err := led.Records(ctx)
	if err != nil {
		return err
	}

	filtered := make([]ledger.Record, 0, len(records))
	for _, r := range records {
		if date != "" && r.Date != date {
			continue
		}
		if name != "" && roster.NormalizeName(r.Name) != roster.NormalizeName(name) {
			continue
		}
		filtered = append(filtered, r)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(filtered)
	}

	if len(filtered) == 0 {
		fmt.Println("No attendance records found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDATE\tTIME\tCONFIDENCE")
	for _, r := range filtered {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\n", r.Name, r.Date, r.Time, r.Confidence*100)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d record(s)\n", len(filtered))
	return nil
}
