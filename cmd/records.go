package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List attendance of a day",
	Long: `List who was marked present on a day, in order of arrival.
Defaults to today in ATTENDANCE_TIMEZONE.`,
	RunE: runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.Flags().String("date", "", "Date in YYYY-MM-DD format (default today)")
}

func runRecords(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	date := mustGetString(cmd, "date")
	if date == "" {
		date = a.today()
	}

	records, err := a.service.Ledger().RecordsFor(ctx, date)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("No attendance recorded on %s\n", date)
		return nil
	}

	fmt.Printf("Attendance on %s (%d present)\n\n", date, len(records))
	fmt.Printf("%-10s  %-12s  %s\n", "TIME", "ID", "NAME")
	for _, r := range records {
		fmt.Printf("%-10s  %-12s  %s\n", r.Timestamp.Format(constants.DisplayTimeLayout), r.ID, r.Name)
	}
	return nil
}
