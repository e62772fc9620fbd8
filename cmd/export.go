package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export attendance of a day to CSV",
	Long: `Write the attendance of a day to EXPORT_DIR/attendance_<date>.csv
with ID, Name, Time and Date columns. Days without attendance produce no file.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("date", "", "Date in YYYY-MM-DD format (default today)")
	exportCmd.Flags().String("dir", "", "Output directory (overrides EXPORT_DIR)")
	exportCmd.Flags().Bool("all", false, "Export every day that has attendance")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	exporter := a.exporter
	if dir := mustGetString(cmd, "dir"); dir != "" {
		exporter = export.NewExporter(a.service.Ledger(), dir)
	}

	var dates []string
	switch {
	case mustGetBool(cmd, "all"):
		if dates, err = a.service.Ledger().Dates(ctx); err != nil {
			return err
		}
	case mustGetString(cmd, "date") != "":
		dates = []string{mustGetString(cmd, "date")}
	default:
		dates = []string{a.today()}
	}

	for _, date := range dates {
		path, err := exporter.ExportDay(ctx, date)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", date, err)
		}
		if path == "" {
			fmt.Printf("No attendance records for %s\n", date)
			continue
		}
		fmt.Printf("Exported %s\n", path)
	}
	return nil
}
