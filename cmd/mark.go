package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/spf13/cobra"
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Process one capture and mark attendance",
	Long: `Match a capture against the enrolled identities and record attendance
for the matched person, at most once per day.

With --image every detected face is processed.`,
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)
	addCaptureFlags(markCmd)
}

func runMark(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	input, err := readCaptureInput(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var outcomes []attendance.Outcome
	if input.image != nil {
		outcomes, err = a.service.ProcessImage(ctx, input.image)
	} else {
		var out attendance.Outcome
		out, err = a.service.ProcessCapture(ctx, input.embedding)
		outcomes = []attendance.Outcome{out}
	}
	for _, out := range outcomes {
		fmt.Println(out)
	}
	return err
}
