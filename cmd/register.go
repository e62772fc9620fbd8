package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <id> <name>",
	Short: "Enroll a person or replace their enrolled face",
	Long: `Enroll a person under the given ID. The face comes from an image
(first detected face is used) or from a precomputed embedding.
Registering an existing ID replaces its name and embedding.

Examples:
  face-attendance register 42 "Ana Nováková" --image ana.jpg
  face-attendance register 42 "Ana Nováková" --embedding-file ana.json`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	addCaptureFlags(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id, name := args[0], args[1]

	input, err := readCaptureInput(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	_, existed := a.service.Store().Get(id)

	if input.image != nil {
		if _, err := a.service.RegisterFromImage(ctx, id, name, input.image); err != nil {
			return fmt.Errorf("registering %s: %w", id, err)
		}
	} else if err := a.service.Register(ctx, id, name, input.embedding); err != nil {
		return fmt.Errorf("registering %s: %w", id, err)
	}

	if existed {
		fmt.Printf("Updated %s (%s)\n", name, id)
	} else {
		fmt.Printf("Registered %s (%s)\n", name, id)
	}
	fmt.Printf("Enrolled identities: %d\n", a.service.Store().Len())
	return nil
}
