package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Open the configured database and apply pending schema migrations.
Migrations also run automatically whenever a command opens the database.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// migrationLister is implemented by backends with a schema
type migrationLister interface {
	MigrationsApplied(ctx context.Context) ([]string, error)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	backend, kind, err := openBackend(ctx, config.Load())
	if err != nil {
		return err
	}
	defer backend.Close()

	lister, ok := backend.(migrationLister)
	if !ok {
		fmt.Printf("The %s backend has no schema to migrate\n", kind)
		return nil
	}

	versions, err := lister.MigrationsApplied(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Database schema is up to date (%s)\n", kind)
	for _, v := range versions {
		fmt.Printf("  %s\n", v)
	}
	return nil
}
