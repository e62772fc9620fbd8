package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/spf13/cobra"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "Inspect enrolled identities",
}

var identitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	RunE:  runIdentitiesList,
}

var identitiesNearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Show the closest identities to a capture",
	Long: `List the enrolled identities closest to a capture together with their
Euclidean distance, regardless of the match tolerance. Useful for tuning
MATCH_TOLERANCE. Does not record attendance.`,
	RunE: runIdentitiesNearest,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesListCmd)
	identitiesCmd.AddCommand(identitiesNearestCmd)

	identitiesListCmd.Flags().String("name", "", "Only identities with this name (case and accent insensitive)")

	addCaptureFlags(identitiesNearestCmd)
	identitiesNearestCmd.Flags().Int("limit", constants.DefaultNearestLimit, "Number of identities to show")
	identitiesNearestCmd.Flags().Float64("tolerance", 0, "Tolerance to evaluate instead of MATCH_TOLERANCE")
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	store := a.service.Store()
	items := store.All()
	if name := mustGetString(cmd, "name"); name != "" {
		items = store.FindByName(name)
	}

	fmt.Printf("%-12s  %s\n", "ID", "NAME")
	for _, it := range items {
		fmt.Printf("%-12s  %s\n", it.ID, it.Name)
	}
	fmt.Printf("\n%d of %d identities (dim %d)\n", len(items), store.Len(), store.Dim())
	return nil
}

func runIdentitiesNearest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	limit := mustGetInt(cmd, "limit")

	input, err := readCaptureInput(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	query := input.embedding
	if input.image != nil {
		if query, err = a.service.FirstFace(ctx, input.image); err != nil {
			return err
		}
	}

	neighbors, err := nearest(ctx, a, query, limit)
	if err != nil {
		return err
	}
	if len(neighbors) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}

	tolerance := a.service.Tolerance()
	if t := mustGetFloat64(cmd, "tolerance"); t > 0 {
		tolerance = t
	}
	fmt.Printf("%-12s  %-24s  %-10s  %s\n", "ID", "NAME", "DISTANCE", "ACCEPTED")
	for _, n := range neighbors {
		fmt.Printf("%-12s  %-24s  %-10.4f  %v\n", n.ID, n.Name, n.Distance, n.Distance < tolerance)
	}
	fmt.Printf("\nTolerance: %.2f\n", tolerance)
	return nil
}

// nearest asks the database when it can rank identities itself and
// scans the in-memory store otherwise.
func nearest(ctx context.Context, a *app, query []float64, limit int) ([]facematch.Neighbor, error) {
	store := a.service.Store()
	if store.IsEmpty() {
		return nil, nil
	}
	if err := facematch.ValidateEmbedding(query, store.Dim()); err != nil {
		return nil, err
	}

	finder, ok := a.backend.(database.NearestFinder)
	if !ok {
		return facematch.Nearest(query, store, limit)
	}

	found, err := finder.FindNearestIdentities(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("database nearest search: %w", err)
	}
	out := make([]facematch.Neighbor, len(found))
	for i, n := range found {
		out[i] = facematch.Neighbor{ID: n.Identity.PersonID, Name: n.Identity.Name, Distance: n.Distance}
	}
	return out, nil
}
