package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollDirCmd = &cobra.Command{
	Use:   "enroll-dir <directory>",
	Short: "Enroll every image of a directory",
	Long: `Enroll one person per image file. File names must be <id>_<name>.<ext>,
underscores in the name become spaces, e.g. 42_Ana_Novakova.jpg.
The first detected face of each image is enrolled.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrollDir,
}

func init() {
	rootCmd.AddCommand(enrollDirCmd)
	enrollDirCmd.Flags().Int("concurrency", constants.DefaultConcurrency, "Number of parallel encoder requests")
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".webp": true,
}

// enrollment is one image file and the identity parsed from its name.
type enrollment struct {
	path string
	id   string
	name string
}

// parseEnrollmentName splits "<id>_<name>.<ext>" into id and name.
func parseEnrollmentName(path string) (enrollment, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id, rest, ok := strings.Cut(base, "_")
	name := strings.TrimSpace(strings.ReplaceAll(rest, "_", " "))
	if !ok || id == "" || name == "" {
		return enrollment{}, fmt.Errorf("%s: expected <id>_<name>.<ext>", filepath.Base(path))
	}
	return enrollment{path: path, id: id, name: name}, nil
}

// collectEnrollments lists the image files of dir in name order.
func collectEnrollments(dir string) ([]enrollment, []error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading directory: %w", err)
	}

	var items []enrollment
	var skipped []error
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		item, err := parseEnrollmentName(filepath.Join(dir, e.Name()))
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].path < items[j].path })
	return items, skipped, nil
}

func runEnrollDir(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	concurrency := max(1, mustGetInt(cmd, "concurrency"))

	items, skipped, err := collectEnrollments(args[0])
	if err != nil {
		return err
	}
	for _, err := range skipped {
		fmt.Printf("Skipping %v\n", err)
	}
	if len(items) == 0 {
		fmt.Println("No images to enroll")
		return nil
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Images to enroll: %d\n\n", len(items))

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var successCount int
	var failures []error
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(e enrollment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer bar.Add(1)

			err := func() error {
				data, err := os.ReadFile(e.path)
				if err != nil {
					return err
				}
				_, err = a.service.RegisterFromImage(ctx, e.id, e.name, data)
				return err
			}()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Errorf("%s: %w", filepath.Base(e.path), err))
				return
			}
			successCount++
		}(item)
	}

	wg.Wait()
	fmt.Println()

	for _, err := range failures {
		fmt.Printf("Failed %v\n", err)
	}
	fmt.Printf("\nCompleted: %d enrolled, %d failed, %d skipped\n", successCount, len(failures), len(skipped))
	fmt.Printf("Enrolled identities: %d\n", a.service.Store().Len())

	if len(failures) > 0 && successCount == 0 {
		return errors.Join(failures...)
	}
	return nil
}
