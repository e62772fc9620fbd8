package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// parseEmbedding parses a comma-separated list of numbers.
func parseEmbedding(s string) ([]float64, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "[]"), ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.New("embedding is empty")
	}
	return out, nil
}

// readEmbeddingFile reads a JSON array of numbers.
func readEmbeddingFile(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading embedding file: %w", err)
	}
	var out []float64
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing embedding file %s: %w", path, err)
	}
	return out, nil
}

// addCaptureFlags registers the mutually exclusive capture inputs.
func addCaptureFlags(cmd *cobra.Command) {
	cmd.Flags().String("image", "", "Path to an image to run through the face encoder")
	cmd.Flags().String("embedding", "", "Comma-separated embedding values")
	cmd.Flags().String("embedding-file", "", "Path to a JSON array with the embedding")
	cmd.MarkFlagsMutuallyExclusive("image", "embedding", "embedding-file")
	cmd.MarkFlagsOneRequired("image", "embedding", "embedding-file")
}

// captureInput is what the capture flags resolved to. Exactly one field is set.
type captureInput struct {
	image     []byte
	embedding []float64
}

func readCaptureInput(cmd *cobra.Command) (captureInput, error) {
	if path := mustGetString(cmd, "image"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return captureInput{}, fmt.Errorf("reading image: %w", err)
		}
		return captureInput{image: data}, nil
	}
	if path := mustGetString(cmd, "embedding-file"); path != "" {
		emb, err := readEmbeddingFile(path)
		return captureInput{embedding: emb}, err
	}
	emb, err := parseEmbedding(mustGetString(cmd, "embedding"))
	return captureInput{embedding: emb}, err
}
