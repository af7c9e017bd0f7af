package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SeedResult reports a seed run.
type SeedResult struct {
	File     string `json:"file"`
	Read     int    `json:"read"`
	Inserted int64  `json:"inserted"`
	Total    int    `json:"total"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Add videos to the catalogue",
		Long: `Add videos to the catalogue from a YAML or JSON list of URLs.

URLs already in the catalogue are skipped, so seeding is idempotent.

Example:
  memento seed videos.yaml
  memento seed --format json videos.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, rootOpts, args[0])
		},
	}
}

func runSeed(cmd *cobra.Command, opts *RootOptions, path string) error {
	out := newFormatter(cmd, opts)

	uris, err := readURIs(path)
	if err != nil {
		_ = out.Error(CodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read seed file", err)
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	inserted, err := st.Queries().SeedVideos(ctx, uris)
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to seed videos", err)
	}
	total, err := st.Queries().CountVideos(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count videos", err)
	}

	res := SeedResult{File: path, Read: len(uris), Inserted: inserted, Total: total}
	out.VerboseLog("seeded %d of %d urls from %s", inserted, len(uris), path)
	return out.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "Inserted %d new videos (%d read, %d in catalogue)\n", res.Inserted, res.Read, res.Total)
	})
}

// readURIs parses a YAML (or JSON) list of non-empty URLs.
func readURIs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var uris []string
	if err := yaml.Unmarshal(data, &uris); err != nil {
		return nil, fmt.Errorf("%s: expected a list of URLs: %w", path, err)
	}
	for i, u := range uris {
		uris[i] = strings.TrimSpace(u)
		if uris[i] == "" {
			return nil, fmt.Errorf("%s: entry %d is empty", path, i)
		}
	}
	return uris, nil
}
