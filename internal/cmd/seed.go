package cmd

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dendrascience/drsmap/drs"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type seedOptions struct {
	models    []string
	variables []string
	versions  int
}

// NewSeedCmd creates and returns the seed subcommand for the drsmap CLI.
// It generates a synthetic CMIP5 fedcheck-style archive.
func NewSeedCmd(global *globalOptions) *cobra.Command {
	var (
		outputPath string
		opts       seedOptions
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a synthetic CMIP5 archive for trials",
		Long: `Generate a synthetic CMIP5 archive in the CEDA fedcheck layout.

Creates
  <output>/cmip5/output1/SEED/<model>/historical/mon/atmos/Amon/r1i1p1/files/<variable>_<date>/<file>.nc
for every model and variable, with the requested number of randomly dated
versions each. Every file contains a single UUID line.

The generated tree can be copied with
  drsmap copy --source <output> --dest DIR --root-depth <depth printed on completion>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := global.setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			count, err := seedArchive(outputPath, opts, log)
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(outputPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d files in %s\n", count, outputPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Copy with --root-depth %d\n", drs.Depth(abs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to output directory (required)")
	cmd.Flags().StringSliceVar(&opts.models, "models", []string{"HadGEM2-ES", "CanESM2"}, "Models to generate")
	cmd.Flags().StringSliceVar(&opts.variables, "variables", []string{"tas", "pr", "psl"}, "Variables to generate")
	cmd.Flags().IntVarP(&opts.versions, "versions", "n", 3, "Number of versions per variable")

	cmd.MarkFlagRequired("output")

	return cmd
}

// seedArchive writes the synthetic archive below root and returns the number of
// files created.
func seedArchive(root string, opts seedOptions, log *zap.Logger) (int, error) {
	if opts.versions < 1 || opts.versions > seedSpanDays {
		return 0, fmt.Errorf("versions must be between 1 and %d, got %d", seedSpanDays, opts.versions)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	created := 0
	for _, model := range opts.models {
		for _, variable := range opts.variables {
			dates, err := randomDates(opts.versions)
			if err != nil {
				return created, err
			}
			for _, date := range dates {
				f := drs.Facets{
					Project:    drs.DefaultSourceTag,
					Product:    "output1",
					Institute:  "SEED",
					Model:      model,
					Experiment: "historical",
					Frequency:  "mon",
					Realm:      "atmos",
					Table:      "Amon",
					Ensemble:   "r1i1p1",
					Folder:     drs.DefaultFolder,
					Variable:   variable,
					Date:       date,
				}
				f.Filename = fmt.Sprintf("%s_%s_%s_%s_%s_185001-200512.nc",
					f.Variable, f.Table, f.Model, f.Experiment, f.Ensemble)

				dir := filepath.Join(root, f.Project, f.Product, f.Institute, f.Model, f.Experiment,
					f.Frequency, f.Realm, f.Table, f.Ensemble, f.Folder, f.VarDate())
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return created, err
				}
				path := filepath.Join(dir, f.Filename)
				if err := os.WriteFile(path, []byte(uuid.New().String()+"\n"), 0o644); err != nil {
					return created, err
				}
				log.Debug("seeded", zap.String("path", path))
				created++
			}
		}
	}
	return created, nil
}

// seedSpanDays is the number of distinct dates randomDates can draw from.
const seedSpanDays = 10 * 365

// randomDates returns n distinct YYYYMMDD dates between 2010 and 2020, sorted.
func randomDates(n int) ([]string, error) {
	if n > seedSpanDays {
		return nil, fmt.Errorf("at most %d versions per variable, got %d", seedSpanDays, n)
	}
	base := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	span := big.NewInt(seedSpanDays)
	seen := make(map[string]bool)
	var dates []string
	for len(dates) < n {
		offset, err := rand.Int(rand.Reader, span)
		if err != nil {
			return nil, err
		}
		d := base.AddDate(0, 0, int(offset.Int64())).Format(drs.DateLayout)
		if seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}
