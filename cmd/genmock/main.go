// Command genmock writes synthetic model inputs: the spatial anomaly grid, the
// SR time series and the correlation metrics report. Output is deterministic
// for a given seed and start date.
//
// Usage:
//
//	go run ./cmd/genmock --out data/processed --seed 42 --step 0.5
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/couchcryptid/gravem-model/internal/adapter/filestore"
	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/couchcryptid/gravem-model/internal/report"
	"github.com/couchcryptid/gravem-model/internal/synth"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := synth.DefaultConfig()
	var outDir, start string

	cmd := &cobra.Command{
		Use:           "genmock",
		Short:         "Generate synthetic grid, time series and correlation metrics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := domain.ParseDate(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			cfg.Start = t
			return run(cmd.OutOrStdout(), outDir, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&outDir, "out", sharedcfg.EnvOrDefault("PROCESSED_DIR", filepath.Join("data", "processed")), "output directory")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "noise seed")
	f.Float64Var(&cfg.LatMin, "lat-min", cfg.LatMin, "southern edge of the grid (degrees)")
	f.Float64Var(&cfg.LatMax, "lat-max", cfg.LatMax, "northern edge of the grid (degrees)")
	f.Float64Var(&cfg.LonMin, "lon-min", cfg.LonMin, "western edge of the grid (degrees)")
	f.Float64Var(&cfg.LonMax, "lon-max", cfg.LonMax, "eastern edge of the grid (degrees)")
	f.Float64Var(&cfg.Step, "step", cfg.Step, "grid spacing (degrees)")
	f.IntVar(&cfg.Days, "days", cfg.Days, "number of daily SR samples")
	f.StringVar(&start, "start", cfg.Start.Format("2006-01-02"), "first sample date (YYYY-MM-DD)")
	return cmd
}

func run(out io.Writer, dir string, cfg synth.Config) error {
	ds, err := synth.Generate(cfg)
	if err != nil {
		return err
	}

	gridPath := filepath.Join(dir, domain.SpatialGridFile)
	if err := filestore.WriteFrame(gridPath, ds.Grid); err != nil {
		return fmt.Errorf("writing grid: %w", err)
	}
	fmt.Fprintf(out, "wrote %s (%d records)\n", gridPath, ds.Grid.Nrow())

	tsPath := filepath.Join(dir, domain.TimeSeriesFile)
	if err := filestore.WriteFrame(tsPath, ds.TimeSeries); err != nil {
		return fmt.Errorf("writing time series: %w", err)
	}
	fmt.Fprintf(out, "wrote %s (%d records)\n", tsPath, ds.TimeSeries.Nrow())

	metricsPath := filepath.Join(dir, domain.CorrelationMetricsFile)
	if err := os.WriteFile(metricsPath, []byte(synth.MetricsText(ds.Metrics)), 0o600); err != nil {
		return fmt.Errorf("writing correlation metrics: %w", err)
	}
	fmt.Fprintf(out, "wrote %s\n", metricsPath)

	printStats(out, ds)
	return nil
}

func printStats(out io.Writer, ds synth.Dataset) {
	cols := map[string][]float64{
		domain.ColBouguer:     ds.Grid.Col(domain.ColBouguer).Float(),
		domain.ColMagnetic:    ds.Grid.Col(domain.ColMagnetic).Float(),
		domain.ColSRIntensity: ds.Grid.Col(domain.ColSRIntensity).Float(),
		domain.ColSRAmplitude: ds.TimeSeries.Col(domain.ColSRAmplitude).Float(),
		domain.ColSRFrequency: ds.TimeSeries.Col(domain.ColSRFrequency).Float(),
	}
	names := []string{domain.ColBouguer, domain.ColMagnetic, domain.ColSRIntensity, domain.ColSRAmplitude, domain.ColSRFrequency}

	fmt.Fprintln(out, "\n=== Generated field stats ===")
	for _, s := range report.Describe(cols, names) {
		fmt.Fprintf(out, "  %-18s n=%-5d min=%-10.4f max=%-10.4f mean=%-10.4f sd=%.4f\n",
			s.Name, s.Count, s.Min, s.Max, s.Mean, s.StdDev)
	}

	pairs := []report.Pair{
		{X: domain.ColBouguer, Y: domain.ColMagnetic},
		{X: domain.ColBouguer, Y: domain.ColSRIntensity},
		{X: domain.ColMagnetic, Y: domain.ColSRIntensity},
	}
	fmt.Fprintln(out, "\nPearson r:")
	for _, c := range report.Correlate(cols, pairs) {
		fmt.Fprintf(out, "  %s ~ %s: %.4f\n", c.X, c.Y, c.R)
	}
}
