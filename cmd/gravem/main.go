// Command gravem runs the three-layer model over the processed grid and SR
// time series, writing layer tables, plots, a run summary and a metrics
// textfile.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/gravem-model/internal/adapter/filestore"
	"github.com/couchcryptid/gravem-model/internal/adapter/render"
	"github.com/couchcryptid/gravem-model/internal/adapter/xlsx"
	"github.com/couchcryptid/gravem-model/internal/config"
	"github.com/couchcryptid/gravem-model/internal/observability"
	"github.com/couchcryptid/gravem-model/internal/pipeline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gravem",
		Short:         "Three-layer magneto-gravity coupling model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newParamsCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Load processed data and run every model layer",
		Long: `Reads spatial_grid_data.csv, simulated_time_series.csv and
correlation_metrics.txt from PROCESSED_DIR, runs frame drag, spin-phase and
earthfield coupling, and writes results to MODEL_DIR and VISUALIZATION_DIR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}
			logger := observability.NewLogger(cfg)
			metrics := observability.NewMetrics()
			return run(cmd.Context(), cfg, logger, metrics)
		},
	}
}

func newParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the effective model parameters as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(cfg.Params)
		},
	}
}

// run executes the model and always exports the metrics textfile, so a failed
// run is visible to whatever scrapes it.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	model := newModel(cfg, logger, metrics)

	_, runErr := model.Run(ctx)
	if runErr != nil {
		logger.Error("model run failed", "error", runErr)
	}

	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Error("metrics export failed", "path", cfg.MetricsFile, "error", err)
		if runErr == nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("model run: %w", runErr)
	}
	logger.Info("outputs written", "model_dir", cfg.ModelDir, "visualization_dir", cfg.VisualizationDir)
	return nil
}

func newModel(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *pipeline.Model {
	store := filestore.New(cfg.ProcessedDir, cfg.ModelDir, logger)

	var viz pipeline.Visualizer
	if cfg.PlotsEnabled {
		viz = render.New(cfg.VisualizationDir, cfg.PlotDPI, logger)
		logger.Info("plots enabled", "dir", cfg.VisualizationDir, "dpi", cfg.PlotDPI)
	} else {
		logger.Info("plots disabled")
	}

	model := pipeline.New(store, store, viz, cfg.Params, logger, metrics)
	if cfg.WorkbookEnabled {
		model.WithWorkbook(xlsx.New(cfg.ModelDir, logger))
		logger.Info("workbook export enabled")
	}
	return model
}
