package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "processed"), cfg.ProcessedDir)
	assert.Equal(t, "visualizations", cfg.VisualizationDir)
	assert.Equal(t, "model", cfg.ModelDir)
	assert.Equal(t, filepath.Join("model", "gravem.prom"), cfg.MetricsFile)
	assert.Empty(t, cfg.ParamsFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.PlotsEnabled)
	assert.Equal(t, 300, cfg.PlotDPI)
	assert.False(t, cfg.WorkbookEnabled)
	assert.Equal(t, domain.DefaultParams(), cfg.Params)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("PROCESSED_DIR", "/srv/gravem/processed")
	t.Setenv("VISUALIZATION_DIR", "/srv/gravem/viz")
	t.Setenv("MODEL_DIR", "/srv/gravem/model")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("PLOTS_ENABLED", "false")
	t.Setenv("PLOT_DPI", "96")
	t.Setenv("WORKBOOK_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/gravem/processed", cfg.ProcessedDir)
	assert.Equal(t, "/srv/gravem/viz", cfg.VisualizationDir)
	assert.Equal(t, "/srv/gravem/model", cfg.ModelDir)
	assert.Equal(t, filepath.Join("/srv/gravem/model", "gravem.prom"), cfg.MetricsFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.PlotsEnabled)
	assert.Equal(t, 96, cfg.PlotDPI)
	assert.True(t, cfg.WorkbookEnabled)
}

func TestLoad_MetricsFileOverride(t *testing.T) {
	t.Setenv("METRICS_FILE", "/var/lib/node_exporter/gravem.prom")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/node_exporter/gravem.prom", cfg.MetricsFile)
}

func TestLoad_InvalidPlotsEnabled(t *testing.T) {
	t.Setenv("PLOTS_ENABLED", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLOTS_ENABLED")
}

func TestLoad_InvalidWorkbookEnabled(t *testing.T) {
	t.Setenv("WORKBOOK_ENABLED", "2")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKBOOK_ENABLED")
}

func TestLoad_InvalidPlotDPI(t *testing.T) {
	for _, v := range []string{"0", "-5", "abc", "5000"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("PLOT_DPI", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "PLOT_DPI")
		})
	}
}

func TestLoad_ParamsFromEnv(t *testing.T) {
	t.Setenv("GRAVEM_COUPLING_STRENGTH", "0.55")
	t.Setenv("GRAVEM_BERRY_PHASE_FACTOR", "0.1")

	cfg, err := Load()
	require.NoError(t, err)

	want := domain.DefaultParams()
	want.CouplingStrength = 0.55
	want.BerryPhaseFactor = 0.1
	assert.Equal(t, want, cfg.Params)
}

func TestLoad_ParamsFileThenEnv(t *testing.T) {
	path := writeParamsFile(t, "coupling_strength: 0.9\nresonance_factor: 0.5\n")
	t.Setenv("MODEL_PARAMS_FILE", path)
	t.Setenv("GRAVEM_RESONANCE_FACTOR", "0.3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ParamsFile)
	assert.InDelta(t, 0.9, cfg.Params.CouplingStrength, 1e-12)
	assert.InDelta(t, 0.3, cfg.Params.ResonanceFactor, 1e-12, "env wins over file")
	assert.InDelta(t, 0.15, cfg.Params.FrameDragCoefficient, 1e-12, "unset keys keep defaults")
}

func TestLoad_ParamsFileUnknownKey(t *testing.T) {
	t.Setenv("MODEL_PARAMS_FILE", writeParamsFile(t, "coupling_strenght: 0.9\n"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_PARAMS_FILE")
}

func TestLoad_ParamsFileMissing(t *testing.T) {
	t.Setenv("MODEL_PARAMS_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_PARAMS_FILE")
}

func TestLoad_InvalidParamEnv(t *testing.T) {
	t.Setenv("GRAVEM_FRAME_DRAG_COEFFICIENT", "lots")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRAVEM_")
}

func TestLoad_ParamsRejectedByValidation(t *testing.T) {
	t.Setenv("GRAVEM_EARTH_RADIUS", "0")
	_, err := Load()
	require.ErrorIs(t, err, domain.ErrInvalidParams)
}

func writeParamsFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
