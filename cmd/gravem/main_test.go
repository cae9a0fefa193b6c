package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/gravem-model/internal/adapter/filestore"
	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/couchcryptid/gravem-model/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeInputs(t *testing.T, dir string) {
	t.Helper()
	ds, err := synth.Generate(synth.Config{
		Seed: 3, LatMin: 30, LatMax: 33, LonMin: -100, LonMax: -96, Step: 1,
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), Days: 10,
	})
	require.NoError(t, err)
	require.NoError(t, filestore.WriteFrame(filepath.Join(dir, domain.SpatialGridFile), ds.Grid))
	require.NoError(t, filestore.WriteFrame(filepath.Join(dir, domain.TimeSeriesFile), ds.TimeSeries))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.CorrelationMetricsFile), []byte(synth.MetricsText(ds.Metrics)), 0o600))
}

func setEnv(t *testing.T, root string) {
	t.Helper()
	t.Setenv("PROCESSED_DIR", filepath.Join(root, "processed"))
	t.Setenv("MODEL_DIR", filepath.Join(root, "model"))
	t.Setenv("VISUALIZATION_DIR", filepath.Join(root, "viz"))
	t.Setenv("LOG_LEVEL", "error")
}

func TestRunCommand(t *testing.T) {
	root := t.TempDir()
	setEnv(t, root)
	t.Setenv("PLOTS_ENABLED", "false")
	t.Setenv("WORKBOOK_ENABLED", "true")
	writeInputs(t, filepath.Join(root, "processed"))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"run"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	for _, name := range []string{domain.Layer1File, domain.Layer2File, domain.Layer3File, domain.SummaryFile, domain.WorkbookFile, "gravem.prom"} {
		assert.FileExists(t, filepath.Join(root, "model", name))
	}
	assert.NoDirExists(t, filepath.Join(root, "viz"), "plots disabled")

	prom, err := os.ReadFile(filepath.Join(root, "model", "gravem.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "gravem_last_run_success 1")
	assert.Contains(t, string(prom), "gravem_grid_records 20")

	layer3, err := filestore.ReadFrame(filepath.Join(root, "model", domain.Layer3File))
	require.NoError(t, err)
	assert.Equal(t, 20, layer3.Nrow())
}

func TestRunCommand_MissingInputs(t *testing.T) {
	root := t.TempDir()
	setEnv(t, root)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"run"})
	require.Error(t, cmd.ExecuteContext(context.Background()))

	prom, err := os.ReadFile(filepath.Join(root, "model", "gravem.prom"))
	require.NoError(t, err, "metrics are exported even when the run fails")
	assert.Contains(t, string(prom), "gravem_last_run_success 0")
	assert.Contains(t, string(prom), `gravem_stage_runs_total{outcome="error",stage="load"} 1`)
}

func TestParamsCommand(t *testing.T) {
	t.Setenv("GRAVEM_COUPLING_STRENGTH", "0.75")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"params"})
	require.NoError(t, cmd.Execute())

	var got domain.Params
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	want := domain.DefaultParams()
	want.CouplingStrength = 0.75
	assert.Equal(t, want, got)
}
