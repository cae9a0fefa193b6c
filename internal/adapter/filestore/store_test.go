package filestore

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	root := t.TempDir()
	processed := filepath.Join(root, "processed")
	model := filepath.Join(root, "model")
	require.NoError(t, os.MkdirAll(processed, 0o755))
	return New(processed, model, slog.New(slog.NewTextHandler(io.Discard, nil))), processed, model
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoadGrid(t *testing.T) {
	s, processed, _ := newTestStore(t)
	writeFile(t, filepath.Join(processed, domain.SpatialGridFile),
		"lat_grid,lon_grid,bouguer_anomaly,magnetic_anomaly,sr_intensity\n"+
			"30.5,-100,-12.25,40,1.1\n"+
			"31.5,-99,8.5,-15,0.9\n")

	df, err := s.LoadGrid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []float64{-12.25, 8.5}, df.Col(domain.ColBouguer).Float())
}

func TestLoadGrid_Missing(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, err := s.LoadGrid(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "load spatial grid")
}

func TestLoadGrid_HeaderOnly(t *testing.T) {
	s, processed, _ := newTestStore(t)
	writeFile(t, filepath.Join(processed, domain.SpatialGridFile), "lat_grid,lon_grid\n")
	_, err := s.LoadGrid(context.Background())
	require.Error(t, err)
}

func TestLoadTimeSeries(t *testing.T) {
	s, processed, _ := newTestStore(t)
	writeFile(t, filepath.Join(processed, domain.TimeSeriesFile),
		"date,sr_amplitude,sr_frequency\n2023-01-01,1.2,7.8\n2023-01-02T00:00:00Z,0.8,7.9\n")

	df, err := s.LoadTimeSeries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{1.2, 0.8}, df.Col(domain.ColSRAmplitude).Float())
}

func TestLoadTimeSeries_BadDate(t *testing.T) {
	s, processed, _ := newTestStore(t)
	writeFile(t, filepath.Join(processed, domain.TimeSeriesFile),
		"date,sr_amplitude\n2023-01-01,1.2\nsoon,0.8\n")

	_, err := s.LoadTimeSeries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadTimeSeries_BlankDate(t *testing.T) {
	s, processed, _ := newTestStore(t)
	writeFile(t, filepath.Join(processed, domain.TimeSeriesFile),
		"date,sr_amplitude\n2024-01-01,1.0\n,2.0\nNA,4.0\n2024-01-03,3.0\n")

	df, err := s.LoadTimeSeries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, df.Nrow())
	assert.Equal(t, []float64{1, 2, 4, 3}, df.Col(domain.ColSRAmplitude).Float())
	assert.True(t, df.Col(domain.ColDate).Elem(1).IsNA())
}

func TestReadFrame_EmptyCellsAreNaN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.csv")
	writeFile(t, path, "lat_grid,sr_intensity\n30,1.5\n31,\n")

	df, err := ReadFrame(path)
	require.NoError(t, err)
	vals := df.Col(domain.ColSRIntensity).Float()
	require.Len(t, vals, 2)
	assert.InDelta(t, 1.5, vals[0], 1e-12)
	assert.True(t, math.IsNaN(vals[1]))
}

func TestLoadCorrelationMetrics(t *testing.T) {
	s, processed, _ := newTestStore(t)
	writeFile(t, filepath.Join(processed, domain.CorrelationMetricsFile), "pearson_r: 0.3\n")

	text, err := s.LoadCorrelationMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pearson_r: 0.3\n", text)
}

func TestLoad_CancelledContext(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.LoadGrid(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, err = s.LoadTimeSeries(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, err = s.LoadCorrelationMetrics(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteLayer_PreservesPrecision(t *testing.T) {
	s, _, model := newTestStore(t)
	df := dataframe.New(
		series.New([]int{30, 31}, series.Int, domain.ColLat),
		series.New([]float64{1.2345678901234e-7, math.NaN()}, series.Float, domain.ColMagnetoGravityCoupling),
	)

	path, err := s.WriteLayer(context.Background(), domain.Layer3File, df)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(model, domain.Layer3File), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "lat_grid,magneto_gravity_coupling\n30,1.2345678901234e-07\n31,\n", string(data))
}

func TestWriteFrame_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "frame.csv")
	want := []float64{0.1, 2.0 / 3.0, -465.0, math.NaN()}
	require.NoError(t, WriteFrame(path, dataframe.New(series.New(want, series.Float, "v"))))

	df, err := ReadFrame(path)
	require.NoError(t, err)
	got := df.Col("v").Float()
	require.Len(t, got, 4)
	assert.Equal(t, want[:3], got[:3])
	assert.True(t, math.IsNaN(got[3]))
}

func TestWriteSummary(t *testing.T) {
	s, _, model := newTestStore(t)
	path, err := s.WriteSummary(context.Background(), map[string]any{"grid_records": 4})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(model, domain.SummaryFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, 4, got["grid_records"])
}
