package synth

import (
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	return Config{
		Seed:   7,
		LatMin: 30,
		LatMax: 32,
		LonMin: -100,
		LonMax: -97,
		Step:   0.5,
		Start:  time.Date(2024, time.February, 27, 0, 0, 0, 0, time.UTC),
		Days:   5,
	}
}

func TestGenerate_Shape(t *testing.T) {
	ds, err := Generate(smallConfig())
	require.NoError(t, err)

	assert.Equal(t, 5*7, ds.Grid.Nrow())
	assert.Equal(t, []string{domain.ColLat, domain.ColLon, domain.ColBouguer, domain.ColMagnetic, domain.ColSRIntensity}, ds.Grid.Names())
	assert.Equal(t, 5, ds.TimeSeries.Nrow())
	assert.Equal(t, []string{domain.ColDate, domain.ColSRAmplitude, domain.ColSRFrequency}, ds.TimeSeries.Names())

	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"},
		ds.TimeSeries.Col(domain.ColDate).Records())

	lat := ds.Grid.Col(domain.ColLat).Float()
	lon := ds.Grid.Col(domain.ColLon).Float()
	assert.Equal(t, 30.0, lat[0])
	assert.Equal(t, -100.0, lon[0])
	assert.Equal(t, 32.0, lat[len(lat)-1])
	assert.Equal(t, -97.0, lon[len(lon)-1])
}

func TestGenerate_Ranges(t *testing.T) {
	ds, err := Generate(smallConfig())
	require.NoError(t, err)

	for _, v := range ds.Grid.Col(domain.ColBouguer).Float() {
		assert.LessOrEqual(t, math.Abs(v), bouguerScale)
	}
	for _, v := range ds.Grid.Col(domain.ColMagnetic).Float() {
		assert.LessOrEqual(t, math.Abs(v), magneticScale)
	}
	for _, v := range ds.Grid.Col(domain.ColSRIntensity).Float() {
		assert.Greater(t, v, 0.0)
	}
	for _, v := range ds.TimeSeries.Col(domain.ColSRAmplitude).Float() {
		assert.Greater(t, v, 0.0)
	}
	for _, v := range ds.TimeSeries.Col(domain.ColSRFrequency).Float() {
		assert.InDelta(t, 7.83, v, 0.16)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(smallConfig())
	require.NoError(t, err)
	b, err := Generate(smallConfig())
	require.NoError(t, err)

	assert.Equal(t, a.Grid.Records(), b.Grid.Records())
	assert.Equal(t, a.TimeSeries.Records(), b.TimeSeries.Records())
	assert.Equal(t, MetricsText(a.Metrics), MetricsText(b.Metrics))

	cfg := smallConfig()
	cfg.Seed++
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Grid.Col(domain.ColBouguer).Float(), c.Grid.Col(domain.ColBouguer).Float())
}

func TestGenerate_InvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Step = 0
	cfg.Days = 0
	cfg.LatMin, cfg.LatMax = 10, 5

	_, err := Generate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step")
	assert.Contains(t, err.Error(), "days")
	assert.Contains(t, err.Error(), "lat range")
}

func TestMetricsText_RoundTripsThroughParser(t *testing.T) {
	ds, err := Generate(smallConfig())
	require.NoError(t, err)

	parsed := domain.ParseCorrelationMetrics(MetricsText(ds.Metrics))
	assert.Len(t, parsed, len(ds.Metrics))
	assert.Equal(t, "35", parsed["grid_records"])
	assert.Equal(t, "7.83", parsed["schumann_base_frequency_hz"])

	mean, err := domain.MeanAmplitude(ds.TimeSeries.Col(domain.ColSRAmplitude).Float())
	require.NoError(t, err)
	assert.InDelta(t, mean, ds.Metrics["mean_sr_amplitude"], 1e-12)
}

func TestSteps(t *testing.T) {
	assert.Equal(t, []float64{0, 0.1, 0.2, 0.3}, steps(0, 0.3, 0.1))
	assert.Equal(t, []float64{5}, steps(5, 5, 1))
	assert.Equal(t, []float64{-1, 0}, steps(-1, 0.5, 1))
}

func TestGenerate_DefaultConfig(t *testing.T) {
	ds, err := Generate(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 25*59, ds.Grid.Nrow())
	assert.Equal(t, 365, ds.TimeSeries.Nrow())
}
