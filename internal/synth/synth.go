// Package synth generates reproducible synthetic model inputs: a gravity and
// magnetic anomaly grid, an SR time series and the correlation report that
// normally accompanies processed survey data.
package synth

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/stat"
)

// Config controls the extent and resolution of the generated data.
type Config struct {
	Seed   int64
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
	Step   float64 // grid spacing in degrees
	Start  time.Time
	Days   int
}

// DefaultConfig covers the contiguous US at one-degree spacing with a year
// of daily SR samples.
func DefaultConfig() Config {
	return Config{
		Seed:   42,
		LatMin: 25,
		LatMax: 49,
		LonMin: -125,
		LonMax: -67,
		Step:   1,
		Start:  time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		Days:   365,
	}
}

// Validate checks the grid extent and sample counts.
func (c Config) Validate() error {
	var errs []error
	if !(c.Step > 0) {
		errs = append(errs, fmt.Errorf("step must be > 0, got %v", c.Step))
	}
	if c.LatMin > c.LatMax {
		errs = append(errs, fmt.Errorf("lat range [%v, %v] is inverted", c.LatMin, c.LatMax))
	}
	if c.LonMin > c.LonMax {
		errs = append(errs, fmt.Errorf("lon range [%v, %v] is inverted", c.LonMin, c.LonMax))
	}
	if c.LatMin < -90 || c.LatMax > 90 {
		errs = append(errs, fmt.Errorf("lat range [%v, %v] outside [-90, 90]", c.LatMin, c.LatMax))
	}
	if c.Days < 1 {
		errs = append(errs, fmt.Errorf("days must be >= 1, got %d", c.Days))
	}
	return errors.Join(errs...)
}

// Dataset is one generated set of model inputs.
type Dataset struct {
	Grid       dataframe.DataFrame
	TimeSeries dataframe.DataFrame
	Metrics    map[string]float64
}

// Noise amplitudes in the units of each column.
const (
	bouguerScale  = 60.0  // mGal
	magneticScale = 150.0 // nT
	srSpread      = 0.3
	srBase        = 1.0
)

// Generate builds a Dataset. The same Config always yields the same data.
func Generate(cfg Config) (Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return Dataset{}, fmt.Errorf("synth config: %w", err)
	}

	grid := generateGrid(cfg)
	ts := generateTimeSeries(cfg)

	bouguer := grid.Col(domain.ColBouguer).Float()
	magnetic := grid.Col(domain.ColMagnetic).Float()
	sr := grid.Col(domain.ColSRIntensity).Float()
	amp := ts.Col(domain.ColSRAmplitude).Float()
	freq := ts.Col(domain.ColSRFrequency).Float()

	metrics := map[string]float64{
		"grid_records":               float64(grid.Nrow()),
		"time_series_records":        float64(ts.Nrow()),
		"bouguer_magnetic_pearson_r": stat.Correlation(bouguer, magnetic, nil),
		"bouguer_sr_pearson_r":       stat.Correlation(bouguer, sr, nil),
		"magnetic_sr_pearson_r":      stat.Correlation(magnetic, sr, nil),
		"sr_amplitude_frequency_r":   stat.Correlation(amp, freq, nil),
		"mean_sr_amplitude":          stat.Mean(amp, nil),
		"mean_sr_frequency":          stat.Mean(freq, nil),
		"schumann_base_frequency_hz": domain.DefaultParams().SchumannBaseFrequency,
		"mean_abs_bouguer_anomaly":   meanAbs(bouguer),
		"mean_abs_magnetic_anomaly":  meanAbs(magnetic),
	}

	return Dataset{Grid: grid, TimeSeries: ts, Metrics: metrics}, nil
}

// MetricsText renders metrics as sorted "key: value" lines, the format the
// model loader parses.
func MetricsText(metrics map[string]float64) string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("# correlation metrics\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %.6g\n", k, metrics[k])
	}
	return b.String()
}

func generateGrid(cfg Config) dataframe.DataFrame {
	bNoise := opensimplex.New(cfg.Seed)
	mNoise := opensimplex.New(cfg.Seed + 1)
	sNoise := opensimplex.New(cfg.Seed + 2)

	lats := steps(cfg.LatMin, cfg.LatMax, cfg.Step)
	lons := steps(cfg.LonMin, cfg.LonMax, cfg.Step)
	n := len(lats) * len(lons)

	lat := make([]float64, 0, n)
	lon := make([]float64, 0, n)
	bouguer := make([]float64, 0, n)
	magnetic := make([]float64, 0, n)
	sr := make([]float64, 0, n)

	for _, y := range lats {
		for _, x := range lons {
			lat = append(lat, y)
			lon = append(lon, x)
			bouguer = append(bouguer, bouguerScale*octaveNoise(bNoise, x, y, 4, 0.08, 0.5))
			magnetic = append(magnetic, magneticScale*octaveNoise(mNoise, x, y, 3, 0.06, 0.5))
			sr = append(sr, srBase+srSpread*octaveNoise(sNoise, x, y, 3, 0.05, 0.5))
		}
	}

	return dataframe.New(
		series.New(lat, series.Float, domain.ColLat),
		series.New(lon, series.Float, domain.ColLon),
		series.New(bouguer, series.Float, domain.ColBouguer),
		series.New(magnetic, series.Float, domain.ColMagnetic),
		series.New(sr, series.Float, domain.ColSRIntensity),
	)
}

// generateTimeSeries produces daily samples with an annual cycle in amplitude
// and a small drift around the Schumann base frequency.
func generateTimeSeries(cfg Config) dataframe.DataFrame {
	noise := opensimplex.New(cfg.Seed + 3)
	base := domain.DefaultParams().SchumannBaseFrequency

	dates := make([]string, cfg.Days)
	amp := make([]float64, cfg.Days)
	freq := make([]float64, cfg.Days)
	for d := range cfg.Days {
		t := float64(d)
		dates[d] = cfg.Start.AddDate(0, 0, d).Format("2006-01-02")
		seasonal := 0.2 * math.Sin(2*math.Pi*t/365.25)
		amp[d] = srBase + seasonal + 0.1*octaveNoise(noise, t, 0, 3, 0.1, 0.5)
		freq[d] = base + 0.15*octaveNoise(noise, t, 100, 2, 0.05, 0.5)
	}

	return dataframe.New(
		series.New(dates, series.String, domain.ColDate),
		series.New(amp, series.Float, domain.ColSRAmplitude),
		series.New(freq, series.Float, domain.ColSRFrequency),
	)
}

// octaveNoise layers several frequencies of simplex noise. The result stays
// within [-1, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for range octaves {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// steps returns lo, lo+step, ... up to hi inclusive, tolerating float drift.
func steps(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range n {
		out[i] = math.Round((lo+float64(i)*step)*1e9) / 1e9
	}
	return out
}

func meanAbs(vals []float64) float64 {
	abs := make([]float64, len(vals))
	for i, v := range vals {
		abs[i] = math.Abs(v)
	}
	return stat.Mean(abs, nil)
}
