// Package report condenses a finished model run into summary statistics.
package report

import (
	"math"
	"time"

	"github.com/couchcryptid/gravem-model/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary is written alongside the layer tables after a run.
type Summary struct {
	GeneratedAt       time.Time         `yaml:"generated_at"`
	Params            domain.Params     `yaml:"params"`
	GridRecords       int               `yaml:"grid_records"`
	TimeSeriesRecords int               `yaml:"time_series_records"`
	MeanSRAmplitude   float64           `yaml:"mean_sr_amplitude"`
	Columns           []ColumnStats     `yaml:"columns"`
	Correlations      []Correlation     `yaml:"correlations"`
	InputMetrics      map[string]string `yaml:"input_metrics,omitempty"`
}

// ColumnStats describes one derived column. NaN cells are excluded.
type ColumnStats struct {
	Name   string  `yaml:"name"`
	Count  int     `yaml:"count"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`
}

// Correlation is the Pearson coefficient between two columns over rows
// where both are finite. R is NaN when either side has no variance.
type Correlation struct {
	X string  `yaml:"x"`
	Y string  `yaml:"y"`
	R float64 `yaml:"r"`
}

// Pair names two columns to correlate.
type Pair struct{ X, Y string }

// DefaultPairs relate each layer's headline output back to the raw anomalies.
var DefaultPairs = []Pair{
	{domain.ColBouguer, domain.ColVortexStrength},
	{domain.ColMagnetic, domain.ColPhaseCoherence},
	{domain.ColBouguer, domain.ColMagnetoGravityCoupling},
	{domain.ColMagnetic, domain.ColMagnetoGravityCoupling},
}

// Describe computes ColumnStats for each named column present in cols,
// in the order given. Absent names are skipped.
func Describe(cols map[string][]float64, names []string) []ColumnStats {
	out := make([]ColumnStats, 0, len(names))
	for _, name := range names {
		vals, ok := cols[name]
		if !ok {
			continue
		}
		out = append(out, describe(name, finite(vals)))
	}
	return out
}

func describe(name string, vals []float64) ColumnStats {
	cs := ColumnStats{Name: name, Count: len(vals)}
	if len(vals) == 0 {
		cs.Min, cs.Max, cs.Mean, cs.StdDev = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return cs
	}
	cs.Min = floats.Min(vals)
	cs.Max = floats.Max(vals)
	cs.Mean, cs.StdDev = stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		cs.StdDev = 0
	}
	return cs
}

// Correlate computes Pearson r for each pair whose columns are both present.
func Correlate(cols map[string][]float64, pairs []Pair) []Correlation {
	out := make([]Correlation, 0, len(pairs))
	for _, p := range pairs {
		x, okX := cols[p.X]
		y, okY := cols[p.Y]
		if !okX || !okY {
			continue
		}
		xs, ys := finitePairs(x, y)
		r := math.NaN()
		if len(xs) >= 2 {
			r = stat.Correlation(xs, ys, nil)
		}
		out = append(out, Correlation{X: p.X, Y: p.Y, R: r})
	}
	return out
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func finitePairs(x, y []float64) ([]float64, []float64) {
	n := min(len(x), len(y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := range n {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
