// Command validate checks model outputs against their inputs. It recomputes
// every derived column from the processed grid and SR time series and compares
// the result with the layer CSVs in the model directory.
//
// Usage:
//
//	go run ./cmd/validate --processed-dir data/processed --model-dir model
package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/gravem-model/internal/adapter/filestore"
	"github.com/couchcryptid/gravem-model/internal/config"
	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/spf13/cobra"
)

const defaultTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported caps per-column mismatch messages.
const maxReported = 5

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var processedDir, modelDir string
	var tolerance float64

	cmd := &cobra.Command{
		Use:           "validate",
		Short:         "Recompute model layers from inputs and compare with saved outputs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("processed-dir") {
				processedDir = cfg.ProcessedDir
			}
			if !cmd.Flags().Changed("model-dir") {
				modelDir = cfg.ModelDir
			}
			in, err := loadInputs(processedDir, modelDir)
			if err != nil {
				return fmt.Errorf("FATAL: %w", err)
			}
			if !validate(cmd.OutOrStdout(), in, cfg.Params, tolerance) {
				return errors.New("validation failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&processedDir, "processed-dir", "", "directory with the model inputs (default $PROCESSED_DIR)")
	cmd.Flags().StringVar(&modelDir, "model-dir", "", "directory with the layer CSVs (default $MODEL_DIR)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", defaultTolerance, "relative tolerance for recomputed values")
	return cmd
}

// inputs holds every table the checks read.
type inputs struct {
	grid   dataframe.DataFrame
	ts     dataframe.DataFrame
	layers [3]dataframe.DataFrame
}

func loadInputs(processedDir, modelDir string) (inputs, error) {
	var in inputs
	var err error
	if in.grid, err = filestore.ReadFrame(filepath.Join(processedDir, domain.SpatialGridFile)); err != nil {
		return in, fmt.Errorf("load grid: %w", err)
	}
	if in.ts, err = filestore.ReadFrame(filepath.Join(processedDir, domain.TimeSeriesFile)); err != nil {
		return in, fmt.Errorf("load time series: %w", err)
	}
	for i, name := range []string{domain.Layer1File, domain.Layer2File, domain.Layer3File} {
		if in.layers[i], err = filestore.ReadFrame(filepath.Join(modelDir, name)); err != nil {
			return in, fmt.Errorf("load layer %d: %w", i+1, err)
		}
	}
	return in, nil
}

// expected holds the recomputed columns keyed by name.
type expected map[string][]float64

func validate(out io.Writer, in inputs, p domain.Params, tol float64) bool {
	fmt.Fprintln(out, "=== Tesla-GRAVEM Output Validation ===")
	fmt.Fprintln(out)

	want, meanSR, err := recompute(in, p)

	phases := []*phase{
		validateLayout(in),
		validateRowParity(in),
	}
	if err != nil {
		ph := &phase{name: "Recompute from inputs"}
		ph.errorf("%v", err)
		phases = append(phases, ph)
	} else {
		phases = append(phases,
			validateLayer("Layer 1: rotational frame drag", in.layers[0], want, domain.Layer1Columns, tol),
			validateLayer("Layer 2: spin-phase dynamics", in.layers[1], want, domain.Layer2Columns, tol),
			validateLayer("Layer 3: earthfield coupling", in.layers[2], want, domain.Layer3Columns, tol),
		)
	}

	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", ph.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d grid, %d time series, mean SR amplitude %.6g\n", in.grid.Nrow(), in.ts.Nrow(), meanSR)

	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return true
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return false
}

// recompute evaluates all three layers from the raw inputs, independent of
// the saved layer files.
func recompute(in inputs, p domain.Params) (expected, float64, error) {
	cols := make(map[string][]float64)
	for _, name := range []string{domain.ColLat, domain.ColBouguer, domain.ColMagnetic, domain.ColSRIntensity} {
		if !slices.Contains(in.grid.Names(), name) {
			return nil, 0, fmt.Errorf("grid: %w: %s", domain.ErrMissingColumn, name)
		}
		cols[name] = in.grid.Col(name).Float()
	}
	if !slices.Contains(in.ts.Names(), domain.ColSRAmplitude) {
		return nil, 0, fmt.Errorf("time series: %w: %s", domain.ErrMissingColumn, domain.ColSRAmplitude)
	}
	meanSR, err := domain.MeanAmplitude(in.ts.Col(domain.ColSRAmplitude).Float())
	if err != nil {
		return nil, 0, err
	}

	n := in.grid.Nrow()
	want := make(expected)
	for _, name := range slices.Concat(domain.Layer1Columns, domain.Layer2Columns, domain.Layer3Columns) {
		want[name] = make([]float64, n)
	}
	for i := range n {
		lat, bouguer, magnetic := cols[domain.ColLat][i], cols[domain.ColBouguer][i], cols[domain.ColMagnetic][i]
		fd := domain.ComputeFrameDrag(p, lat, bouguer)
		sp := domain.ComputeSpinPhase(p, lat, magnetic, fd.VortexStrength)
		c := domain.ComputeCoupling(p, magnetic, bouguer, sp.PhaseCoherence, cols[domain.ColSRIntensity][i], meanSR)

		want[domain.ColRotVelocity][i] = fd.RotVelocity
		want[domain.ColFrameDragFactor][i] = fd.FrameDragFactor
		want[domain.ColVortexStrength][i] = fd.VortexStrength
		want[domain.ColBerryPhase][i] = sp.BerryPhase
		want[domain.ColSpinAlignment][i] = sp.SpinAlignment
		want[domain.ColPhaseCoherence][i] = sp.PhaseCoherence
		want[domain.ColModulatedVortex][i] = sp.ModulatedVortex
		want[domain.ColBaseCoupling][i] = c.BaseCoupling
		want[domain.ColCoherenceCoupling][i] = c.CoherenceCoupling
		want[domain.ColSRModulation][i] = c.SRModulation
		want[domain.ColMagnetoGravityCoupling][i] = c.MagnetoGravityCoupling
	}
	return want, meanSR, nil
}

// validateLayout checks each layer keeps the grid columns and appends its own
// columns in order.
func validateLayout(in inputs) *phase {
	ph := &phase{name: "Column layout"}
	cols := in.grid.Names()
	for i, added := range [][]string{domain.Layer1Columns, domain.Layer2Columns, domain.Layer3Columns} {
		cols = slices.Concat(cols, added)
		if got := in.layers[i].Names(); !slices.Equal(got, cols) {
			ph.errorf("layer %d columns = %v, want %v", i+1, got, cols)
		}
	}
	return ph
}

// validateRowParity checks every layer has one row per grid cell and carries
// the grid values through unchanged.
func validateRowParity(in inputs) *phase {
	ph := &phase{name: "Row parity with spatial grid"}
	n := in.grid.Nrow()
	for i, layer := range in.layers {
		if layer.Nrow() != n {
			ph.errorf("layer %d has %d rows, grid has %d", i+1, layer.Nrow(), n)
			continue
		}
		for _, name := range in.grid.Names() {
			if !slices.Contains(layer.Names(), name) {
				continue
			}
			if !sameColumn(layer.Col(name), in.grid.Col(name)) {
				ph.errorf("layer %d column %s differs from grid", i+1, name)
			}
		}
	}
	return ph
}

// sameColumn compares numerically when both sides are numeric, so "30" and
// "30.0" in the source CSV match.
func sameColumn(a, b series.Series) bool {
	if !numeric(a) || !numeric(b) {
		return slices.Equal(a.Records(), b.Records())
	}
	x, y := a.Float(), b.Float()
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !approxEqual(x[i], y[i], 0) {
			return false
		}
	}
	return true
}

func numeric(s series.Series) bool {
	return s.Type() == series.Float || s.Type() == series.Int
}

func validateLayer(name string, layer dataframe.DataFrame, want expected, cols []string, tol float64) *phase {
	ph := &phase{name: name}
	for _, col := range cols {
		if !slices.Contains(layer.Names(), col) {
			ph.errorf("missing column %s", col)
			continue
		}
		got := layer.Col(col).Float()
		exp := want[col]
		if len(got) != len(exp) {
			ph.errorf("%s: %d values, want %d", col, len(got), len(exp))
			continue
		}
		mismatches := 0
		for i := range got {
			if approxEqual(got[i], exp[i], tol) {
				continue
			}
			mismatches++
			if mismatches <= maxReported {
				ph.errorf("%s row %d: got %.10g, want %.10g", col, i+1, got[i], exp[i])
			}
		}
		if mismatches > maxReported {
			ph.errorf("%s: %d more mismatches", col, mismatches-maxReported)
		}
	}
	return ph
}

// approxEqual compares with a relative tolerance, treating NaN as equal to NaN.
func approxEqual(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= tol*math.Max(1, math.Abs(b))
}
