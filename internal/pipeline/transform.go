package pipeline

import (
	"fmt"

	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// applyFrameDrag appends the layer 1 columns to a copy of the spatial grid.
func applyFrameDrag(p domain.Params, grid dataframe.DataFrame) (dataframe.DataFrame, error) {
	in, err := floatColumnSet(grid, domain.ColLat, domain.ColBouguer)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	lat, bouguer := in[0], in[1]

	n := grid.Nrow()
	rot, factor, vortex := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range n {
		fd := domain.ComputeFrameDrag(p, lat[i], bouguer[i])
		rot[i], factor[i], vortex[i] = fd.RotVelocity, fd.FrameDragFactor, fd.VortexStrength
	}
	return withColumns(grid, domain.Layer1Columns, rot, factor, vortex)
}

// applySpinPhase appends the layer 2 columns to a copy of the layer 1 table.
func applySpinPhase(p domain.Params, layer1 dataframe.DataFrame) (dataframe.DataFrame, error) {
	in, err := floatColumnSet(layer1, domain.ColLat, domain.ColMagnetic, domain.ColVortexStrength)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	lat, magnetic, vortex := in[0], in[1], in[2]

	n := layer1.Nrow()
	berry, align, coh, mod := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range n {
		sp := domain.ComputeSpinPhase(p, lat[i], magnetic[i], vortex[i])
		berry[i], align[i], coh[i], mod[i] = sp.BerryPhase, sp.SpinAlignment, sp.PhaseCoherence, sp.ModulatedVortex
	}
	return withColumns(layer1, domain.Layer2Columns, berry, align, coh, mod)
}

// applyCoupling appends the layer 3 columns to a copy of the layer 2 table.
func applyCoupling(p domain.Params, layer2 dataframe.DataFrame, meanSR float64) (dataframe.DataFrame, error) {
	in, err := floatColumnSet(layer2,
		domain.ColMagnetic, domain.ColBouguer, domain.ColPhaseCoherence, domain.ColSRIntensity)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	magnetic, bouguer, coh, sr := in[0], in[1], in[2], in[3]

	n := layer2.Nrow()
	base, cohc, srmod, mgc := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range n {
		c := domain.ComputeCoupling(p, magnetic[i], bouguer[i], coh[i], sr[i], meanSR)
		base[i], cohc[i], srmod[i], mgc[i] = c.BaseCoupling, c.CoherenceCoupling, c.SRModulation, c.MagnetoGravityCoupling
	}
	return withColumns(layer2, domain.Layer3Columns, base, cohc, srmod, mgc)
}

// mapLayer extracts a plottable field from a layer table.
func mapLayer(df dataframe.DataFrame, column, title, label, colormap string) (domain.MapLayer, error) {
	in, err := floatColumnSet(df, domain.ColLon, domain.ColLat, column)
	if err != nil {
		return domain.MapLayer{}, err
	}
	return domain.MapLayer{
		Title:    title,
		Label:    label,
		Colormap: colormap,
		Lon:      in[0],
		Lat:      in[1],
		Values:   in[2],
	}, nil
}

// integratedViews builds the four overview panels and the oblique surface
// from the final layer 3 table.
func integratedViews(final dataframe.DataFrame) ([]domain.MapLayer, domain.Surface, error) {
	specs := []struct {
		column, title, label, colormap string
	}{
		{domain.ColBouguer, "Original Bouguer Gravity Anomaly (mGal)", "Bouguer Anomaly (mGal)", domain.ColormapViridis},
		{domain.ColVortexStrength, "Layer 1: Spacetime Vortex Strength", "Vortex Strength", domain.ColormapPlasma},
		{domain.ColPhaseCoherence, "Layer 2: Spin-Phase Coherence", "Phase Coherence", domain.ColormapViridis},
		{domain.ColMagnetoGravityCoupling, "Layer 3: Magneto-Gravity Coupling", "Coupling Strength", domain.ColormapMagma},
	}

	panels := make([]domain.MapLayer, 0, len(specs))
	for _, s := range specs {
		layer, err := mapLayer(final, s.column, s.title, s.label, s.colormap)
		if err != nil {
			return nil, domain.Surface{}, err
		}
		panels = append(panels, layer)
	}

	mgc := panels[3].Values
	color := make([]float64, len(mgc))
	for i, v := range mgc {
		color[i] = v * 100
	}
	surface := domain.Surface{
		Title:      "3D Tesla-GRAVEM Model: Gravity Anomalies Modulated by Coupling",
		Lon:        panels[0].Lon,
		Lat:        panels[0].Lat,
		Elevation:  panels[0].Values,
		Color:      color,
		ColorLabel: "Magneto-Gravity Coupling (scaled)",
		ZLabel:     "Gravity Anomaly (mGal)",
	}
	return panels, surface, nil
}

// floatColumn returns the named column as float64 values. Missing or
// unparsable cells become NaN.
func floatColumn(df dataframe.DataFrame, name string) ([]float64, error) {
	if !hasColumn(df, name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, name)
	}
	return df.Col(name).Float(), nil
}

func floatColumnSet(df dataframe.DataFrame, names ...string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, name := range names {
		vals, err := floatColumn(df, name)
		if err != nil {
			return nil, err
		}
		out[i] = vals
	}
	return out, nil
}

// floatColumns maps every numeric column of df to its values.
func floatColumns(df dataframe.DataFrame) map[string][]float64 {
	out := make(map[string][]float64)
	for _, name := range df.Names() {
		s := df.Col(name)
		if s.Type() == series.Float || s.Type() == series.Int {
			out[name] = s.Float()
		}
	}
	return out
}

// withColumns returns df with each named column set to the matching values.
// Existing columns of the same name are replaced.
func withColumns(df dataframe.DataFrame, names []string, values ...[]float64) (dataframe.DataFrame, error) {
	out := df.Copy()
	for i, name := range names {
		out = out.Mutate(series.New(values[i], series.Float, name))
		if out.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("set column %s: %w", name, out.Err)
		}
	}
	return out, nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}
