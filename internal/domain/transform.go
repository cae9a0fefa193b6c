package domain

import "math"

// EquatorialRotationSpeed is Earth's surface rotation speed at the equator in m/s.
const EquatorialRotationSpeed = 465.0

// FrameDrag is the layer 1 output for one grid cell.
type FrameDrag struct {
	RotVelocity     float64
	FrameDragFactor float64
	VortexStrength  float64
}

// SpinPhase is the layer 2 output for one grid cell.
type SpinPhase struct {
	BerryPhase      float64
	SpinAlignment   float64
	PhaseCoherence  float64
	ModulatedVortex float64
}

// Coupling is the layer 3 output for one grid cell.
type Coupling struct {
	BaseCoupling           float64
	CoherenceCoupling      float64
	SRModulation           float64
	MagnetoGravityCoupling float64
}

// ComputeFrameDrag evaluates layer 1 for a cell at latitude lat (degrees)
// with the given Bouguer anomaly.
func ComputeFrameDrag(p Params, lat, bouguer float64) FrameDrag {
	rot := EquatorialRotationSpeed * math.Cos(radians(lat))
	factor := p.FrameDragCoefficient * (rot / EquatorialRotationSpeed)
	return FrameDrag{
		RotVelocity:     rot,
		FrameDragFactor: factor,
		VortexStrength:  factor * math.Abs(bouguer) / 100.0,
	}
}

// ComputeSpinPhase evaluates layer 2. vortex is the layer 1 vortex strength.
func ComputeSpinPhase(p Params, lat, magnetic, vortex float64) SpinPhase {
	berry := p.BerryPhaseFactor * math.Sin(radians(lat)) * magnetic / 50.0
	alignment := 0.5 + 0.5*math.Tanh(magnetic/100.0)
	coherence := alignment * (1 + 0.5*berry)
	return SpinPhase{
		BerryPhase:      berry,
		SpinAlignment:   alignment,
		PhaseCoherence:  coherence,
		ModulatedVortex: vortex * coherence,
	}
}

// ComputeCoupling evaluates layer 3. coherence is the layer 2 phase
// coherence and meanSR the time series mean amplitude, which must be non-zero.
func ComputeCoupling(p Params, magnetic, bouguer, coherence, srIntensity, meanSR float64) Coupling {
	base := p.CouplingStrength * math.Abs(magnetic*bouguer) / 5000.0
	coherent := base * coherence
	modulation := 1.0 + p.ResonanceFactor*(srIntensity/meanSR-1.0)
	return Coupling{
		BaseCoupling:           base,
		CoherenceCoupling:      coherent,
		SRModulation:           modulation,
		MagnetoGravityCoupling: coherent * modulation,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
