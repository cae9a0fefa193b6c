package domain

import (
	"fmt"
	"math"
)

// Params holds the model constants. Field tags let the same struct be
// overlaid from a YAML file and from GRAVEM_* environment variables.
type Params struct {
	EarthRadius                float64 `yaml:"earth_radius" env:"GRAVEM_EARTH_RADIUS"`                                   // km
	EarthMass                  float64 `yaml:"earth_mass" env:"GRAVEM_EARTH_MASS"`                                       // kg
	EarthMagneticFieldStrength float64 `yaml:"earth_magnetic_field_strength" env:"GRAVEM_EARTH_MAGNETIC_FIELD_STRENGTH"` // µT
	SchumannBaseFrequency      float64 `yaml:"schumann_base_frequency" env:"GRAVEM_SCHUMANN_BASE_FREQUENCY"`             // Hz, first mode
	GravitationalConstant      float64 `yaml:"gravitational_constant" env:"GRAVEM_GRAVITATIONAL_CONSTANT"`               // m^3 kg^-1 s^-2
	CouplingStrength           float64 `yaml:"coupling_strength" env:"GRAVEM_COUPLING_STRENGTH"`
	ResonanceFactor            float64 `yaml:"resonance_factor" env:"GRAVEM_RESONANCE_FACTOR"`
	FrameDragCoefficient       float64 `yaml:"frame_drag_coefficient" env:"GRAVEM_FRAME_DRAG_COEFFICIENT"`
	BerryPhaseFactor           float64 `yaml:"berry_phase_factor" env:"GRAVEM_BERRY_PHASE_FACTOR"`
}

// DefaultParams returns the reference parameter set.
func DefaultParams() Params {
	return Params{
		EarthRadius:                6371.0,
		EarthMass:                  5.972e24,
		EarthMagneticFieldStrength: 25.0,
		SchumannBaseFrequency:      7.83,
		GravitationalConstant:      6.67430e-11,
		CouplingStrength:           0.4,
		ResonanceFactor:            0.25,
		FrameDragCoefficient:       0.15,
		BerryPhaseFactor:           0.3,
	}
}

// Validate rejects non-finite values and non-positive physical constants.
// The model coefficients may be zero or negative; they only scale outputs.
func (p Params) Validate() error {
	fields := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"earth_radius", p.EarthRadius, true},
		{"earth_mass", p.EarthMass, true},
		{"earth_magnetic_field_strength", p.EarthMagneticFieldStrength, true},
		{"schumann_base_frequency", p.SchumannBaseFrequency, true},
		{"gravitational_constant", p.GravitationalConstant, true},
		{"coupling_strength", p.CouplingStrength, false},
		{"resonance_factor", p.ResonanceFactor, false},
		{"frame_drag_coefficient", p.FrameDragCoefficient, false},
		{"berry_phase_factor", p.BerryPhaseFactor, false},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidParams, f.name)
		}
		if f.positive && f.value <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidParams, f.name)
		}
	}
	return nil
}
