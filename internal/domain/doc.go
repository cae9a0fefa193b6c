// Package domain models the Tesla-GRAVEM grid: a toy three-layer numerical
// model evaluated over a latitude/longitude grid of synthetic gravity and
// magnetic survey values.
//
// # Inputs
//
// The spatial grid carries one record per cell:
//
//	lat_grid, lon_grid     degrees (WGS-84)
//	bouguer_anomaly        Bouguer gravity anomaly in mGal
//	magnetic_anomaly       total-field magnetic anomaly in nT
//	sr_intensity           local Schumann resonance intensity
//
// A dated time series of Schumann resonance (SR) samples contributes a single
// scalar to the model: the mean of its sr_amplitude column. Cells that fail
// to parse are NaN and are skipped by [MeanAmplitude].
//
// # Layers
//
// Each layer is a set of elementwise formulas over the previous layer's
// columns and the [Params]. Angles are converted from degrees first.
//
//	Layer 1, rotational frame drag:
//	  rot_velocity      = 465 * cos(lat)
//	  frame_drag_factor = frame_drag_coefficient * rot_velocity / 465
//	  vortex_strength   = frame_drag_factor * |bouguer| / 100
//
//	Layer 2, spin-phase dynamics:
//	  berry_phase       = berry_phase_factor * sin(lat) * magnetic / 50
//	  spin_alignment    = 0.5 + 0.5 * tanh(magnetic / 100)
//	  phase_coherence   = spin_alignment * (1 + 0.5 * berry_phase)
//	  modulated_vortex  = vortex_strength * phase_coherence
//
//	Layer 3, earthfield coupling:
//	  base_coupling            = coupling_strength * |magnetic * bouguer| / 5000
//	  coherence_coupling       = base_coupling * phase_coherence
//	  sr_modulation            = 1 + resonance_factor * (sr_intensity / mean_sr - 1)
//	  magneto_gravity_coupling = coherence_coupling * sr_modulation
//
// 465 m/s is Earth's equatorial surface rotation speed, so frame_drag_factor
// reduces to frame_drag_coefficient * cos(lat). The layers are informal
// arithmetic analogies and are not validated against physical law.
package domain
