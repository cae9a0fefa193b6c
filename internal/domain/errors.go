package domain

import "errors"

var (
	// ErrNoSpatialData is returned when layer 1 runs before a grid is loaded.
	ErrNoSpatialData = errors.New("no spatial data loaded")

	// ErrLayerUnavailable is returned when a stage receives no upstream layer.
	ErrLayerUnavailable = errors.New("upstream layer not available")

	// ErrNoTimeSeries is returned when layer 3 runs without SR samples.
	ErrNoTimeSeries = errors.New("time series data not available")

	// ErrMissingColumn is returned when a table lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrZeroMeanAmplitude is returned when mean_sr is zero or has no samples,
	// which would make sr_modulation undefined.
	ErrZeroMeanAmplitude = errors.New("mean sr_amplitude is zero or undefined")

	// ErrInvalidParams is returned when a model parameter is out of range or not finite.
	ErrInvalidParams = errors.New("invalid model parameters")
)
