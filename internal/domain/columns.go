package domain

// Input grid columns.
const (
	ColLat         = "lat_grid"
	ColLon         = "lon_grid"
	ColBouguer     = "bouguer_anomaly"
	ColMagnetic    = "magnetic_anomaly"
	ColSRIntensity = "sr_intensity"
)

// Time series columns.
const (
	ColDate        = "date"
	ColSRAmplitude = "sr_amplitude"
	ColSRFrequency = "sr_frequency"
)

// Layer 1 columns.
const (
	ColRotVelocity     = "rot_velocity"
	ColFrameDragFactor = "frame_drag_factor"
	ColVortexStrength  = "vortex_strength"
)

// Layer 2 columns.
const (
	ColBerryPhase      = "berry_phase"
	ColSpinAlignment   = "spin_alignment"
	ColPhaseCoherence  = "phase_coherence"
	ColModulatedVortex = "modulated_vortex"
)

// Layer 3 columns.
const (
	ColBaseCoupling           = "base_coupling"
	ColCoherenceCoupling      = "coherence_coupling"
	ColSRModulation           = "sr_modulation"
	ColMagnetoGravityCoupling = "magneto_gravity_coupling"
)

// Output file names, relative to the model and visualization directories.
const (
	Layer1File = "layer1_frame_drag_data.csv"
	Layer2File = "layer2_spin_phase_data.csv"
	Layer3File = "layer3_earthfield_coupling_data.csv"

	Layer1Plot      = "layer1_vortex_map.png"
	Layer2Plot      = "layer2_phase_coherence.png"
	Layer3Plot      = "layer3_earthfield_coupling.png"
	IntegratedPlot  = "tesla_gravem_integrated_model.png"
	PerspectivePlot = "tesla_gravem_3d_model.png"

	SummaryFile  = "model_summary.yaml"
	WorkbookFile = "tesla_gravem_layers.xlsx"
)

// Input file names, relative to the processed data directory.
const (
	SpatialGridFile        = "spatial_grid_data.csv"
	TimeSeriesFile         = "simulated_time_series.csv"
	CorrelationMetricsFile = "correlation_metrics.txt"
)

// Layer1Columns, Layer2Columns and Layer3Columns list the columns each
// layer appends, in output order.
var (
	Layer1Columns = []string{ColRotVelocity, ColFrameDragFactor, ColVortexStrength}
	Layer2Columns = []string{ColBerryPhase, ColSpinAlignment, ColPhaseCoherence, ColModulatedVortex}
	Layer3Columns = []string{ColBaseCoupling, ColCoherenceCoupling, ColSRModulation, ColMagnetoGravityCoupling}
)
