package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/couchcryptid/gravem-model/internal/observability"
	"github.com/couchcryptid/gravem-model/internal/report"
	"github.com/go-gota/gota/dataframe"
)

// Source reads the model inputs.
type Source interface {
	LoadGrid(ctx context.Context) (dataframe.DataFrame, error)
	LoadTimeSeries(ctx context.Context) (dataframe.DataFrame, error)
	LoadCorrelationMetrics(ctx context.Context) (string, error)
}

// Sink persists layer tables and the run summary. Both return the path written.
type Sink interface {
	WriteLayer(ctx context.Context, name string, df dataframe.DataFrame) (string, error)
	WriteSummary(ctx context.Context, v any) (string, error)
}

// Visualizer renders static plots. Each method returns the path written.
type Visualizer interface {
	RenderMap(ctx context.Context, name string, layer domain.MapLayer) (string, error)
	RenderPanels(ctx context.Context, name string, panels []domain.MapLayer, cols int) (string, error)
	RenderSurface(ctx context.Context, name string, s domain.Surface) (string, error)
}

// WorkbookWriter exports all layer tables into one spreadsheet.
type WorkbookWriter interface {
	WriteWorkbook(ctx context.Context, name string, sheets []string, frames []dataframe.DataFrame) (string, error)
}

// Stage names used in logs and metric labels.
const (
	StageLoad      = "load"
	StageFrameDrag = "frame_drag"
	StageSpinPhase = "spin_phase"
	StageCoupling  = "earthfield_coupling"
	StageIntegrate = "integrate"
	StageSummary   = "summary"
)

// Model holds the loaded inputs and the derived maps of the three layers.
// Stages run in order: Load, FrameDrag, SpinPhase, EarthfieldCoupling,
// Integrate. Run executes all of them.
type Model struct {
	source   Source
	sink     Sink
	viz      Visualizer
	workbook WorkbookWriter
	params   domain.Params
	logger   *slog.Logger
	metrics  *observability.Metrics

	spatial      *dataframe.DataFrame
	timeSeries   *dataframe.DataFrame
	inputMetrics map[string]string
	meanSR       float64

	vortexMap          []domain.MapPoint
	spinPhaseCoherence []domain.MapPoint
	resonanceCoupling  []domain.MapPoint
}

// New creates a Model. Pass a nil visualizer to skip plotting.
func New(src Source, sink Sink, viz Visualizer, params domain.Params, logger *slog.Logger, metrics *observability.Metrics) *Model {
	logger.Info("model initialized", "params", params)
	return &Model{
		source:  src,
		sink:    sink,
		viz:     viz,
		params:  params,
		logger:  logger,
		metrics: metrics,
	}
}

// WithWorkbook enables the spreadsheet export at the end of Run.
func (m *Model) WithWorkbook(w WorkbookWriter) *Model {
	m.workbook = w
	return m
}

// Params returns the parameters the model was built with.
func (m *Model) Params() domain.Params { return m.params }

// VortexMap returns the layer 1 vortex strength per cell, or nil before layer 1.
func (m *Model) VortexMap() []domain.MapPoint { return m.vortexMap }

// SpinPhaseCoherence returns the layer 2 phase coherence per cell.
func (m *Model) SpinPhaseCoherence() []domain.MapPoint { return m.spinPhaseCoherence }

// ResonanceCoupling returns the layer 3 magneto-gravity coupling per cell.
func (m *Model) ResonanceCoupling() []domain.MapPoint { return m.resonanceCoupling }

// MeanSR returns the mean SR amplitude used by the last layer 3 run.
func (m *Model) MeanSR() float64 { return m.meanSR }

// InputMetrics returns the key/value pairs parsed from the upstream metrics report.
func (m *Model) InputMetrics() map[string]string { return m.inputMetrics }

// Load reads the spatial grid, the time series and the correlation metrics.
// On any failure no state is replaced.
func (m *Model) Load(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { m.observe(StageLoad, start, 0, err) }()

	m.logger.Info("loading processed data")

	grid, err := m.source.LoadGrid(ctx)
	if err != nil {
		return m.fail(StageLoad, err)
	}
	ts, err := m.source.LoadTimeSeries(ctx)
	if err != nil {
		return m.fail(StageLoad, err)
	}
	text, err := m.source.LoadCorrelationMetrics(ctx)
	if err != nil {
		return m.fail(StageLoad, err)
	}

	m.spatial = &grid
	m.timeSeries = &ts
	m.inputMetrics = domain.ParseCorrelationMetrics(text)

	m.metrics.GridRecords.Set(float64(grid.Nrow()))
	m.metrics.TimeSeriesRecords.Set(float64(ts.Nrow()))
	m.logger.Info("processed data loaded",
		"grid_records", grid.Nrow(),
		"time_series_records", ts.Nrow(),
		"input_metrics", len(m.inputMetrics),
	)
	return nil
}

// FrameDrag runs layer 1 over the loaded grid.
func (m *Model) FrameDrag(ctx context.Context) (_ *dataframe.DataFrame, err error) {
	start := time.Now()
	rows := 0
	defer func() { m.observe(StageFrameDrag, start, rows, err) }()

	m.logger.Info("implementing layer 1", "layer", "rotational frame drag")
	if m.spatial == nil {
		return nil, m.fail(StageFrameDrag, domain.ErrNoSpatialData)
	}

	out, err := applyFrameDrag(m.params, *m.spatial)
	if err != nil {
		return nil, m.fail(StageFrameDrag, err)
	}
	layer, err := mapLayer(out, domain.ColVortexStrength,
		"Layer 1: Spacetime Vortex Mapping", "Vortex Strength (arbitrary units)", domain.ColormapPlasma)
	if err != nil {
		return nil, m.fail(StageFrameDrag, err)
	}
	m.vortexMap = layer.Points()

	if err := m.emit(ctx, domain.Layer1File, out, domain.Layer1Plot, layer); err != nil {
		return nil, m.fail(StageFrameDrag, err)
	}

	rows = out.Nrow()
	m.logger.Info("layer 1 complete", "rows", rows)
	return &out, nil
}

// SpinPhase runs layer 2 over the layer 1 table.
func (m *Model) SpinPhase(ctx context.Context, layer1 *dataframe.DataFrame) (_ *dataframe.DataFrame, err error) {
	start := time.Now()
	rows := 0
	defer func() { m.observe(StageSpinPhase, start, rows, err) }()

	m.logger.Info("implementing layer 2", "layer", "spin-phase dynamics")
	if layer1 == nil {
		return nil, m.fail(StageSpinPhase, fmt.Errorf("%w: layer 1", domain.ErrLayerUnavailable))
	}

	out, err := applySpinPhase(m.params, *layer1)
	if err != nil {
		return nil, m.fail(StageSpinPhase, err)
	}
	layer, err := mapLayer(out, domain.ColPhaseCoherence,
		"Layer 2: Spin-Phase Coherence", "Phase Coherence (arbitrary units)", domain.ColormapViridis)
	if err != nil {
		return nil, m.fail(StageSpinPhase, err)
	}
	m.spinPhaseCoherence = layer.Points()

	if err := m.emit(ctx, domain.Layer2File, out, domain.Layer2Plot, layer); err != nil {
		return nil, m.fail(StageSpinPhase, err)
	}

	rows = out.Nrow()
	m.logger.Info("layer 2 complete", "rows", rows)
	return &out, nil
}

// EarthfieldCoupling runs layer 3 over the layer 2 table, modulated by the
// mean SR amplitude of the loaded time series.
func (m *Model) EarthfieldCoupling(ctx context.Context, layer2 *dataframe.DataFrame) (_ *dataframe.DataFrame, err error) {
	start := time.Now()
	rows := 0
	defer func() { m.observe(StageCoupling, start, rows, err) }()

	m.logger.Info("implementing layer 3", "layer", "earthfield coupling")
	if layer2 == nil {
		return nil, m.fail(StageCoupling, fmt.Errorf("%w: layer 2", domain.ErrLayerUnavailable))
	}
	if m.timeSeries == nil {
		return nil, m.fail(StageCoupling, domain.ErrNoTimeSeries)
	}

	amplitude, err := floatColumn(*m.timeSeries, domain.ColSRAmplitude)
	if err != nil {
		return nil, m.fail(StageCoupling, fmt.Errorf("time series: %w", err))
	}
	meanSR, err := domain.MeanAmplitude(amplitude)
	if err != nil {
		return nil, m.fail(StageCoupling, err)
	}

	out, err := applyCoupling(m.params, *layer2, meanSR)
	if err != nil {
		return nil, m.fail(StageCoupling, err)
	}
	layer, err := mapLayer(out, domain.ColMagnetoGravityCoupling,
		"Layer 3: Earthfield Coupling (SR + Magneto-Gravity Feedback)",
		"Magneto-Gravity Coupling (arbitrary units)", domain.ColormapMagma)
	if err != nil {
		return nil, m.fail(StageCoupling, err)
	}
	m.meanSR = meanSR
	m.resonanceCoupling = layer.Points()
	m.metrics.MeanSRAmplitude.Set(meanSR)

	if err := m.emit(ctx, domain.Layer3File, out, domain.Layer3Plot, layer); err != nil {
		return nil, m.fail(StageCoupling, err)
	}

	rows = out.Nrow()
	m.logger.Info("layer 3 complete", "rows", rows, "mean_sr", meanSR)
	return &out, nil
}

// Integrate renders the 2x2 overview and the oblique 3D view of the final table.
func (m *Model) Integrate(ctx context.Context, final *dataframe.DataFrame) (err error) {
	start := time.Now()
	rows := 0
	defer func() { m.observe(StageIntegrate, start, rows, err) }()

	m.logger.Info("creating integrated model visualization")
	if final == nil {
		return m.fail(StageIntegrate, fmt.Errorf("%w: layer 3", domain.ErrLayerUnavailable))
	}

	panels, surface, err := integratedViews(*final)
	if err != nil {
		return m.fail(StageIntegrate, err)
	}
	rows = final.Nrow()

	if m.viz == nil {
		m.logger.Info("plots disabled, skipping integrated visualization")
		return nil
	}

	path, err := m.viz.RenderPanels(ctx, domain.IntegratedPlot, panels, 2)
	if err != nil {
		return m.fail(StageIntegrate, err)
	}
	m.saved("png", path)

	path, err = m.viz.RenderSurface(ctx, domain.PerspectivePlot, surface)
	if err != nil {
		return m.fail(StageIntegrate, err)
	}
	m.saved("png", path)

	m.logger.Info("integrated model visualization complete")
	return nil
}

// Result carries the tables and summary of a complete run.
type Result struct {
	Layer1  *dataframe.DataFrame
	Layer2  *dataframe.DataFrame
	Layer3  *dataframe.DataFrame
	Summary report.Summary
}

// Run executes every stage in order and writes the run summary. It stops at
// the first failing stage.
func (m *Model) Run(ctx context.Context) (Result, error) {
	var res Result
	m.metrics.LastRunSuccess.Set(0)
	defer func() { m.metrics.LastRunTimestamp.Set(float64(domain.Clock().Now().Unix())) }()

	if err := m.Load(ctx); err != nil {
		return res, err
	}
	var err error
	if res.Layer1, err = m.FrameDrag(ctx); err != nil {
		return res, err
	}
	if res.Layer2, err = m.SpinPhase(ctx, res.Layer1); err != nil {
		return res, err
	}
	if res.Layer3, err = m.EarthfieldCoupling(ctx, res.Layer2); err != nil {
		return res, err
	}
	if err := m.Integrate(ctx, res.Layer3); err != nil {
		return res, err
	}
	if res.Summary, err = m.summarize(ctx, res.Layer3); err != nil {
		return res, err
	}
	if err := m.exportWorkbook(ctx, res); err != nil {
		return res, err
	}

	m.metrics.LastRunSuccess.Set(1)
	m.logger.Info("model run complete", "grid_records", res.Layer3.Nrow(), "mean_sr", m.meanSR)
	return res, nil
}

func (m *Model) summarize(ctx context.Context, final *dataframe.DataFrame) (_ report.Summary, err error) {
	start := time.Now()
	defer func() { m.observe(StageSummary, start, 0, err) }()

	cols := floatColumns(*final)
	derived := make([]string, 0, len(domain.Layer1Columns)+len(domain.Layer2Columns)+len(domain.Layer3Columns))
	derived = append(derived, domain.Layer1Columns...)
	derived = append(derived, domain.Layer2Columns...)
	derived = append(derived, domain.Layer3Columns...)

	summary := report.Summary{
		GeneratedAt:       domain.Clock().Now().UTC(),
		Params:            m.params,
		GridRecords:       final.Nrow(),
		TimeSeriesRecords: m.timeSeries.Nrow(),
		MeanSRAmplitude:   m.meanSR,
		Columns:           report.Describe(cols, derived),
		Correlations:      report.Correlate(cols, report.DefaultPairs),
		InputMetrics:      m.inputMetrics,
	}

	path, err := m.sink.WriteSummary(ctx, summary)
	if err != nil {
		return report.Summary{}, m.fail(StageSummary, err)
	}
	m.saved("yaml", path)
	return summary, nil
}

func (m *Model) exportWorkbook(ctx context.Context, res Result) error {
	if m.workbook == nil {
		return nil
	}
	path, err := m.workbook.WriteWorkbook(ctx, domain.WorkbookFile,
		[]string{"layer1_frame_drag", "layer2_spin_phase", "layer3_earthfield_coupling"},
		[]dataframe.DataFrame{*res.Layer1, *res.Layer2, *res.Layer3},
	)
	if err != nil {
		m.logger.Error("workbook export failed", "error", err)
		return fmt.Errorf("export workbook: %w", err)
	}
	m.saved("xlsx", path)
	return nil
}

// emit writes the layer table and, when plotting is enabled, its map.
func (m *Model) emit(ctx context.Context, table string, df dataframe.DataFrame, plot string, layer domain.MapLayer) error {
	path, err := m.sink.WriteLayer(ctx, table, df)
	if err != nil {
		return err
	}
	m.saved("csv", path)

	if m.viz == nil {
		return nil
	}
	path, err = m.viz.RenderMap(ctx, plot, layer)
	if err != nil {
		return err
	}
	m.saved("png", path)
	return nil
}

func (m *Model) saved(kind, path string) {
	m.metrics.ArtifactsSaved.WithLabelValues(kind).Inc()
	m.logger.Debug("artifact saved", "kind", kind, "path", path)
}

func (m *Model) fail(stage string, err error) error {
	m.logger.Error("stage failed", "stage", stage, "error", err)
	return fmt.Errorf("%s: %w", stage, err)
}

func (m *Model) observe(stage string, start time.Time, rows int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.metrics.StageRuns.WithLabelValues(stage, outcome).Inc()
	m.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if rows > 0 {
		m.metrics.RowsProcessed.WithLabelValues(stage).Add(float64(rows))
	}
}
