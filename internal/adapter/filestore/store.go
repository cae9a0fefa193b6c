// Package filestore reads model inputs from the processed data directory and
// writes layer tables and the run summary to the model directory.
package filestore

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/gravem-model/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gopkg.in/yaml.v3"
)

// Store is a flat-file source and sink for the pipeline.
// It implements pipeline.Source and pipeline.Sink.
type Store struct {
	processedDir string
	modelDir     string
	logger       *slog.Logger
}

// New creates a Store rooted at the given directories.
func New(processedDir, modelDir string, logger *slog.Logger) *Store {
	return &Store{processedDir: processedDir, modelDir: modelDir, logger: logger}
}

// LoadGrid reads the spatial grid CSV.
func (s *Store) LoadGrid(ctx context.Context) (dataframe.DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}
	df, err := ReadFrame(filepath.Join(s.processedDir, domain.SpatialGridFile))
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load spatial grid: %w", err)
	}
	s.logger.Debug("spatial grid read", "rows", df.Nrow(), "columns", df.Names())
	return df, nil
}

// LoadTimeSeries reads the SR time series CSV. Blank date cells are kept as
// missing; any other date cell must parse.
func (s *Store) LoadTimeSeries(ctx context.Context) (dataframe.DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}
	df, err := ReadFrame(filepath.Join(s.processedDir, domain.TimeSeriesFile))
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load time series: %w", err)
	}
	if hasColumn(df, domain.ColDate) {
		col := df.Col(domain.ColDate)
		missing := 0
		for i := range col.Len() {
			e := col.Elem(i)
			if e.IsNA() {
				missing++
				continue
			}
			if _, err := domain.ParseDate(e.String()); err != nil {
				return dataframe.DataFrame{}, fmt.Errorf("load time series: row %d: %w", i+1, err)
			}
		}
		if missing > 0 {
			s.logger.Warn("time series rows without a date", "rows", missing)
		}
	}
	return df, nil
}

// LoadCorrelationMetrics returns the raw text of the upstream metrics report.
func (s *Store) LoadCorrelationMetrics(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.processedDir, domain.CorrelationMetricsFile))
	if err != nil {
		return "", fmt.Errorf("load correlation metrics: %w", err)
	}
	return string(data), nil
}

// WriteLayer writes a layer table to the model directory and returns its path.
func (s *Store) WriteLayer(ctx context.Context, name string, df dataframe.DataFrame) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.modelDir, name)
	if err := WriteFrame(path, df); err != nil {
		return "", fmt.Errorf("write layer %s: %w", name, err)
	}
	s.logger.Debug("layer written", "path", path, "rows", df.Nrow())
	return path, nil
}

// WriteSummary marshals v as YAML into the model directory.
func (s *Store) WriteSummary(ctx context.Context, v any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.MkdirAll(s.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}
	path := filepath.Join(s.modelDir, domain.SummaryFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

// nanValues are the cell spellings read as missing. Empty cells are what
// WriteFrame emits for NaN.
var nanValues = []string{"", "NA", "NaN", "<nil>"}

// ReadFrame loads a CSV with a header row, detecting column types.
func ReadFrame(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse %s: %w", filepath.Base(path), df.Err)
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("parse %s: no data rows", filepath.Base(path))
	}
	return df, nil
}

// WriteFrame writes df as CSV with a header row. Float columns use the
// shortest representation that round-trips, unlike gota's fixed six
// decimals, so small couplings keep their precision. NaN cells are left empty.
func WriteFrame(path string, df dataframe.DataFrame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := df.Names()
	cols := make([][]string, len(names))
	for i, name := range names {
		cols[i] = formatColumn(df.Col(name))
	}

	w := csv.NewWriter(f)
	if err := w.Write(names); err != nil {
		return err
	}
	row := make([]string, len(names))
	for r := range df.Nrow() {
		for c := range cols {
			row[c] = cols[c][r]
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatColumn(s series.Series) []string {
	if s.Type() != series.Float {
		return s.Records()
	}
	vals := s.Float()
	out := make([]string, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}
