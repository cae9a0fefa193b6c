package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/couchcryptid/gravem-model/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	ProcessedDir     string
	VisualizationDir string
	ModelDir         string
	MetricsFile      string
	ParamsFile       string
	LogLevel         string
	LogFormat        string

	PlotsEnabled    bool
	PlotDPI         int
	WorkbookEnabled bool

	// Params starts from domain.DefaultParams, then MODEL_PARAMS_FILE, then
	// GRAVEM_* variables.
	Params domain.Params
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	plotsEnabled, err := parseBool("PLOTS_ENABLED", true)
	if err != nil {
		return nil, err
	}
	workbookEnabled, err := parseBool("WORKBOOK_ENABLED", false)
	if err != nil {
		return nil, err
	}
	dpi, err := parsePlotDPI()
	if err != nil {
		return nil, err
	}

	modelDir := sharedcfg.EnvOrDefault("MODEL_DIR", "model")
	cfg := &Config{
		ProcessedDir:     sharedcfg.EnvOrDefault("PROCESSED_DIR", filepath.Join("data", "processed")),
		VisualizationDir: sharedcfg.EnvOrDefault("VISUALIZATION_DIR", "visualizations"),
		ModelDir:         modelDir,
		MetricsFile:      sharedcfg.EnvOrDefault("METRICS_FILE", filepath.Join(modelDir, "gravem.prom")),
		ParamsFile:       os.Getenv("MODEL_PARAMS_FILE"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		PlotsEnabled:     plotsEnabled,
		PlotDPI:          dpi,
		WorkbookEnabled:  workbookEnabled,
	}

	if cfg.ProcessedDir == "" {
		return nil, errors.New("PROCESSED_DIR is required")
	}
	if cfg.ModelDir == "" {
		return nil, errors.New("MODEL_DIR is required")
	}
	if cfg.PlotsEnabled && cfg.VisualizationDir == "" {
		return nil, errors.New("VISUALIZATION_DIR is required when PLOTS_ENABLED is true")
	}

	params, err := LoadParams(cfg.ParamsFile)
	if err != nil {
		return nil, err
	}
	cfg.Params = params

	return cfg, nil
}

// LoadParams layers the optional YAML file and GRAVEM_* environment
// variables over the default parameters. An empty path skips the file.
func LoadParams(path string) (domain.Params, error) {
	params := domain.DefaultParams()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Params{}, fmt.Errorf("read MODEL_PARAMS_FILE: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&params); err != nil {
			return domain.Params{}, fmt.Errorf("decode MODEL_PARAMS_FILE %s: %w", path, err)
		}
	}

	if err := env.Parse(&params); err != nil {
		return domain.Params{}, fmt.Errorf("parse GRAVEM_* env: %w", err)
	}

	if err := params.Validate(); err != nil {
		return domain.Params{}, err
	}
	return params, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parsePlotDPI() (int, error) {
	s := sharedcfg.EnvOrDefault("PLOT_DPI", "300")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 1200 {
		return 0, fmt.Errorf("invalid PLOT_DPI: %q (want 1-1200)", s)
	}
	return n, nil
}
