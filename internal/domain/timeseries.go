package domain

import (
	"bufio"
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate accepts the date formats found in SR time series exports.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: unrecognized format", s)
}

// MeanAmplitude returns the mean of the sr_amplitude samples, skipping NaN.
// Infinite samples are kept, so the mean may be infinite. It fails with
// ErrZeroMeanAmplitude when no samples remain or the mean is zero or NaN.
func MeanAmplitude(samples []float64) (float64, error) {
	present := make([]float64, 0, len(samples))
	for _, v := range samples {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return 0, fmt.Errorf("%w: no samples", ErrZeroMeanAmplitude)
	}
	mean := stat.Mean(present, nil)
	if mean == 0 || math.IsNaN(mean) {
		return 0, fmt.Errorf("%w: mean %v", ErrZeroMeanAmplitude, mean)
	}
	return mean, nil
}

// ParseCorrelationMetrics extracts "key: value" lines from the upstream
// correlation metrics report. Headings, blank lines and anything without a
// colon are skipped. Later duplicates overwrite earlier ones.
func ParseCorrelationMetrics(text string) map[string]string {
	out := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
