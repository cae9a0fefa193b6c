// Package xlsx exports layer tables into a single Excel workbook, one sheet
// per layer.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

const columnWidth = 18

// Writer saves workbooks into one directory.
// It implements pipeline.WorkbookWriter.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// New creates a Writer rooted at dir.
func New(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// WriteWorkbook writes frames[i] to a sheet named sheets[i]. Numeric cells
// stay numeric; NaN cells are left empty.
func (w *Writer) WriteWorkbook(ctx context.Context, name string, sheets []string, frames []dataframe.DataFrame) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(sheets) == 0 || len(sheets) != len(frames) {
		return "", fmt.Errorf("workbook %s: %d sheet names for %d frames", name, len(sheets), len(frames))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheets[0]); err != nil {
		return "", fmt.Errorf("workbook %s: %w", name, err)
	}
	for i, sheet := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sheet); err != nil {
				return "", fmt.Errorf("workbook %s: %w", name, err)
			}
		}
		if err := writeSheet(f, sheet, frames[i]); err != nil {
			return "", fmt.Errorf("workbook %s sheet %s: %w", name, sheet, err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	w.logger.Debug("workbook saved", "path", path, "sheets", len(sheets))
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, df dataframe.DataFrame) error {
	names := df.Names()
	header := make([]any, len(names))
	for i, n := range names {
		header[i] = n
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(max(len(names), 1))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, columnWidth); err != nil {
		return err
	}

	cols := make([]series.Series, len(names))
	for i, n := range names {
		cols[i] = df.Col(n)
	}
	for r := range df.Nrow() {
		row := make([]any, len(cols))
		for c, s := range cols {
			row[c] = cellValue(s, r)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(s series.Series, i int) any {
	e := s.Elem(i)
	if e.IsNA() {
		return nil
	}
	switch s.Type() {
	case series.Float:
		v := e.Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return nil
		}
		return v
	case series.Bool:
		v, err := e.Bool()
		if err != nil {
			return nil
		}
		return v
	default:
		return e.String()
	}
}
