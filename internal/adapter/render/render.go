// Package render draws layer maps, the integrated overview and the oblique
// 3D view as PNG files using gonum/plot.
package render

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/gravem-model/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Figure sizes in inches.
const (
	mapWidth, mapHeight         = 12, 8
	panelWidth, panelHeight     = 16, 12
	surfaceWidth, surfaceHeight = 14, 10

	colorBarWidth = 1.4 * vg.Inch
	pointAlpha    = 0.7
)

var (
	missingColor = color.Gray{Y: 160}
	errNoPoints  = errors.New("no finite points to plot")
)

// Renderer writes PNG figures into one directory.
// It implements pipeline.Visualizer.
type Renderer struct {
	dir    string
	dpi    int
	logger *slog.Logger
}

// New creates a Renderer writing to dir at the given resolution.
func New(dir string, dpi int, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, dpi: dpi, logger: logger}
}

// RenderMap draws one layer as a coloured lon/lat scatter with a colour bar.
func (r *Renderer) RenderMap(ctx context.Context, name string, layer domain.MapLayer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	main, bar, err := mapPlots(layer)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	c := r.canvas(mapWidth, mapHeight)
	drawWithBar(draw.New(c), main, bar)
	return r.save(c, name)
}

// RenderPanels draws several layers on a grid with cols columns.
func (r *Renderer) RenderPanels(ctx context.Context, name string, panels []domain.MapLayer, cols int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(panels) == 0 || cols < 1 {
		return "", fmt.Errorf("render %s: no panels", name)
	}
	rows := (len(panels) + cols - 1) / cols

	mains := make([]*plot.Plot, len(panels))
	bars := make([]*plot.Plot, len(panels))
	for i, layer := range panels {
		main, bar, err := mapPlots(layer)
		if err != nil {
			return "", fmt.Errorf("render %s panel %q: %w", name, layer.Title, err)
		}
		mains[i], bars[i] = main, bar
	}

	c := r.canvas(panelWidth, panelHeight)
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter * 6, PadY: vg.Millimeter * 6,
		PadTop: vg.Millimeter * 4, PadBottom: vg.Millimeter * 4,
		PadLeft: vg.Millimeter * 4, PadRight: vg.Millimeter * 4,
	}
	for i := range mains {
		drawWithBar(tiles.At(dc, i%cols, i/cols), mains[i], bars[i])
	}
	return r.save(c, name)
}

// RenderSurface draws the elevation field as an oblique projection: longitude
// runs along the page, latitude recedes at 30 degrees and elevation rises
// vertically. Points are painted back to front.
func (r *Renderer) RenderSurface(ctx context.Context, name string, s domain.Surface) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n := min(len(s.Lon), len(s.Lat), len(s.Elevation), len(s.Color))
	if n == 0 {
		return "", fmt.Errorf("render %s: %w", name, errNoPoints)
	}

	cm := moreland.ExtendedBlackBody()
	setRange(cm, s.Color[:n])

	lonN := normalize(s.Lon[:n])
	latN := normalize(s.Lat[:n])
	zN := normalize(s.Elevation[:n])

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return latN[order[a]] > latN[order[b]] })

	pts := make(plotter.XYs, 0, n)
	colors := make([]color.Color, 0, n)
	for _, i := range order {
		if math.IsNaN(lonN[i]) || math.IsNaN(latN[i]) || math.IsNaN(zN[i]) {
			continue
		}
		x, y := oblique(lonN[i], latN[i], zN[i])
		pts = append(pts, plotter.XY{X: x, Y: y})
		colors = append(colors, colorAt(cm, s.Color[i]))
	}
	if len(pts) == 0 {
		return "", fmt.Errorf("render %s: %w", name, errNoPoints)
	}

	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = "Longitude (oblique, latitude receding)"
	p.Y.Label.Text = s.ZLabel
	hideTicks(p)

	base, err := baseFrame()
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	p.Add(base)

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[i], Radius: vg.Points(2.5), Shape: draw.CircleGlyph{}}
	}
	p.Add(sc)

	c := r.canvas(surfaceWidth, surfaceHeight)
	drawWithBar(draw.New(c), p, colorBarPlot(cm, s.ColorLabel))
	return r.save(c, name)
}

func (r *Renderer) canvas(widthIn, heightIn float64) *vgimg.Canvas {
	return vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(r.dpi),
	)
}

func (r *Renderer) save(c *vgimg.Canvas, name string) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create visualization dir: %w", err)
	}
	path := filepath.Join(r.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return "", fmt.Errorf("write png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("write png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close png: %w", err)
	}
	r.logger.Debug("plot saved", "path", path, "dpi", r.dpi)
	return path, nil
}

// drawWithBar splits dc into the main plot and a colour bar strip on the right.
func drawWithBar(dc draw.Canvas, main, bar *plot.Plot) {
	width := dc.Max.X - dc.Min.X
	barWidth := min(colorBarWidth, width/4)
	main.Draw(draw.Crop(dc, 0, -barWidth, 0, 0))
	bar.Draw(draw.Crop(dc, width-barWidth, 0, 0, 0))
}

func mapPlots(layer domain.MapLayer) (*plot.Plot, *plot.Plot, error) {
	cm, err := colorMap(layer.Colormap)
	if err != nil {
		return nil, nil, err
	}
	n := min(len(layer.Lon), len(layer.Lat), len(layer.Values))
	if n == 0 {
		return nil, nil, errNoPoints
	}
	setRange(cm, layer.Values[:n])

	pts := make(plotter.XYs, 0, n)
	colors := make([]color.Color, 0, n)
	for i := range n {
		if !finite(layer.Lon[i]) || !finite(layer.Lat[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: layer.Lon[i], Y: layer.Lat[i]})
		colors = append(colors, colorAt(cm, layer.Values[i]))
	}
	if len(pts) == 0 {
		return nil, nil, errNoPoints
	}

	p := plot.New()
	p.Title.Text = layer.Title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, nil, err
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[i], Radius: vg.Points(3), Shape: draw.CircleGlyph{}}
	}
	p.Add(sc)

	return p, colorBarPlot(cm, layer.Label), nil
}

func colorBarPlot(cm palette.ColorMap, label string) *plot.Plot {
	p := plot.New()
	p.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	p.HideX()
	p.Y.Label.Text = label
	p.Y.Padding = 0
	return p
}

// colorMap maps the palette names used by the layers onto moreland maps
// with similar perceptual ramps.
func colorMap(name string) (palette.ColorMap, error) {
	var cm palette.ColorMap
	switch name {
	case domain.ColormapPlasma:
		cm = moreland.BlackBody()
	case domain.ColormapViridis:
		cm = moreland.Kindlmann()
	case domain.ColormapMagma:
		cm = moreland.ExtendedBlackBody()
	default:
		return nil, fmt.Errorf("unknown colormap %q", name)
	}
	cm.SetAlpha(pointAlpha)
	return cm, nil
}

// setRange fits the colour map to the finite values. A flat field gets a
// unit range so every cell maps to the low end.
func setRange(cm palette.ColorMap, vals []float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if finite(v) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	cm.SetMin(lo)
	cm.SetMax(hi)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func colorAt(cm palette.ColorMap, v float64) color.Color {
	if !finite(v) {
		return missingColor
	}
	c, err := cm.At(math.Min(math.Max(v, cm.Min()), cm.Max()))
	if err != nil {
		return missingColor
	}
	return c
}

// normalize rescales vals to [0, 1]. NaN stays NaN and a flat input maps to 0.
func normalize(vals []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if finite(v) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	span := hi - lo
	out := make([]float64, len(vals))
	for i, v := range vals {
		switch {
		case !finite(v):
			out[i] = math.NaN()
		case span <= 0:
			out[i] = 0
		default:
			out[i] = (v - lo) / span
		}
	}
	return out
}

var (
	obliqueDepth = 0.5
	obliqueCos   = math.Cos(math.Pi / 6)
	obliqueSin   = math.Sin(math.Pi / 6)
)

func oblique(x, depth, z float64) (float64, float64) {
	return x + obliqueDepth*depth*obliqueCos, z + obliqueDepth*depth*obliqueSin
}

// baseFrame outlines the lon/lat plane at the lowest elevation.
func baseFrame() (*plotter.Line, error) {
	corners := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	pts := make(plotter.XYs, len(corners))
	for i, c := range corners {
		pts[i].X, pts[i].Y = oblique(c[0], c[1], 0)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = color.Gray{Y: 120}
	line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	return line, nil
}

func hideTicks(p *plot.Plot) {
	none := plot.TickerFunc(func(_, _ float64) []plot.Tick { return nil })
	p.X.Tick.Marker = none
	p.Y.Tick.Marker = none
}
