package domain

// MapPoint is one cell of a derived field keyed by its grid position.
type MapPoint struct {
	Lat   float64
	Lon   float64
	Value float64
}

// Colormap names, matching the perceptual palettes the renderer supports.
const (
	ColormapPlasma  = "plasma"
	ColormapViridis = "viridis"
	ColormapMagma   = "magma"
)

// MapLayer describes a scalar field to draw over the lon/lat grid.
type MapLayer struct {
	Title    string
	Label    string // colour bar label
	Colormap string
	Lon      []float64
	Lat      []float64
	Values   []float64
}

// Points zips the layer into grid-keyed points.
func (m MapLayer) Points() []MapPoint {
	n := min(len(m.Lat), len(m.Lon), len(m.Values))
	out := make([]MapPoint, n)
	for i := range n {
		out[i] = MapPoint{Lat: m.Lat[i], Lon: m.Lon[i], Value: m.Values[i]}
	}
	return out
}

// Surface is an elevation field coloured by a second field, drawn as an
// oblique projection.
type Surface struct {
	Title      string
	Lon        []float64
	Lat        []float64
	Elevation  []float64
	Color      []float64
	ColorLabel string
	ZLabel     string
}
