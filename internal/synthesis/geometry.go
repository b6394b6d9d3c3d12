// internal/synthesis/geometry.go
package synthesis

import "math"

// cssPxPerMM is the layout resolution before supersampling (96 dpi).
const cssPxPerMM = 96 / 25.4

// Geometry is a target page shape. A zero PageHeightMM sizes the single page
// to the content.
type Geometry struct {
	Name         string
	PageWidthMM  float64
	PageHeightMM float64
	MarginMM     float64
	Scale        int
}

var (
	A4Portrait    = Geometry{Name: "a4-portrait", PageWidthMM: 210, PageHeightMM: 297, Scale: 2}
	CardLandscape = Geometry{Name: "card-landscape", PageWidthMM: 150, MarginMM: 5, Scale: 3}
)

func (g Geometry) ContentWidthMM() float64 {
	return g.PageWidthMM - 2*g.MarginMM
}

// pxPerMM is the raster resolution for a raster of the given width.
func (g Geometry) pxPerMM(rasterWidth int) float64 {
	return float64(rasterWidth) / g.ContentWidthMM()
}

// PageHeightPx is the number of raster rows one page holds.
func (g Geometry) PageHeightPx(rasterWidth, rasterHeight int) int {
	if g.PageHeightMM <= 0 {
		return rasterHeight
	}
	return int(math.Round((g.PageHeightMM - 2*g.MarginMM) * g.pxPerMM(rasterWidth)))
}

// PageSizeMM returns the physical page size for a raster.
func (g Geometry) PageSizeMM(rasterWidth, rasterHeight int) (float64, float64) {
	if g.PageHeightMM > 0 {
		return g.PageWidthMM, g.PageHeightMM
	}
	return g.PageWidthMM, float64(rasterHeight)/g.pxPerMM(rasterWidth) + 2*g.MarginMM
}

// Band is one page worth of raster rows, [Top, Bottom).
type Band struct {
	Index  int
	Top    int
	Bottom int
}

func (b Band) Height() int { return b.Bottom - b.Top }

// Paginate tiles height rows into ceil(height/pageHeight) bands, each shifted
// one page height below the previous one.
func Paginate(height, pageHeight int) []Band {
	if height <= 0 || pageHeight <= 0 {
		return nil
	}
	n := (height + pageHeight - 1) / pageHeight
	bands := make([]Band, 0, n)
	for i := 0; i < n; i++ {
		top := i * pageHeight
		bottom := top + pageHeight
		if bottom > height {
			bottom = height
		}
		bands = append(bands, Band{Index: i, Top: top, Bottom: bottom})
	}
	return bands
}
