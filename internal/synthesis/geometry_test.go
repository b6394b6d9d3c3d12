package synthesis

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================================
// Pagination
// ==========================================

func TestPaginate_PageCount(t *testing.T) {
	tests := []struct {
		name       string
		height     int
		pageHeight int
		want       int
	}{
		{"shorter than a page", 100, 2244, 1},
		{"exactly one page", 2244, 2244, 1},
		{"one row over", 2245, 2244, 2},
		{"two and a half pages", 5610, 2244, 3},
		{"empty raster", 0, 2244, 0},
		{"invalid page height", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Paginate(tt.height, tt.pageHeight), tt.want)
		})
	}
}

func TestPaginate_BandsTileWithoutGapsOrOverlap(t *testing.T) {
	for _, height := range []int{1, 999, 1000, 1001, 4321, 10000} {
		bands := Paginate(height, 1000)
		require.NotEmpty(t, bands)

		covered := 0
		for i, b := range bands {
			assert.Equal(t, i, b.Index)
			assert.Equal(t, i*1000, b.Top, "band %d starts one page height below the previous", i)
			assert.Equal(t, covered, b.Top)
			assert.LessOrEqual(t, b.Height(), 1000)
			assert.Positive(t, b.Height())
			covered = b.Bottom
		}
		assert.Equal(t, height, covered)
	}
}

func noiseRaster(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rand.New(rand.NewSource(7)).Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func TestPaginate_PagesReassembleRaster(t *testing.T) {
	tests := []struct {
		name   string
		g      Geometry
		width  int
		height int
		pages  int
	}{
		{"a4 two and a bit pages", A4Portrait, 400, 2*566 + 37, 3},
		{"a4 exact page", A4Portrait, 400, 566, 1},
		{"card single page", CardLandscape, 450, 300, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raster := noiseRaster(tt.width, tt.height)
			pages, err := paginate(raster, tt.g)
			require.NoError(t, err)
			require.Len(t, pages, tt.pages)

			pageH := tt.g.PageHeightPx(tt.width, tt.height)
			margin := int(tt.g.MarginMM * tt.g.pxPerMM(tt.width))
			white := color.RGBAModel.Convert(color.White)

			mismatches := 0
			for y := 0; y < tt.height; y++ {
				page := pages[y/pageH]
				for x := 0; x < tt.width; x++ {
					if page.RGBAAt(margin+x, margin+y%pageH) != raster.RGBAAt(x, y) {
						mismatches++
					}
				}
			}
			assert.Zero(t, mismatches)

			// rows past the end of the content on the last page stay white
			last := pages[len(pages)-1]
			for y := margin + tt.height - (len(pages)-1)*pageH; y < last.Bounds().Dy(); y++ {
				assert.Equal(t, white, last.At(margin, y), "row %d", y)
			}
			if margin > 0 {
				assert.Equal(t, white, pages[0].At(0, 0))
			}
		})
	}
}

func TestGeometry_PageHeightPx(t *testing.T) {
	// 297 * 1587 / 210
	assert.Equal(t, 2244, A4Portrait.PageHeightPx(1587, 5000))
	// card pages are sized to the content
	assert.Equal(t, 1234, CardLandscape.PageHeightPx(1587, 1234))
}

func TestGeometry_PageSizeMM(t *testing.T) {
	w, h := A4Portrait.PageSizeMM(1587, 9000)
	assert.Equal(t, 210.0, w)
	assert.Equal(t, 297.0, h)

	// 140mm of content at 1000px wide, 500px tall is 70mm plus two 5mm margins
	w, h = CardLandscape.PageSizeMM(1000, 500)
	assert.Equal(t, 150.0, w)
	assert.InDelta(t, 80.0, h, 0.001)
	assert.Greater(t, w, h)
}
