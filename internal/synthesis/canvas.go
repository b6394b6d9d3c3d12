// internal/synthesis/canvas.go
package synthesis

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strings"
	"unicode"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	colorInk    = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	colorMuted  = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	colorBrand  = color.RGBA{R: 0x00, G: 0x84, B: 0x3d, A: 0xff}
	colorTint   = color.RGBA{R: 0xe8, G: 0xf5, B: 0xef, A: 0xff}
	colorWhite  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorRule   = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	colorShadow = color.RGBA{R: 0x96, G: 0x96, B: 0x96, A: 0x26}
)

// LoadFont parses the TrueType/OpenType font at path. An empty path selects
// the bundled Go font, which has no Thai glyphs.
func LoadFont(path string) (*opentype.Font, error) {
	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

// canvas draws in millimetres onto a supersampled RGBA raster.
type canvas struct {
	img     *image.RGBA
	pxPerMM float64
	font    *opentype.Font
	faces   map[float64]font.Face
}

func newCanvas(widthMM, heightMM float64, scale int, f *opentype.Font) *canvas {
	pxPerMM := cssPxPerMM * float64(scale)
	w := int(math.Round(widthMM * pxPerMM))
	h := int(math.Round(heightMM * pxPerMM))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorWhite), image.Point{}, draw.Src)
	return &canvas{img: img, pxPerMM: pxPerMM, font: f, faces: map[float64]font.Face{}}
}

func (c *canvas) px(mm float64) int {
	return int(math.Round(mm * c.pxPerMM))
}

func (c *canvas) face(sizePt float64) font.Face {
	if f, ok := c.faces[sizePt]; ok {
		return f
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     c.pxPerMM * 25.4,
		Hinting: font.HintingFull,
	})
	if err != nil {
		f = nil
	}
	c.faces[sizePt] = f
	return f
}

func (c *canvas) close() {
	for _, f := range c.faces {
		if f != nil {
			f.Close()
		}
	}
}

// text draws s with its baseline at y.
func (c *canvas) text(x, y, sizePt float64, col color.Color, s string) {
	face := c.face(sizePt)
	if face == nil || s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(c.px(x), c.px(y)),
	}
	d.DrawString(s)
}

func (c *canvas) textCentered(cx, y, sizePt float64, col color.Color, s string) {
	c.text(cx-c.measure(sizePt, s)/2, y, sizePt, col, s)
}

// measure returns the advance width of s in millimetres.
func (c *canvas) measure(sizePt float64, s string) float64 {
	face := c.face(sizePt)
	if face == nil {
		return 0
	}
	adv := font.MeasureString(face, s)
	return float64(adv) / 64 / c.pxPerMM
}

// wrap breaks s into lines no wider than widthMM, preferring spaces and
// falling back to rune boundaries for unspaced Thai runs.
func (c *canvas) wrap(sizePt float64, s string, widthMM float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		var line []rune
		lastSpace := -1
		for _, r := range para {
			line = append(line, r)
			if unicode.IsSpace(r) {
				lastSpace = len(line) - 1
			}
			if c.measure(sizePt, string(line)) <= widthMM || len(line) == 1 {
				continue
			}
			cut := len(line) - 1
			if lastSpace > 0 {
				cut = lastSpace
			}
			for cut > 1 && unicode.Is(unicode.Mn, line[cut]) {
				cut--
			}
			lines = append(lines, strings.TrimSpace(string(line[:cut])))
			line = append([]rune{}, line[cut:]...)
			line = []rune(strings.TrimLeftFunc(string(line), unicode.IsSpace))
			lastSpace = -1
		}
		lines = append(lines, strings.TrimSpace(string(line)))
	}
	return lines
}

// paragraph draws wrapped text starting at baseline y and returns the
// baseline after the last line.
func (c *canvas) paragraph(x, y, widthMM, sizePt, lineMM float64, col color.Color, s string) float64 {
	for _, line := range c.wrap(sizePt, s, widthMM) {
		c.text(x, y, sizePt, col, line)
		y += lineMM
	}
	return y
}

func (c *canvas) fill(x, y, w, h float64, col color.Color) {
	r := image.Rect(c.px(x), c.px(y), c.px(x+w), c.px(y+h))
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *canvas) stroke(x, y, w, h, weight float64, col color.Color) {
	c.fill(x, y, w, weight, col)
	c.fill(x, y+h-weight, w, weight, col)
	c.fill(x, y, weight, h, col)
	c.fill(x+w-weight, y, weight, h, col)
}

func (c *canvas) dottedRule(x, y, w float64, col color.Color) {
	step := 1.0
	for dx := 0.0; dx < w; dx += step {
		c.fill(x+dx, y, step/2, 0.2, col)
	}
}

// picture draws src scaled to fit the box, centred, keeping its aspect ratio.
func (c *canvas) picture(x, y, w, h float64, src image.Image) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	scale := math.Min(w/float64(b.Dx()), h/float64(b.Dy()))
	dw, dh := float64(b.Dx())*scale, float64(b.Dy())*scale
	ox, oy := x+(w-dw)/2, y+(h-dh)/2
	dst := image.Rect(c.px(ox), c.px(oy), c.px(ox+dw), c.px(oy+dh))
	draw.CatmullRom.Scale(c.img, dst, src, b, draw.Over, nil)
}

// cover fills the box with src, cropping the overflow.
func (c *canvas) cover(x, y, w, h float64, src image.Image) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	boxAspect := w / h
	srcAspect := float64(b.Dx()) / float64(b.Dy())
	crop := b
	if srcAspect > boxAspect {
		cw := int(float64(b.Dy()) * boxAspect)
		crop.Min.X += (b.Dx() - cw) / 2
		crop.Max.X = crop.Min.X + cw
	} else {
		ch := int(float64(b.Dx()) / boxAspect)
		crop.Min.Y += (b.Dy() - ch) / 2
		crop.Max.Y = crop.Min.Y + ch
	}
	dst := image.Rect(c.px(x), c.px(y), c.px(x+w), c.px(y+h))
	draw.CatmullRom.Scale(c.img, dst, src, crop, draw.Over, nil)
}

// crop trims the raster to heightMM.
func (c *canvas) crop(heightMM float64) *image.RGBA {
	h := c.px(heightMM)
	if h >= c.img.Bounds().Dy() {
		return c.img
	}
	return c.img.SubImage(image.Rect(0, 0, c.img.Bounds().Dx(), h)).(*image.RGBA)
}
