package pass

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	atlasWidth   = 512
	atlasPadding = 1
	firstGlyph   = ' '
	lastGlyph    = '~'
	fallback     = '?'
)

// Glyph is one rasterized character of a GlyphAtlas.
type Glyph struct {
	// Advance is the horizontal distance to the next glyph's origin, in pixels.
	Advance float32
	// Bounds is the glyph's ink rectangle relative to its origin on the baseline, y down.
	Bounds image.Rectangle
	// UVMin and UVMax locate the glyph in the atlas, in texture coordinates.
	UVMin, UVMax mgl32.Vec2
}

// Quad is a laid out glyph: a pixel-space rectangle (y down) and the atlas region it samples.
type Quad struct {
	Min, Max     mgl32.Vec2
	UVMin, UVMax mgl32.Vec2
}

// GlyphAtlas is a coverage texture holding the printable ASCII range of one font at one size.
type GlyphAtlas struct {
	Image      *image.Alpha
	Glyphs     map[rune]Glyph
	Ascent     float32
	LineHeight float32
}

// DefaultFont parses the embedded Go Regular font.
func DefaultFont() *opentype.Font {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("pass: failed to parse default font: %v", err))
	}
	return f
}

// NewGlyphAtlas rasterizes the printable ASCII range of f at size pixels into a single coverage image.
// Glyphs are packed in rows; the atlas height is rounded up to a power of two.
//
// Parameters:
//   - f: the font, usually DefaultFont or a font loaded from disk
//   - size: the font size in pixels
//
// Returns:
//   - *GlyphAtlas: the atlas
//   - error: error if the face cannot be created
func NewGlyphAtlas(f *opentype.Font, size float64) (*GlyphAtlas, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	a := &GlyphAtlas{
		Glyphs:     map[rune]Glyph{},
		Ascent:     float32(metrics.Ascent.Ceil()),
		LineHeight: float32(metrics.Height.Ceil()),
	}

	type cell struct {
		r      rune
		bounds image.Rectangle
		at     image.Point
	}
	var cells []cell
	x, y, rowHeight := atlasPadding, atlasPadding, 0
	for r := rune(firstGlyph); r <= lastGlyph; r++ {
		b, advance, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		bounds := image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
		a.Glyphs[r] = Glyph{Advance: float32(advance.Round()), Bounds: bounds}
		if bounds.Empty() {
			continue
		}
		if x+bounds.Dx()+atlasPadding > atlasWidth {
			x = atlasPadding
			y += rowHeight + atlasPadding
			rowHeight = 0
		}
		cells = append(cells, cell{r: r, bounds: bounds, at: image.Pt(x, y)})
		x += bounds.Dx() + atlasPadding
		rowHeight = max(rowHeight, bounds.Dy())
	}
	height := 1 << bits.Len(uint(y+rowHeight+atlasPadding-1))

	a.Image = image.NewAlpha(image.Rect(0, 0, atlasWidth, height))
	d := &font.Drawer{Dst: a.Image, Src: image.White, Face: face}
	for _, c := range cells {
		d.Dot = fixed.P(c.at.X-c.bounds.Min.X, c.at.Y-c.bounds.Min.Y)
		d.DrawString(string(c.r))

		g := a.Glyphs[c.r]
		g.UVMin = mgl32.Vec2{float32(c.at.X) / atlasWidth, float32(c.at.Y) / float32(height)}
		g.UVMax = mgl32.Vec2{float32(c.at.X+c.bounds.Dx()) / atlasWidth, float32(c.at.Y+c.bounds.Dy()) / float32(height)}
		a.Glyphs[c.r] = g
	}
	return a, nil
}

// Layout places text starting with the top-left of its first line at origin. Newlines start a new line;
// characters outside the atlas render as '?'.
//
// Parameters:
//   - text: the text to lay out
//   - origin: the top-left corner in pixels
//
// Returns:
//   - []Quad: one quad per visible glyph
func (a *GlyphAtlas) Layout(text string, origin mgl32.Vec2) []Quad {
	quads := make([]Quad, 0, len(text))
	penX, baseline := origin.X(), origin.Y()+a.Ascent
	for _, r := range text {
		if r == '\n' {
			penX = origin.X()
			baseline += a.LineHeight
			continue
		}
		g, ok := a.Glyphs[r]
		if !ok {
			g = a.Glyphs[fallback]
		}
		if !g.Bounds.Empty() {
			quads = append(quads, Quad{
				Min:   mgl32.Vec2{penX + float32(g.Bounds.Min.X), baseline + float32(g.Bounds.Min.Y)},
				Max:   mgl32.Vec2{penX + float32(g.Bounds.Max.X), baseline + float32(g.Bounds.Max.Y)},
				UVMin: g.UVMin,
				UVMax: g.UVMax,
			})
		}
		penX += g.Advance
	}
	return quads
}

// Staging expands the coverage image to white RGBA pixels with coverage in alpha.
func (a *GlyphAtlas) Staging() common.TextureStagingData {
	b := a.Image.Bounds()
	pixels := make([]byte, 0, len(a.Image.Pix)*4)
	for _, c := range a.Image.Pix {
		pixels = append(pixels, 255, 255, 255, c)
	}
	return common.TextureStagingData{Pixels: pixels, Width: uint32(b.Dx()), Height: uint32(b.Dy())}
}
