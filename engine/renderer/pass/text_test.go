package pass

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/gputest"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAtlas(t *testing.T) *GlyphAtlas {
	t.Helper()
	a, err := NewGlyphAtlas(DefaultFont(), 24)
	require.NoError(t, err)
	return a
}

func floatAt(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
}

func TestGlyphAtlasCoversPrintableASCII(t *testing.T) {
	a := testAtlas(t)

	for r := rune(firstGlyph); r <= lastGlyph; r++ {
		_, ok := a.Glyphs[r]
		assert.True(t, ok, "missing %q", r)
	}
	assert.Equal(t, atlasWidth, a.Image.Bounds().Dx())
	h := a.Image.Bounds().Dy()
	assert.Equal(t, 0, h&(h-1), "height %d is not a power of two", h)
	assert.Greater(t, a.LineHeight, float32(0))
	assert.Greater(t, a.Ascent, float32(0))

	space := a.Glyphs[' ']
	assert.True(t, space.Bounds.Empty())
	assert.Greater(t, space.Advance, float32(0))

	g := a.Glyphs['W']
	assert.Less(t, g.UVMin.X(), g.UVMax.X())
	assert.Less(t, g.UVMin.Y(), g.UVMax.Y())

	// The glyph's cell holds ink.
	var ink bool
	for y := int(g.UVMin.Y() * float32(h)); y < int(g.UVMax.Y()*float32(h)); y++ {
		for x := int(g.UVMin.X() * atlasWidth); x < int(g.UVMax.X()*atlasWidth); x++ {
			if a.Image.AlphaAt(x, y).A > 0 {
				ink = true
			}
		}
	}
	assert.True(t, ink)

	staged := a.Staging()
	assert.Equal(t, uint32(atlasWidth), staged.Width)
	assert.Len(t, staged.Pixels, atlasWidth*h*4)
}

func TestLayout(t *testing.T) {
	a := testAtlas(t)
	origin := mgl32.Vec2{10, 20}

	quads := a.Layout("A B", origin)
	require.Len(t, quads, 2, "spaces produce no quad")
	assert.InDelta(t, origin.X()+float32(a.Glyphs['A'].Bounds.Min.X), quads[0].Min.X(), 1e-4)
	assert.InDelta(t, origin.Y()+a.Ascent+float32(a.Glyphs['A'].Bounds.Min.Y), quads[0].Min.Y(), 1e-4)
	wantX := origin.X() + a.Glyphs['A'].Advance + a.Glyphs[' '].Advance + float32(a.Glyphs['B'].Bounds.Min.X)
	assert.InDelta(t, wantX, quads[1].Min.X(), 1e-4)

	lines := a.Layout("A\nA", origin)
	require.Len(t, lines, 2)
	assert.InDelta(t, lines[0].Min.X(), lines[1].Min.X(), 1e-4)
	assert.InDelta(t, a.LineHeight, lines[1].Min.Y()-lines[0].Min.Y(), 1e-4)

	missing := a.Layout("é", origin)
	require.Len(t, missing, 1)
	assert.Equal(t, a.Glyphs['?'].UVMin, missing[0].UVMin)

	assert.Empty(t, a.Layout("", origin))
}

func TestTextVerticesMapPixelsToClipSpace(t *testing.T) {
	q := Quad{
		Min:   mgl32.Vec2{0, 0},
		Max:   mgl32.Vec2{100, 50},
		UVMin: mgl32.Vec2{0.25, 0.5},
		UVMax: mgl32.Vec2{0.5, 0.75},
	}
	buf := textVertices([]Quad{q}, 200, 100)
	require.Len(t, buf, 6*textVertexSize)

	// First vertex: top-left of the target.
	assert.Equal(t, []float32{-1, 1, 0.25, 0.5}, []float32{floatAt(buf, 0), floatAt(buf, 1), floatAt(buf, 2), floatAt(buf, 3)})
	// Last vertex: the quad's bottom-right is the center of the target.
	last := 5 * 4
	assert.Equal(t, []float32{0, 0, 0.5, 0.75}, []float32{floatAt(buf, last), floatAt(buf, last+1), floatAt(buf, last+2), floatAt(buf, last+3)})
}

func newTestText(t *testing.T, dev *gputest.Device, capacity int) *Text {
	t.Helper()
	vb, err := dev.CreateBuffer("text vertices", wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, uint64(capacity*6*textVertexSize))
	require.NoError(t, err)
	return &Text{
		billboard: billboard{label: "text", logger: common.NopLogger()},
		mu:        &sync.Mutex{},
		atlas:     testAtlas(t),
		style:     uniform.NewFor(dev, "text style", uniform.Vec4{}),
		vertices:  vb,
		groups:    []*wgpu.BindGroup{{}},
		capacity:  capacity,
		color:     mgl32.Vec4{1, 1, 1, 1},
		width:     640,
		height:    360,
	}
}

func TestTextUploadsBeforeDrawing(t *testing.T) {
	dev, f := newFrame()
	txt := newTestText(t, dev, 16)
	txt.SetText("hi")
	txt.SetColor(mgl32.Vec4{1, 0, 0, 0.5})

	txt.EncodeLoad(f, &wgpu.TextureView{})
	f.Submit()

	commands := dev.Encoders()[0].Commands
	require.NotEmpty(t, commands)
	_, lastIsPass := commands[len(commands)-1].(*gputest.Pass)
	assert.True(t, lastIsPass)
	for _, c := range commands[:len(commands)-1] {
		_, isCopy := c.(*gputest.Copy)
		assert.True(t, isCopy)
	}

	rp := passes(t, dev)[0]
	assert.Equal(t, []wgpu.LoadOp{wgpu.LoadOpLoad}, rp.LoadOps)
	require.Len(t, rp.Draws, 1)
	assert.Equal(t, uint32(12), rp.Draws[0].Count)

	want := textVertices(txt.atlas.Layout("hi", mgl32.Vec2{}), 640, 360)
	assert.Equal(t, want, txt.vertices.(*gputest.Buffer).Bytes()[:len(want)])

	style := txt.style.Buffer().(*gputest.Buffer).Bytes()
	assert.Equal(t, float32(0.5), floatAt(style, 3))
}

func TestTextTruncatesAndSkipsEmpty(t *testing.T) {
	dev, f := newFrame()
	txt := newTestText(t, dev, 3)

	txt.Encode(f, &wgpu.TextureView{})
	txt.SetText("abcdef")
	txt.Encode(f, &wgpu.TextureView{})
	f.Submit()

	recorded := passes(t, dev)
	require.Len(t, recorded, 2)
	assert.Empty(t, recorded[0].Draws, "empty text still clears but draws nothing")
	require.Len(t, recorded[1].Draws, 1)
	assert.Equal(t, uint32(18), recorded[1].Draws[0].Count)
}

func TestImagePlacementUpload(t *testing.T) {
	dev, f := newFrame()
	img := &Image{
		billboard: billboard{label: "logo"},
		mu:        &sync.Mutex{},
		uniform:   uniform.NewFor(dev, "logo placement", Placement{}),
		groups:    []*wgpu.BindGroup{{}},
		placement: Placement{Opacity: 1},
	}
	img.SetRect(mgl32.Vec2{-0.5, -0.25}, mgl32.Vec2{0.5, 0.25})
	img.SetOpacity(2)

	img.Encode(f, &wgpu.TextureView{})
	f.Submit()

	b := img.uniform.Buffer().(*gputest.Buffer).Bytes()
	assert.Equal(t, []float32{-0.5, -0.25, 0.5, 0.25, 1}, []float32{floatAt(b, 0), floatAt(b, 1), floatAt(b, 2), floatAt(b, 3), floatAt(b, 4)})

	rp := passes(t, dev)[0]
	require.Len(t, rp.Draws, 1)
	assert.Equal(t, uint32(6), rp.Draws[0].Count)
}
