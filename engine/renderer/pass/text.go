package pass

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/shader"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/text.wgsl
var textSource string

const (
	// textVertexSize is position vec2 + uv vec2.
	textVertexSize = 16
	// DefaultTextCapacity is the number of glyphs a Text pass can draw per frame unless overridden.
	DefaultTextCapacity = 1024
)

var textVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: textVertexSize,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
	},
}

// Text draws a string with a glyph atlas. Quads are laid out on the CPU each frame and uploaded through the
// frame's staging pool. Text blends over the target, so it is usually encoded with EncodeLoad.
type Text struct {
	billboard
	mu *sync.Mutex

	atlas    *GlyphAtlas
	texture  *renderer.Texture
	style    *uniform.Uniform
	vertices renderer.Buffer
	groups   []*wgpu.BindGroup
	capacity int

	text          string
	origin        mgl32.Vec2
	color         mgl32.Vec4
	width, height float32
}

var _ Pass = &Text{}

// NewText creates a text pass drawing with atlas. At most capacity glyphs are drawn per frame; a
// non-positive capacity uses DefaultTextCapacity.
//
// Parameters:
//   - surface: the surface the pass renders for; its size maps pixels to clip space
//   - label: the debug label
//   - atlas: the glyph atlas
//   - capacity: the maximum glyph count per frame
//   - options: functional options for the clear color and logging
//
// Returns:
//   - *Text: the pass
func NewText(surface Surface, label string, atlas *GlyphAtlas, capacity int, options ...PassBuilderOption) *Text {
	cfg := newConfig(surface, options)
	device := surface.Device()
	raw := device.Raw()
	if raw == nil {
		panic(fmt.Sprintf("pass: %s needs a wgpu-backed device", label))
	}
	if capacity <= 0 {
		capacity = DefaultTextCapacity
	}

	blend := cfg.blend
	if blend == nil {
		blend = pipeline.AlphaBlend
	}
	pl := pipeline.New(raw, label, shader.Must("text", textSource),
		pipeline.WithFormat(surface.Format()),
		pipeline.WithBlendState(blend),
		pipeline.WithVertexLayouts(textVertexLayout))

	t := &Text{
		billboard: billboard{label: label, pipeline: pl, clear: cfg.clear, logger: cfg.logger},
		mu:        &sync.Mutex{},
		atlas:     atlas,
		capacity:  capacity,
		color:     mgl32.Vec4{1, 1, 1, 1},
		width:     float32(surface.Width()),
		height:    float32(surface.Height()),
	}

	var err error
	t.vertices, err = device.CreateBuffer(label+" vertices", wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, uint64(capacity*6*textVertexSize))
	if err != nil {
		panic(fmt.Sprintf("pass: failed to create vertex buffer for %s: %v", label, err))
	}
	t.style = uniform.NewFor(device, label+" style", uniform.Vec4{})

	t.texture, err = renderer.UploadTexture(raw, label+" atlas", atlas.Staging())
	if err != nil {
		panic(fmt.Sprintf("pass: %v", err))
	}
	sampler, err := renderer.CreateSampler(raw, label+" sampler", cfg.sampler)
	if err != nil {
		panic(fmt.Sprintf("pass: %v", err))
	}
	bg, err := raw.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " bind group",
		Layout: pl.Layout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: t.texture.View},
			{Binding: 1, Sampler: sampler},
			t.style.Entry(2),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("pass: failed to create bind group for %s: %v", label, err))
	}
	t.groups = []*wgpu.BindGroup{bg}
	return t
}

// SetText replaces the drawn string.
func (t *Text) SetText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = text
}

// SetOrigin moves the top-left of the first line, in pixels from the target's top-left.
func (t *Text) SetOrigin(origin mgl32.Vec2) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.origin = origin
}

// SetColor sets the text color. Alpha scales the glyph coverage.
func (t *Text) SetColor(color mgl32.Vec4) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.color = color
}

// Resize changes the pixel size used to map layout coordinates to clip space.
func (t *Text) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.width, t.height = float32(width), float32(height)
}

func (t *Text) Encode(f *frame.Frame, target *wgpu.TextureView) {
	t.encode(f, target, wgpu.LoadOpClear)
}

func (t *Text) EncodeLoad(f *frame.Frame, target *wgpu.TextureView) {
	t.encode(f, target, wgpu.LoadOpLoad)
}

func (t *Text) encode(f *frame.Frame, target *wgpu.TextureView, load wgpu.LoadOp) {
	t.mu.Lock()
	quads := t.atlas.Layout(t.text, t.origin)
	color := t.color
	width, height := t.width, t.height
	t.mu.Unlock()

	if len(quads) > t.capacity {
		t.logger.Warn("text truncated", slog.String("pass", t.label), slog.Int("glyphs", len(quads)), slog.Int("capacity", t.capacity))
		quads = quads[:t.capacity]
	}

	// Uploads are copies and must be recorded before the render pass opens.
	if len(quads) > 0 {
		f.WriteBuffer(t.vertices, 0, textVertices(quads, width, height))
		f.WriteUniform(t.style, uniform.Vec4(color))
	}

	rp := t.begin(f, target, load, nil)
	if len(quads) > 0 {
		rp.SetBindGroup(0, t.groups[0])
		rp.SetVertexBuffer(0, t.vertices)
		rp.Draw(uint32(len(quads)*6), 1)
	}
	rp.End()
}

// Release frees the atlas texture, pipeline and buffers.
func (t *Text) Release() {
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
	if t.pipeline != nil {
		t.pipeline.Release()
	}
}

// textVertices converts pixel-space quads into two clip-space triangles each.
func textVertices(quads []Quad, width, height float32) []byte {
	buf := make([]byte, len(quads)*6*textVertexSize)
	off := 0
	put := func(px, py, u, v float32) {
		for _, x := range [4]float32{px/width*2 - 1, 1 - py/height*2, u, v} {
			common.PutFloat32(buf[off:], x)
			off += 4
		}
	}
	for _, q := range quads {
		put(q.Min.X(), q.Min.Y(), q.UVMin.X(), q.UVMin.Y())
		put(q.Max.X(), q.Min.Y(), q.UVMax.X(), q.UVMin.Y())
		put(q.Min.X(), q.Max.Y(), q.UVMin.X(), q.UVMax.Y())
		put(q.Min.X(), q.Max.Y(), q.UVMin.X(), q.UVMax.Y())
		put(q.Max.X(), q.Min.Y(), q.UVMax.X(), q.UVMin.Y())
		put(q.Max.X(), q.Max.Y(), q.UVMax.X(), q.UVMax.Y())
	}
	return buf
}
