package pass

import (
	_ "embed"
	"fmt"
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

//go:embed assets/image.wgsl
var imageSource string

// Placement positions an image in clip space. It matches the Placement struct in image.wgsl.
type Placement struct {
	Min, Max mgl32.Vec2
	Opacity  float32
}

var _ uniform.Value = Placement{}

func (p Placement) Size() int { return 32 }

func (p Placement) MarshalTo(buf []byte) {
	for i, f := range [5]float32{p.Min.X(), p.Min.Y(), p.Max.X(), p.Max.Y(), p.Opacity} {
		common.PutFloat32(buf[i*4:], f)
	}
	clear(buf[20:32])
}

// FitRect returns the largest clip-space rectangle with the image's aspect ratio that fits a target of
// the given aspect ratio, centered.
//
// Parameters:
//   - image: the image width / height
//   - target: the target width / height
//
// Returns:
//   - mgl32.Vec2: the bottom-left corner
//   - mgl32.Vec2: the top-right corner
func FitRect(image, target float32) (mgl32.Vec2, mgl32.Vec2) {
	if image <= 0 || target <= 0 {
		return mgl32.Vec2{-1, -1}, mgl32.Vec2{1, 1}
	}
	w, h := float32(1), float32(1)
	if image > target {
		h = target / image
	} else {
		w = image / target
	}
	return mgl32.Vec2{-w, -h}, mgl32.Vec2{w, h}
}

// Image draws a texture into a rectangle of the target, letterboxed to its aspect ratio by default.
type Image struct {
	billboard
	mu *sync.Mutex

	texture   *renderer.Texture
	uniform   *uniform.Uniform
	groups    []*wgpu.BindGroup
	placement Placement
}

var _ Pass = &Image{}

// NewImage uploads img and creates a pass drawing it with alpha blending.
//
// Parameters:
//   - surface: the surface the pass renders for
//   - label: the debug label
//   - img: the decoded image
//   - options: functional options for the clear color, blending and sampler
//
// Returns:
//   - *Image: the pass
func NewImage(surface Surface, label string, img common.TextureStagingData, options ...PassBuilderOption) *Image {
	cfg := newConfig(surface, options)
	device := surface.Device()
	raw := device.Raw()
	if raw == nil {
		panic(fmt.Sprintf("pass: %s needs a wgpu-backed device", label))
	}

	blend := cfg.blend
	if blend == nil {
		blend = pipeline.AlphaBlend
	}
	pl := pipeline.New(raw, label, shader.Must("image", imageSource),
		pipeline.WithFormat(surface.Format()),
		pipeline.WithBlendState(blend))

	lo, hi := FitRect(img.Aspect(), float32(surface.Width())/float32(max(surface.Height(), 1)))
	p := &Image{
		billboard: billboard{label: label, pipeline: pl, clear: cfg.clear, logger: cfg.logger},
		mu:        &sync.Mutex{},
		uniform:   uniform.NewFor(device, label+" placement", Placement{}),
		placement: Placement{Min: lo, Max: hi, Opacity: 1},
	}

	var err error
	p.texture, err = renderer.UploadTexture(raw, label+" texture", img)
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
			{Binding: 0, TextureView: p.texture.View},
			{Binding: 1, Sampler: sampler},
			p.uniform.Entry(2),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("pass: failed to create bind group for %s: %v", label, err))
	}
	p.groups = []*wgpu.BindGroup{bg}
	return p
}

// SetRect places the image at a clip-space rectangle.
func (p *Image) SetRect(min, max mgl32.Vec2) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placement.Min, p.placement.Max = min, max
}

// SetOpacity scales the image's alpha.
func (p *Image) SetOpacity(opacity float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placement.Opacity = mgl32.Clamp(opacity, 0, 1)
}

func (p *Image) Encode(f *frame.Frame, target *wgpu.TextureView) {
	p.encode(f, target, wgpu.LoadOpClear)
}

func (p *Image) EncodeLoad(f *frame.Frame, target *wgpu.TextureView) {
	p.encode(f, target, wgpu.LoadOpLoad)
}

func (p *Image) encode(f *frame.Frame, target *wgpu.TextureView, load wgpu.LoadOp) {
	p.mu.Lock()
	placement := p.placement
	p.mu.Unlock()

	f.WriteUniform(p.uniform, placement)
	rp := p.begin(f, target, load, nil)
	for g, bg := range p.groups {
		rp.SetBindGroup(uint32(g), bg)
	}
	rp.Draw(6, 1)
	rp.End()
}

// Release frees the texture and pipeline.
func (p *Image) Release() {
	if p.texture != nil {
		p.texture.Release()
		p.texture = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
}
