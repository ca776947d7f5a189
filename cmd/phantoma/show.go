package main

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/animator"
	"github.com/Carmen-Shannon/phantoma/engine/config"
	"github.com/Carmen-Shannon/phantoma/engine/loader"
	"github.com/Carmen-Shannon/phantoma/engine/midi"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/compose"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pass"
	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"github.com/Carmen-Shannon/phantoma/engine/sketch"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// show renders a lit scene, the configured glTF file or a spinning cube, through the effect stage with an
// optional image overlay.
type show struct {
	cfg config.Config
	ld  loader.Loader

	scene    scene.Scene
	animator animator.Animator
	chain    *compose.Chain
	fx       *compose.Fx
	overlay  *pass.Image

	edge    float32
	playing bool
}

var _ sketch.Stage = &show{}

func newShow(cfg config.Config, ld loader.Loader) *show {
	return &show{cfg: cfg, ld: ld}
}

func (s *show) Name() string { return "scene" }

func (s *show) Init(ctx *sketch.Context) {
	desc := cubeDesc()
	if s.cfg.Scene != "" {
		d, err := s.ld.Load(s.cfg.Asset(s.cfg.Scene))
		if err != nil {
			panic(fmt.Sprintf("phantoma: failed to load scene: %v", err))
		}
		desc = d
	}
	s.scene = scene.New(ctx.Surface.Device(), desc, scene.WithLogger(ctx.Logger))
	if desc.Camera == nil {
		s.scene.SetProjection(common.Perspective(scene.DefaultFovY, ctx.Aspect(), scene.DefaultNear, scene.DefaultFar))
	}

	s.animator = animator.NewAnimator(desc.Animations, animator.WithLogger(ctx.Logger))
	s.play(ctx.T)

	phong := pass.NewPhong(ctx.Surface, "scene", s.scene, pass.WithClearColor(wgpu.Color{R: 0.02, G: 0.02, B: 0.04, A: 1}))
	s.fx = compose.NewFx(ctx.Surface, "scene fx")
	s.chain = compose.NewChain(phong, s.fx)

	if s.cfg.Overlay != "" {
		img := loader.ReadImage(s.cfg.Asset(s.cfg.Overlay))
		s.overlay = pass.NewImage(ctx.Surface, "overlay", img)
		s.overlay.SetRect(mgl32.Vec2{0.55, -0.95}, mgl32.Vec2{0.95, -0.55})
		s.overlay.SetOpacity(0.8)
	}
	ctx.Logger.Info("scene ready",
		slog.String("scene", s.scene.Name()),
		slog.Int("meshes", len(desc.Meshes)),
		slog.Any("animations", s.animator.Names()))
}

func (s *show) play(t float32) {
	for _, name := range s.animator.Names() {
		s.animator.Play(t, true, name)
	}
	s.playing = true
}

func (s *show) Input(ctx *sketch.Context, in sketch.Input) {
	switch in.Kind {
	case sketch.KeyDown:
		if in.Key != common.KeyP {
			return
		}
		if s.playing {
			for _, name := range s.animator.Names() {
				s.animator.Stop(name)
			}
			s.playing = false
			return
		}
		s.play(ctx.T)
	case sketch.Controller:
		if in.MIDI.Kind != midi.Button && in.MIDI.Control == ctrlGlitch {
			s.edge = in.MIDI.Value
		}
	}
}

func (s *show) Update(ctx *sketch.Context) {
	s.animator.Update(ctx.T, s.scene.Graph())

	var rms float32
	if ctx.Audio != nil {
		rms = ctx.Audio.RMS()
	}
	s.fx.Set(compose.FxParams{
		Time:      ctx.T,
		Shake:     rms * 0.01,
		Edge:      s.edge,
		Posterize: 0,
		Vignette:  0.6,
	})
}

func (s *show) View(_ *sketch.Context, f *frame.Frame, target *wgpu.TextureView) {
	s.scene.Update(f)
	s.chain.Encode(f, target)
	if s.overlay != nil {
		s.overlay.EncodeLoad(f, target)
	}
}

// cubeDesc is the built-in scene: a cube spinning once per four seconds, lit by one point light.
func cubeDesc() *scene.Desc {
	d := scene.NewDesc("cube")
	root := d.Graph.Root()

	cube, _ := d.AddNode(root, scene.Node{Name: "cube", Transform: scene.Identity()})
	key := scene.Identity()
	key.Translate = mgl32.Vec3{2, 3, 4}
	light, _ := d.AddNode(root, scene.Node{Name: "key", Transform: key})
	eye := scene.Identity()
	eye.Translate = mgl32.Vec3{0, 1, 4}
	eye.Rotate = mgl32.QuatRotate(-0.25, mgl32.Vec3{1, 0, 0})
	camera, _ := d.AddNode(root, scene.Node{Name: "eye", Transform: eye})

	d.Materials = []scene.MaterialDesc{{
		Name:      "magenta",
		Color:     mgl32.Vec4{0.9, 0.1, 0.7, 1},
		Emissive:  mgl32.Vec3{0.05, 0, 0.05},
		Shininess: 48,
	}}
	vertices, indices := cubeGeometry()
	d.Meshes = []scene.MeshDesc{{Name: "cube", Vertices: vertices, Indices: indices, Material: 0, Node: cube}}
	d.Lights = []scene.LightDesc{{Name: "key", Kind: scene.LightPoint, Color: mgl32.Vec3{1, 1, 1}, Intensity: 2, Range: 20, Node: light}}
	d.Camera = &scene.CameraDesc{Projection: scene.DefaultProjection(), Node: camera}

	const seconds = 4
	spin := make(scene.RotateChannel, loader.Frames(seconds))
	for i := range spin {
		angle := 2 * math.Pi * float64(i) / float64(len(spin)-1)
		spin[i] = mgl32.QuatRotate(float32(angle), mgl32.Vec3{0, 1, 0})
	}
	d.Animations = []scene.Animation{scene.NewAnimation("spin", scene.Track{Channel: spin, Node: cube})}
	return d
}

// cubeGeometry returns a unit cube with flat normals: four vertices and two triangles per face.
func cubeGeometry() ([]scene.Vertex, []uint32) {
	faces := []struct{ normal, u, v mgl32.Vec3 }{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	corners := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	vertices := make([]scene.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, c := range corners {
			pos := f.normal.Mul(0.5).Add(f.u.Mul(c.X() - 0.5)).Add(f.v.Mul(c.Y() - 0.5))
			vertices = append(vertices, scene.Vertex{Position: pos, Normal: f.normal, UV: mgl32.Vec2{c.X(), 1 - c.Y()}})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}
