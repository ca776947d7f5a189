package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// Layouts are the bind group layouts shared by a scene's bind groups and the mesh pipeline that draws it.
type Layouts struct {
	Camera   *wgpu.BindGroupLayout
	Lights   *wgpu.BindGroupLayout
	Material *wgpu.BindGroupLayout
	Mesh     *wgpu.BindGroupLayout
}

// All returns the layouts in group order.
func (l *Layouts) All() []*wgpu.BindGroupLayout {
	return []*wgpu.BindGroupLayout{l.Camera, l.Lights, l.Material, l.Mesh}
}

// NewLayouts creates the four scene bind group layouts.
//
// Parameters:
//   - device: the wgpu device
//
// Returns:
//   - *Layouts: the layouts
//   - error: error if any layout cannot be created
func NewLayouts(device *wgpu.Device) (*Layouts, error) {
	specs := []struct {
		label   string
		entries []wgpu.BindGroupLayoutEntry
	}{
		{"Scene Camera Layout", []wgpu.BindGroupLayoutEntry{
			uniform.LayoutEntry(0, common.Mat4Size),
			uniform.LayoutEntry(1, common.Mat4Size),
		}},
		{"Scene Lights Layout", []wgpu.BindGroupLayoutEntry{
			uniform.LayoutEntry(0, GPULightSize*MaxLights),
			uniform.LayoutEntry(1, common.Mat4Size*MaxLights),
			uniform.LayoutEntry(2, 16),
		}},
		{"Scene Material Layout", []wgpu.BindGroupLayoutEntry{
			uniform.LayoutEntry(0, GPUMaterialSize),
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		}},
		{"Scene Mesh Layout", []wgpu.BindGroupLayoutEntry{
			uniform.LayoutEntry(0, common.Mat4Size),
		}},
	}

	out := make([]*wgpu.BindGroupLayout, len(specs))
	for i, s := range specs {
		layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: s.label, Entries: s.entries})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", s.label, err)
		}
		out[i] = layout
	}
	return &Layouts{Camera: out[0], Lights: out[1], Material: out[2], Mesh: out[3]}, nil
}

func bindGroup(device *wgpu.Device, label string, layout *wgpu.BindGroupLayout, entries ...wgpu.BindGroupEntry) *wgpu.BindGroup {
	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: label, Layout: layout, Entries: entries})
	if err != nil {
		panic(fmt.Sprintf("scene: failed to create bind group %s: %v", label, err))
	}
	return bg
}

// bind creates every bind group of the scene and uploads material textures. It is skipped for devices
// without a wgpu backing (test doubles).
func (s *scene) bind(device renderer.Device) {
	raw := device.Raw()
	if raw == nil {
		return
	}

	layouts, err := NewLayouts(raw)
	if err != nil {
		panic(fmt.Sprintf("scene: %v", err))
	}
	s.layouts = layouts

	s.camera.BindGroup = bindGroup(raw, s.label("camera"), layouts.Camera,
		s.camera.View.Entry(0), s.camera.Proj.Entry(1))
	s.lights.BindGroup = bindGroup(raw, s.label("lights"), layouts.Lights,
		s.lights.Descs.Entry(0), s.lights.Transforms.Entry(1), s.lights.Count.Entry(2))

	white := common.SolidTexture(255, 255, 255, 255)
	for i := range s.materials {
		m := &s.materials[i]
		pixels := m.Desc.Texture
		if pixels == nil {
			pixels = &white
		}
		tex, err := renderer.UploadTexture(raw, s.label("material texture "+m.Desc.Name), *pixels)
		if err != nil {
			panic(fmt.Sprintf("scene: material %d: %v", i, err))
		}
		samp, err := renderer.CreateSampler(raw, s.label("material sampler "+m.Desc.Name), m.Desc.Sampler)
		if err != nil {
			panic(fmt.Sprintf("scene: material %d: %v", i, err))
		}
		m.Texture = tex
		m.Sampler = samp
		m.BindGroup = bindGroup(raw, s.label("material "+m.Desc.Name), layouts.Material,
			m.Uniform.Entry(0),
			wgpu.BindGroupEntry{Binding: 1, TextureView: tex.View},
			wgpu.BindGroupEntry{Binding: 2, Sampler: samp},
		)
	}

	for i := range s.meshes {
		m := &s.meshes[i]
		m.BindGroup = bindGroup(raw, s.label("mesh "+m.Desc.Name), layouts.Mesh, m.Transform.Entry(0))
	}
}
