package scene

import (
	_ "embed"
	"math"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraSource declares the camera bindings of group 0: view and projection matrices.
//
//go:embed assets/camera.wgsl
var CameraSource string

// LightsSource declares the Light struct and the light bindings of group 1.
// Matches GPULight and GPULightCount.
//
//go:embed assets/lights.wgsl
var LightsSource string

// MaterialSource declares the Material struct and the material bindings of group 2.
// Matches GPUMaterial.
//
//go:embed assets/material.wgsl
var MaterialSource string

// MeshSource declares the per-mesh model matrix binding of group 3.
//
//go:embed assets/mesh.wgsl
var MeshSource string

// Bind group indices used by the mesh pipeline.
const (
	GroupCamera   = 0
	GroupLights   = 1
	GroupMaterial = 2
	GroupMesh     = 3
)

// GPULight is the GPU-aligned representation of one LightDesc.
// Size: 32 bytes.
type GPULight struct {
	Color     mgl32.Vec3 // offset  0
	Intensity float32    // offset 12
	Kind      uint32     // offset 16: 0 = directional, 1 = point, 2 = spot
	Range     float32    // offset 20
	InnerCos  float32    // offset 24: cos(inner half-angle)
	OuterCos  float32    // offset 28: cos(outer half-angle)
}

// GPULightSize is the byte size of GPULight.
const GPULightSize = 32

// NewGPULight converts a light description into its GPU layout.
func NewGPULight(l LightDesc) GPULight {
	return GPULight{
		Color:     l.Color,
		Intensity: l.Intensity,
		Kind:      uint32(l.Kind),
		Range:     l.Range,
		InnerCos:  cos32(l.InnerCone),
		OuterCos:  cos32(l.OuterCone),
	}
}

func (g GPULight) Size() int { return GPULightSize }

func (g GPULight) MarshalTo(buf []byte) {
	for i := range 3 {
		common.PutFloat32(buf[i*4:], g.Color[i])
	}
	common.PutFloat32(buf[12:], g.Intensity)
	common.PutUint32(buf[16:], g.Kind)
	common.PutFloat32(buf[20:], g.Range)
	common.PutFloat32(buf[24:], g.InnerCos)
	common.PutFloat32(buf[28:], g.OuterCos)
}

// GPULightCount holds the number of active lights, padded to a vec4<u32>.
type GPULightCount uint32

func (c GPULightCount) Size() int { return 16 }

func (c GPULightCount) MarshalTo(buf []byte) {
	common.PutUint32(buf[0:], uint32(c))
	common.PutUint32(buf[4:], 0)
	common.PutUint32(buf[8:], 0)
	common.PutUint32(buf[12:], 0)
}

// GPUMaterial is the GPU-aligned representation of a MaterialDesc.
// Size: 32 bytes.
type GPUMaterial struct {
	Color     mgl32.Vec4 // offset  0
	Emissive  mgl32.Vec3 // offset 16
	Shininess float32    // offset 28
}

// GPUMaterialSize is the byte size of GPUMaterial.
const GPUMaterialSize = 32

// NewGPUMaterial converts a material description into its GPU layout. A zero color becomes opaque white.
func NewGPUMaterial(m MaterialDesc) GPUMaterial {
	return GPUMaterial{
		Color:     common.Coalesce(m.Color, mgl32.Vec4{1, 1, 1, 1}),
		Emissive:  m.Emissive,
		Shininess: common.Coalesce(m.Shininess, 32),
	}
}

func (g GPUMaterial) Size() int { return GPUMaterialSize }

func (g GPUMaterial) MarshalTo(buf []byte) {
	common.PutVec4(buf[0:], g.Color)
	for i := range 3 {
		common.PutFloat32(buf[16+i*4:], g.Emissive[i])
	}
	common.PutFloat32(buf[28:], g.Shininess)
}

// MarshalVertices packs vertices into the 32-byte VertexStride layout.
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for i, v := range vertices {
		off := i * VertexStride
		for k := range 3 {
			common.PutFloat32(buf[off+k*4:], v.Position[k])
			common.PutFloat32(buf[off+12+k*4:], v.Normal[k])
		}
		common.PutFloat32(buf[off+24:], v.UV[0])
		common.PutFloat32(buf[off+28:], v.UV[1])
	}
	return buf
}

// MarshalIndices packs indices as little-endian uint32.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		common.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func cos32(a float32) float32 {
	return float32(math.Cos(float64(a)))
}

var _ uniform.Value = GPULight{}
var _ uniform.Value = GPULightCount(0)
var _ uniform.Value = GPUMaterial{}
