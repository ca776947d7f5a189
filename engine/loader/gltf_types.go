package loader

import "encoding/json"

// Accessor component types.
const (
	gltfByte          = 5120
	gltfUnsignedByte  = 5121
	gltfShort         = 5122
	gltfUnsignedShort = 5123
	gltfUnsignedInt   = 5125
	gltfFloat         = 5126
)

// Primitive modes. Only triangles are imported.
const (
	gltfModeTriangles = 4
)

// Sampler filters and wrap modes.
const (
	gltfFilterNearest              = 9728
	gltfFilterLinear               = 9729
	gltfFilterNearestMipmapNearest = 9984
	gltfFilterLinearMipmapNearest  = 9985
	gltfFilterNearestMipmapLinear  = 9986
	gltfFilterLinearMipmapLinear   = 9987

	gltfWrapClampToEdge    = 33071
	gltfWrapMirroredRepeat = 33648
	gltfWrapRepeat         = 10497
)

// GLB container framing.
const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"
	glbHeaderLen = 12
)

// gltfDocument is the subset of a glTF 2.0 document the scene importer reads.
type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       *int             `json:"scene,omitempty"`
	Scenes      []gltfScene      `json:"scenes,omitempty"`
	Nodes       []gltfNode       `json:"nodes,omitempty"`
	Meshes      []gltfMesh       `json:"meshes,omitempty"`
	Accessors   []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer     `json:"buffers,omitempty"`
	Materials   []gltfMaterial   `json:"materials,omitempty"`
	Textures    []gltfTexture    `json:"textures,omitempty"`
	Images      []gltfImage      `json:"images,omitempty"`
	Samplers    []gltfSampler    `json:"samplers,omitempty"`
	Animations  []gltfAnimation  `json:"animations,omitempty"`
	Cameras     []gltfCamera     `json:"cameras,omitempty"`
	Extensions  gltfDocExtension `json:"extensions,omitempty"`
}

type gltfAsset struct {
	Version string `json:"version"`
}

type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode carries either Matrix or the TRS triple. Missing TRS components default to identity.
type gltfNode struct {
	Name        string            `json:"name,omitempty"`
	Children    []int             `json:"children,omitempty"`
	Mesh        *int              `json:"mesh,omitempty"`
	Camera      *int              `json:"camera,omitempty"`
	Matrix      []float32         `json:"matrix,omitempty"`
	Translation []float32         `json:"translation,omitempty"`
	Rotation    []float32         `json:"rotation,omitempty"`
	Scale       []float32         `json:"scale,omitempty"`
	Extensions  gltfNodeExtension `json:"extensions,omitempty"`
}

type gltfNodeExtension struct {
	Light *struct {
		Light int `json:"light"`
	} `json:"KHR_lights_punctual,omitempty"`
}

type gltfDocExtension struct {
	Lights *struct {
		Lights []gltfLight `json:"lights"`
	} `json:"KHR_lights_punctual,omitempty"`
}

type gltfLight struct {
	Name      string    `json:"name,omitempty"`
	Type      string    `json:"type"`
	Color     []float32 `json:"color,omitempty"`
	Intensity *float32  `json:"intensity,omitempty"`
	Range     float32   `json:"range,omitempty"`
	Spot      *struct {
		InnerConeAngle float32  `json:"innerConeAngle"`
		OuterConeAngle *float32 `json:"outerConeAngle,omitempty"`
	} `json:"spot,omitempty"`
}

type gltfCamera struct {
	Type        string `json:"type"`
	Perspective *struct {
		AspectRatio float32 `json:"aspectRatio,omitempty"`
		Yfov        float32 `json:"yfov"`
		Znear       float32 `json:"znear"`
		Zfar        float32 `json:"zfar,omitempty"`
	} `json:"perspective,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	Mode       *int           `json:"mode,omitempty"`
}

type gltfAccessor struct {
	BufferView    *int   `json:"bufferView,omitempty"`
	ByteOffset    int    `json:"byteOffset,omitempty"`
	ComponentType int    `json:"componentType"`
	Normalized    bool   `json:"normalized,omitempty"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
	// Sparse is only detected so that it can be rejected.
	Sparse json.RawMessage `json:"sparse,omitempty"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset,omitempty"`
	ByteLength int `json:"byteLength"`
	ByteStride int `json:"byteStride,omitempty"`
}

type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`

	data []byte
}

type gltfMaterial struct {
	Name           string    `json:"name,omitempty"`
	PBR            *gltfPBR  `json:"pbrMetallicRoughness,omitempty"`
	EmissiveFactor []float32 `json:"emissiveFactor,omitempty"`
}

type gltfPBR struct {
	BaseColorFactor  []float32     `json:"baseColorFactor,omitempty"`
	BaseColorTexture *gltfTexIndex `json:"baseColorTexture,omitempty"`
	RoughnessFactor  *float32      `json:"roughnessFactor,omitempty"`
}

type gltfTexIndex struct {
	Index int `json:"index"`
}

type gltfTexture struct {
	Sampler *int `json:"sampler,omitempty"`
	Source  *int `json:"source,omitempty"`
}

type gltfImage struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

type gltfSampler struct {
	MagFilter *int `json:"magFilter,omitempty"`
	MinFilter *int `json:"minFilter,omitempty"`
	WrapS     *int `json:"wrapS,omitempty"`
	WrapT     *int `json:"wrapT,omitempty"`
}

type gltfAnimation struct {
	Name     string            `json:"name,omitempty"`
	Channels []gltfAnimChannel `json:"channels"`
	Samplers []gltfAnimSampler `json:"samplers"`
}

type gltfAnimChannel struct {
	Sampler int `json:"sampler"`
	Target  struct {
		Node *int   `json:"node,omitempty"`
		Path string `json:"path"`
	} `json:"target"`
}

// gltfAnimSampler maps keyframe times (Input) to values (Output). Interpolation defaults to LINEAR.
type gltfAnimSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}
