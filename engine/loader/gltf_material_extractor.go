package loader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Shininess range that glTF roughness 1..0 maps onto.
const (
	minShininess = 2
	maxShininess = 128
)

// gltfMaterialExtractorImpl is the implementation of gltfMaterialExtractor.
type gltfMaterialExtractorImpl struct {
	parser   gltfParser
	pool     worker.DynamicWorkerPool
	progress ProgressFunc
}

// gltfMaterialExtractor converts glTF materials into phong materials. Base color textures are decoded in
// parallel on a worker pool.
type gltfMaterialExtractor interface {
	// Extract converts every material in the document, in document order.
	//
	// Returns:
	//   - []scene.MaterialDesc: one material per glTF material
	//   - error: the joined decode errors, if any
	Extract() ([]scene.MaterialDesc, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

func newGLTFMaterialExtractor(parser gltfParser, pool worker.DynamicWorkerPool, progress ProgressFunc) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{parser: parser, pool: pool, progress: progress}
}

func (e *gltfMaterialExtractorImpl) Extract() ([]scene.MaterialDesc, error) {
	doc := e.parser.Document()
	out := make([]scene.MaterialDesc, len(doc.Materials))

	// image index -> materials using it
	users := map[int][]int{}
	var order []int
	for i, m := range doc.Materials {
		out[i] = convertMaterial(i, m)
		if m.PBR == nil || m.PBR.BaseColorTexture == nil {
			continue
		}
		tex := m.PBR.BaseColorTexture.Index
		if tex < 0 || tex >= len(doc.Textures) || doc.Textures[tex].Source == nil {
			continue
		}
		if s := doc.Textures[tex].Sampler; s != nil && *s >= 0 && *s < len(doc.Samplers) {
			out[i].Sampler = gltfSamplerToStagingData(doc.Samplers[*s])
		}
		src := *doc.Textures[tex].Source
		if _, seen := users[src]; !seen {
			order = append(order, src)
		}
		users[src] = append(users[src], i)
	}

	decoded, err := e.decodeImages(order)
	for k, src := range order {
		if decoded[k] == nil {
			continue
		}
		for _, m := range users[src] {
			out[m].Texture = decoded[k]
		}
	}
	return out, err
}

// decodeImages decodes images concurrently. A failed image leaves a nil entry and contributes to the
// joined error.
func (e *gltfMaterialExtractorImpl) decodeImages(images []int) ([]*common.TextureStagingData, error) {
	out := make([]*common.TextureStagingData, len(images))
	errs := make([]error, len(images))
	if len(images) == 0 {
		return out, nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for k, src := range images {
		wg.Add(1)
		e.pool.SubmitTask(worker.Task{
			ID: k,
			Do: func() (any, error) {
				defer wg.Done()
				tex, err := e.decodeImage(src)
				if err != nil {
					errs[k] = err
				} else {
					out[k] = &tex
				}

				mu.Lock()
				done++
				if e.progress != nil {
					e.progress(done, len(images))
				}
				mu.Unlock()
				return nil, err
			},
		})
	}
	wg.Wait()
	return out, errors.Join(errs...)
}

func (e *gltfMaterialExtractorImpl) decodeImage(src int) (common.TextureStagingData, error) {
	data, err := e.parser.ReadImage(src)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	tex, err := common.DecodeImageBytes(data)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("image %d: %w", src, err)
	}
	return tex, nil
}

func convertMaterial(i int, m gltfMaterial) scene.MaterialDesc {
	out := scene.MaterialDesc{
		Name:      m.Name,
		Color:     mgl32.Vec4{1, 1, 1, 1},
		Shininess: minShininess,
		Sampler:   gltfSamplerToStagingData(gltfSampler{}),
	}
	if out.Name == "" {
		out.Name = fmt.Sprintf("material_%d", i)
	}
	if len(m.EmissiveFactor) == 3 {
		out.Emissive = mgl32.Vec3{m.EmissiveFactor[0], m.EmissiveFactor[1], m.EmissiveFactor[2]}
	}
	if m.PBR == nil {
		return out
	}
	if f := m.PBR.BaseColorFactor; len(f) == 4 {
		out.Color = mgl32.Vec4{f[0], f[1], f[2], f[3]}
	}
	roughness := float32(1)
	if m.PBR.RoughnessFactor != nil {
		roughness = common.Clamp(*m.PBR.RoughnessFactor, 0, 1)
	}
	out.Shininess = minShininess + (1-roughness)*(maxShininess-minShininess)
	return out
}

// defaultMaterial is used by primitives without a material: opaque white.
func defaultMaterial() scene.MaterialDesc {
	return scene.MaterialDesc{
		Name:      "default",
		Color:     mgl32.Vec4{1, 1, 1, 1},
		Shininess: 32,
	}
}

// gltfSamplerToStagingData maps a glTF sampler onto sampler settings. Unset fields use the glTF defaults
// of linear filtering and repeat wrapping.
func gltfSamplerToStagingData(s gltfSampler) common.SamplerStagingData {
	out := common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		AddressModeW: wgpu.AddressModeRepeat,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeLinear,
	}
	if s.MagFilter != nil && *s.MagFilter == gltfFilterNearest {
		out.MagFilter = wgpu.FilterModeNearest
	}
	if s.MinFilter != nil {
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterNearestMipmapNearest, gltfFilterNearestMipmapLinear:
			out.MinFilter = wgpu.FilterModeNearest
		}
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterLinear, gltfFilterNearestMipmapNearest, gltfFilterLinearMipmapNearest:
			out.MipmapFilter = wgpu.MipmapFilterModeNearest
		}
	}
	if s.WrapS != nil {
		out.AddressModeU = gltfWrapToAddressMode(*s.WrapS)
	}
	if s.WrapT != nil {
		out.AddressModeV = gltfWrapToAddressMode(*s.WrapT)
	}
	return out
}

func gltfWrapToAddressMode(wrap int) wgpu.AddressMode {
	switch wrap {
	case gltfWrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltfWrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
