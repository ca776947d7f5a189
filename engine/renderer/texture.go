package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the depth attachment format used by mesh passes.
const DepthFormat = wgpu.TextureFormatDepth24Plus

// Texture pairs a GPU texture with its default view.
type Texture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32
	Format  wgpu.TextureFormat
}

// Release destroys the view and the texture.
func (t *Texture) Release() {
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

func createTexture(device *wgpu.Device, label string, width, height uint32, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*Texture, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create view for texture %q: %w", label, err)
	}

	return &Texture{Texture: tex, View: view, Width: width, Height: height, Format: format}, nil
}

// CreateRenderTarget creates a texture that one pass renders into and a later pass samples from.
//
// Parameters:
//   - device: the wgpu device
//   - label: the debug label
//   - width: width in pixels
//   - height: height in pixels
//   - format: the color format, matching the pipelines that render into it
//
// Returns:
//   - *Texture: the render target
//   - error: error if creation fails
func CreateRenderTarget(device *wgpu.Device, label string, width, height uint32, format wgpu.TextureFormat) (*Texture, error) {
	return createTexture(device, label, width, height, format,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
}

// CreateDepthTarget creates a depth attachment of DepthFormat.
func CreateDepthTarget(device *wgpu.Device, label string, width, height uint32) (*Texture, error) {
	return createTexture(device, label, width, height, DepthFormat, wgpu.TextureUsageRenderAttachment)
}

// UploadTexture creates an sRGB texture from decoded RGBA pixels and writes the pixels through the device queue.
//
// Parameters:
//   - device: the wgpu device
//   - label: the debug label
//   - stagingData: the decoded pixels and dimensions
//
// Returns:
//   - *Texture: the sampled texture
//   - error: error if creation fails or the pixel data is short
func UploadTexture(device *wgpu.Device, label string, stagingData common.TextureStagingData) (*Texture, error) {
	if want := int(stagingData.Width) * int(stagingData.Height) * 4; len(stagingData.Pixels) < want || want == 0 {
		return nil, fmt.Errorf("texture %q: have %d pixel bytes, need %d", label, len(stagingData.Pixels), want)
	}

	tex, err := createTexture(device, label, stagingData.Width, stagingData.Height,
		wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return nil, err
	}

	device.GetQueue().WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex.Texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.Width * 4,
			RowsPerImage: stagingData.Height,
		},
		&wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
	)

	return tex, nil
}

// CreateSampler creates a sampler, filling unset fields with linear filtering and clamp-to-edge addressing.
//
// Parameters:
//   - device: the wgpu device
//   - label: the debug label
//   - samplerStagingData: the sampler configuration
//
// Returns:
//   - *wgpu.Sampler: the sampler
//   - error: error if creation fails
func CreateSampler(device *wgpu.Device, label string, samplerStagingData common.SamplerStagingData) (*wgpu.Sampler, error) {
	samp, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   0.0,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler %q: %w", label, err)
	}
	return samp, nil
}
