// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxTextureDimension is the largest edge length DecodeImage will hand to the GPU. Larger images are
// scaled down to fit, preserving aspect ratio. This matches the WebGPU default maxTextureDimension2D.
const MaxTextureDimension = 8192

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Aspect returns width / height, or 1 for an empty texture.
func (t TextureStagingData) Aspect() float32 {
	if t.Height == 0 {
		return 1
	}
	return float32(t.Width) / float32(t.Height)
}

// SolidTexture returns a 1x1 texture of the given RGBA color. Used as the fallback binding for
// materials without a texture.
func SolidTexture(r, g, b, a uint8) TextureStagingData {
	return TextureStagingData{Pixels: []byte{r, g, b, a}, Width: 1, Height: 1}
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero fields fall back to linear filtering with clamp-to-edge addressing.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
}

// DecodeImage decodes an encoded image (PNG, JPEG, BMP, TIFF or WebP) into tightly packed RGBA pixels.
// Images with an edge longer than MaxTextureDimension are resampled down to fit.
//
// Parameters:
//   - r: the reader providing the encoded image bytes
//
// Returns:
//   - TextureStagingData: the decoded RGBA pixels and dimensions
//   - error: error if the image format is unknown or decoding fails
func DecodeImage(r io.Reader) (TextureStagingData, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return TextureStagingData{}, fmt.Errorf("decoded %s image is empty", format)
	}

	dst := image.Rect(0, 0, width, height)
	if longest := max(width, height); longest > MaxTextureDimension {
		scale := float64(MaxTextureDimension) / float64(longest)
		dst = image.Rect(0, 0, max(1, int(float64(width)*scale)), max(1, int(float64(height)*scale)))
	}

	rgba := image.NewRGBA(dst)
	if dst.Dx() == width && dst.Dy() == height {
		draw.Draw(rgba, dst, img, bounds.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, dst, img, bounds, draw.Src, nil)
	}

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(dst.Dx()),
		Height: uint32(dst.Dy()),
	}, nil
}

// DecodeImageBytes decodes an in-memory encoded image. See DecodeImage.
func DecodeImageBytes(data []byte) (TextureStagingData, error) {
	return DecodeImage(bytes.NewReader(data))
}

// DecodeImageFile opens and decodes the image at path. See DecodeImage.
func DecodeImageFile(path string) (TextureStagingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer file.Close()

	tex, err := DecodeImage(file)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("%s: %w", path, err)
	}
	return tex, nil
}
