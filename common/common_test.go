package common

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.LevelWarn, &buf)
	l.Info("quiet")
	l.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")

	assert.False(t, NopLogger().Enabled(context.Background(), slog.LevelError))
}

func TestKeyDigit(t *testing.T) {
	n, ok := Key7.Digit()
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	_, ok = KeyA.Digit()
	assert.False(t, ok)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
	assert.Equal(t, 1.0, Clamp(2.0, 0, 1))
	assert.Equal(t, uint64(256), AlignUp(200, 256))
	assert.Equal(t, uint64(4), AlignUp(4, 4))

	m := mgl32.Translate3D(1, 2, 3)
	buf := make([]byte, 64)
	PutMat4(buf, m)
	assert.Equal(t, m, Mat4From(buf))
}

func TestPerspectiveMapsDepthRange(t *testing.T) {
	p := Perspective(1, 1, 0.5, 10)
	near := p.Mul4x1(mgl32.Vec4{0, 0, -0.5, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -10, 1})
	assert.InDelta(t, 0, float64(near.Z()/near.W()), 1e-6)
	assert.InDelta(t, 1, float64(far.Z()/far.W()), 1e-6)
}

func TestDecodeImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := range 2 {
		for x := range 3 {
			src.Set(x, y, color.NRGBA{A: 255})
		}
	}
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})

	var pngBuf, bmpBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))
	require.NoError(t, bmp.Encode(&bmpBuf, src))

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "bmp": bmpBuf.Bytes()} {
		tex, err := DecodeImageBytes(data)
		require.NoError(t, err, name)
		assert.Equal(t, uint32(3), tex.Width, name)
		assert.Equal(t, uint32(2), tex.Height, name)
		assert.Len(t, tex.Pixels, 3*2*4, name)
		assert.Equal(t, []byte{255, 0, 0, 255}, tex.Pixels[:4], name)
		assert.InDelta(t, 1.5, float64(tex.Aspect()), 1e-6, name)
	}

	_, err := DecodeImageBytes([]byte("not an image"))
	assert.Error(t, err)
	_, err = DecodeImageFile("does-not-exist.png")
	assert.Error(t, err)
	assert.Equal(t, TextureStagingData{Pixels: []byte{1, 2, 3, 4}, Width: 1, Height: 1}, SolidTexture(1, 2, 3, 4))
}
