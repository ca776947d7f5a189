package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestIdentityMatrix(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), Identity().Matrix())
}

func TestMatrixAppliesScaleThenRotationThenTranslation(t *testing.T) {
	tr := Transform{
		Translate: mgl32.Vec3{1, 2, 3},
		Rotate:    mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 0, 1}),
		Scale:     mgl32.Vec3{2, 2, 2},
	}

	// (1,0,0) scaled to (2,0,0), rotated to (0,2,0), translated to (1,4,3).
	p := tr.Matrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assertNear(t, mgl32.Vec4{1, 4, 3, 1}, p, 1e-5, "got %v", p)
}

func TestDecomposeRoundTrip(t *testing.T) {
	cases := []Transform{
		Identity(),
		{
			Translate: mgl32.Vec3{-3, 0.5, 7},
			Rotate:    mgl32.QuatRotate(0.7, mgl32.Vec3{1, 1, 0}.Normalize()),
			Scale:     mgl32.Vec3{1, 2, 3},
		},
		{
			Translate: mgl32.Vec3{0, 0, -1},
			Rotate:    mgl32.QuatRotate(2.5, mgl32.Vec3{0, 1, 0}),
			Scale:     mgl32.Vec3{0.5, 0.5, 0.5},
		},
	}

	for _, want := range cases {
		got := Decompose(want.Matrix())
		assertNear(t, want.Translate, got.Translate, 1e-4, "translate %v != %v", got.Translate, want.Translate)
		assertNear(t, want.Scale, got.Scale, 1e-4, "scale %v != %v", got.Scale, want.Scale)
		// q and -q are the same rotation.
		dot := got.Rotate.Normalize().Dot(want.Rotate.Normalize())
		assert.InDelta(t, 1, math.Abs(float64(dot)), 1e-4)
		assertNear(t, want.Matrix(), got.Matrix(), 1e-4)
	}
}

func TestDecomposeMirroredAxis(t *testing.T) {
	m := mgl32.Scale3D(-2, 1, 1)
	got := Decompose(m)
	assert.InDelta(t, -2, got.Scale.X(), 1e-5)
	assertNear(t, m, got.Matrix(), 1e-5)
}

// assertNear compares vectors, quaternions and matrices component by component within an absolute delta.
func assertNear(t *testing.T, want, got any, delta float64, msgAndArgs ...any) bool {
	t.Helper()
	return assert.InDeltaSlice(t, components(want), components(got), delta, msgAndArgs...)
}

func components(v any) []float32 {
	switch v := v.(type) {
	case mgl32.Vec3:
		return v[:]
	case mgl32.Vec4:
		return v[:]
	case mgl32.Mat4:
		return v[:]
	case mgl32.Quat:
		return []float32{v.W, v.V[0], v.V[1], v.V[2]}
	}
	panic("components: unsupported type")
}
