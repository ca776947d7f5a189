package scene

import "github.com/go-gl/mathgl/mgl32"

// Transform is a node's local translation, rotation and scale. It composes to T * R * S.
type Transform struct {
	Translate mgl32.Vec3
	Rotate    mgl32.Quat
	Scale     mgl32.Vec3
}

// Identity returns the transform with zero translation, unit rotation and unit scale.
func Identity() Transform {
	return Transform{
		Rotate: mgl32.QuatIdent(),
		Scale:  mgl32.Vec3{1, 1, 1},
	}
}

// Matrix composes the transform into a column-major 4x4 matrix as T * R * S.
//
// Returns:
//   - mgl32.Mat4: the local matrix
func (t Transform) Matrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Translate.X(), t.Translate.Y(), t.Translate.Z())
	rotate := t.Rotate.Normalize().Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translate.Mul4(rotate).Mul4(scale)
}

// Decompose recovers the translation, rotation and scale of an affine matrix built from positive scales
// and a rotation. Matrices with shear decompose to the nearest rotation.
//
// Parameters:
//   - m: the matrix to decompose
//
// Returns:
//   - Transform: the transform such that Matrix() reproduces m up to floating-point error
func Decompose(m mgl32.Mat4) Transform {
	translate := m.Col(3).Vec3()

	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	scale := mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}

	// A negative determinant means one axis is mirrored; fold it into the x scale.
	if mgl32.Mat3FromCols(c0, c1, c2).Det() < 0 {
		scale[0] = -scale[0]
	}

	var rot mgl32.Mat4
	for i, col := range []mgl32.Vec3{c0, c1, c2} {
		if scale[i] != 0 {
			col = col.Mul(1 / scale[i])
		}
		rot.SetCol(i, col.Vec4(0))
	}
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})

	return Transform{
		Translate: translate,
		Rotate:    mgl32.Mat4ToQuat(rot).Normalize(),
		Scale:     scale,
	}
}
