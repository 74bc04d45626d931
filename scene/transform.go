package scene

import "github.com/go-gl/mathgl/mgl32"

// Transform places a node relative to its parent. The zero value is treated
// as the identity.
type Transform struct {
	Matrix mgl32.Mat4
}

func Identity() Transform {
	return Transform{Matrix: mgl32.Ident4()}
}

func FromXYZ(x, y, z float32) Transform {
	return Transform{Matrix: mgl32.Translate3D(x, y, z)}
}

func FromTranslation(v mgl32.Vec3) Transform {
	return FromXYZ(v.X(), v.Y(), v.Z())
}

func (t Transform) mat() mgl32.Mat4 {
	if t.Matrix == (mgl32.Mat4{}) {
		return mgl32.Ident4()
	}
	return t.Matrix
}

// Mul returns t followed by o, so that o is expressed in t's space.
func (t Transform) Mul(o Transform) Transform {
	return Transform{Matrix: t.mat().Mul4(o.mat())}
}

func (t Transform) Translation() mgl32.Vec3 {
	return t.mat().Col(3).Vec3()
}

// Apply maps a point from the local space of t into its parent space.
func (t Transform) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, t.mat())
}
