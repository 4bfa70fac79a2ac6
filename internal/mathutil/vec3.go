package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Vec3 is a double-precision 3-vector used while composing transforms.
type Vec3 [3]float64

// FromVec3 widens an mgl32 vector.
func FromVec3(v mgl32.Vec3) Vec3 {
	return Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// Vec3 narrows back to mgl32.
func (v Vec3) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}
