package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/bmd"
	"bmd-codec/internal/mathutil"
)

// BuildWorldMatrices computes the bind-pose world transform of every joint by
// composing local transforms up the Parent chain. Parents need not precede
// their children in the joint list.
func BuildWorldMatrices(joints []bmd.Joint) []mathutil.Mat4 {
	worlds := make([]mathutil.Mat4, len(joints))
	done := make([]bool, len(joints))

	var world func(i int) mathutil.Mat4
	world = func(i int) mathutil.Mat4 {
		if done[i] {
			return worlds[i]
		}
		done[i] = true // a cycle resolves to the local transform
		local := joints[i].LocalMatrix()
		worlds[i] = local
		if p := joints[i].Parent; p >= 0 && p < len(joints) && p != i {
			worlds[i] = mathutil.Mat4Mul(world(p), local)
		}
		return worlds[i]
	}
	for i := range joints {
		world(i)
	}
	return worlds
}

// SkinMatrices returns world × inverse-bind for every joint.
func SkinMatrices(joints []bmd.Joint) []mathutil.Mat4 {
	worlds := BuildWorldMatrices(joints)
	skin := make([]mathutil.Mat4, len(joints))
	for i := range joints {
		skin[i] = mathutil.Mat4Mul(worlds[i], mathutil.FromAffine(joints[i].InverseBind))
	}
	return skin
}

// SkinnedPositions poses every vertex of every shape with its resolved
// weight: p' = Σ w · world · invBind · p. The result has one slice per shape,
// holding vertices in packet, primitive, vertex order. Vertices without a
// weight or position keep their stored position.
func SkinnedPositions(m *bmd.Model) [][]mgl32.Vec3 {
	skin := SkinMatrices(m.Joints)

	// Skip the transform when every matrix is identity
	allIdentity := true
	for _, s := range skin {
		if !s.IsIdentity() {
			allIdentity = false
			break
		}
	}

	positions := m.Vertices.Positions
	out := make([][]mgl32.Vec3, len(m.Shapes))
	for si := range m.Shapes {
		for _, pk := range m.Shapes[si].Packets {
			for _, prim := range pk.Primitives {
				for _, v := range prim.Vertices {
					pi := v.Index[bmd.AttrPosition]
					if pi < 0 || pi >= len(positions) {
						out[si] = append(out[si], mgl32.Vec3{})
						continue
					}
					p := positions[pi]
					if allIdentity || len(v.Weight.Bones) == 0 {
						out[si] = append(out[si], p)
						continue
					}
					out[si] = append(out[si], blend(skin, v.Weight, p))
				}
			}
		}
	}
	return out
}

func blend(skin []mathutil.Mat4, w bmd.Weight, p mgl32.Vec3) mgl32.Vec3 {
	src := mathutil.FromVec3(p)
	var acc mathutil.Vec3
	for k, b := range w.Bones {
		if b < 0 || b >= len(skin) || k >= len(w.Weights) {
			continue
		}
		acc = acc.Add(skin[b].MulPoint(src).Scale(float64(w.Weights[k])))
	}
	return acc.Vec3()
}
