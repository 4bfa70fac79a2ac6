package skeleton

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/bmd"
	"bmd-codec/internal/mathutil"
)

func chain() []bmd.Joint {
	one := mgl32.Vec3{1, 1, 1}
	// Children are listed before their parents.
	return []bmd.Joint{
		{Name: "hand", Scale: one, Translation: mgl32.Vec3{0, 0, 1}, Parent: 1, InverseBind: bmd.Identity3x4},
		{Name: "arm", Scale: one, Translation: mgl32.Vec3{2, 0, 0}, Rotation: mgl32.Vec3{0, 0, math.Pi / 2}, Parent: 2, InverseBind: bmd.Identity3x4},
		{Name: "root", Scale: one, Translation: mgl32.Vec3{0, 1, 0}, Parent: bmd.NoJoint, InverseBind: bmd.Identity3x4},
	}
}

func close3(a mathutil.Vec3, b mathutil.Vec3) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-5 {
			return false
		}
	}
	return true
}

func TestBuildWorldMatrices(t *testing.T) {
	worlds := BuildWorldMatrices(chain())
	tests := []struct {
		joint int
		want  mathutil.Vec3
	}{
		{2, mathutil.Vec3{0, 1, 0}},
		{1, mathutil.Vec3{2, 1, 0}},
		{0, mathutil.Vec3{2, 1, 1}},
	}
	for _, tt := range tests {
		if got := worlds[tt.joint].MulPoint(mathutil.Vec3{}); !close3(got, tt.want) {
			t.Errorf("joint %d origin = %v, want %v", tt.joint, got, tt.want)
		}
	}

	// The arm's quarter turn about Z maps the hand's local X onto world Y.
	if got := worlds[0].MulPoint(mathutil.Vec3{1, 0, 0}); !close3(got, mathutil.Vec3{2, 2, 1}) {
		t.Errorf("hand +X = %v", got)
	}
}

func TestBuildWorldMatricesCycle(t *testing.T) {
	joints := []bmd.Joint{
		{Scale: mgl32.Vec3{1, 1, 1}, Parent: 1},
		{Scale: mgl32.Vec3{1, 1, 1}, Parent: 0},
	}
	if got := BuildWorldMatrices(joints); len(got) != 2 {
		t.Fatalf("got %d matrices", len(got))
	}
}

func skinnedModel(weight bmd.Weight, joints []bmd.Joint) *bmd.Model {
	v := bmd.Vertex{Weight: weight}
	v.Index[bmd.AttrPosition] = 0
	return &bmd.Model{
		Vertices: &bmd.VertexData{Positions: []mgl32.Vec3{{1, 0, 0}}},
		Joints:   joints,
		Shapes: []bmd.Shape{{
			Packets: []bmd.Packet{{Primitives: []bmd.Primitive{{Type: bmd.PrimPoints, Vertices: []bmd.Vertex{v}}}}},
		}},
	}
}

func TestSkinnedPositions(t *testing.T) {
	joints := chain()
	tests := []struct {
		name   string
		weight bmd.Weight
		want   mgl32.Vec3
	}{
		{"unweighted keeps position", bmd.Weight{}, mgl32.Vec3{1, 0, 0}},
		{"rigid root", bmd.Rigid(2), mgl32.Vec3{1, 1, 0}},
		{"rigid arm", bmd.Rigid(1), mgl32.Vec3{2, 2, 0}},
		{"blend", bmd.Weight{Bones: []int{2, 1}, Weights: []float32{0.5, 0.5}}, mgl32.Vec3{1.5, 1.5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SkinnedPositions(skinnedModel(tt.weight, joints))
			if len(got) != 1 || len(got[0]) != 1 {
				t.Fatalf("got %v", got)
			}
			if !got[0][0].ApproxEqualThreshold(tt.want, 1e-5) {
				t.Errorf("position = %v, want %v", got[0][0], tt.want)
			}
		})
	}
}

func TestSkinnedPositionsInverseBind(t *testing.T) {
	joints := chain()
	// Undo the arm's bind pose so a vertex skinned to it stays put.
	bind := mgl32.Mat3x4{0, -1, 0, 1, 0, 0, 0, 0, 1, -1, 2, 0}
	joints[1].InverseBind = bind

	got := SkinnedPositions(skinnedModel(bmd.Rigid(1), joints))
	if !got[0][0].ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("position = %v, want unchanged", got[0][0])
	}
}
