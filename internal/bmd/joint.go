package bmd

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/binio"
	"bmd-codec/internal/mathutil"
)

// NoJoint is the Parent of a root joint.
const NoJoint = -1

// Joint is one entry of the logical (flat) skeleton.
// Parent and Children are indices into Model.Joints.
type Joint struct {
	Name        string
	Flags       uint16
	IgnoreScale uint8
	Scale       mgl32.Vec3
	Rotation    mgl32.Vec3 // radians
	Translation mgl32.Vec3
	Radius      float32
	BoundsMin   mgl32.Vec3
	BoundsMax   mgl32.Vec3
	InverseBind mgl32.Mat3x4
	Parent      int
	Children    []int
}

// LocalMatrix returns the joint's local transform as scale, then
// rotation (X, Y, Z), then translation.
func (j *Joint) LocalMatrix() mathutil.Mat4 {
	rot := mathutil.EulerZYX(float64(j.Rotation[0]), float64(j.Rotation[1]), float64(j.Rotation[2]))
	rs := mathutil.Mat3Mul(rot, mathutil.Mat3Diag(float64(j.Scale[0]), float64(j.Scale[1]), float64(j.Scale[2])))
	return mathutil.FromMat3Translation(rs, mathutil.FromVec3(j.Translation))
}

// jointRecord is the physical 0x40-byte record; identical records are
// stored once and shared through the remap table.
type jointRecord struct {
	flags       uint16
	ignoreScale uint8
	scale       mgl32.Vec3
	rot         [3]int16
	trans       mgl32.Vec3
	radius      float32
	min, max    mgl32.Vec3
}

func readVec3(r *binio.Reader) mgl32.Vec3 {
	return mgl32.Vec3{r.F32(), r.F32(), r.F32()}
}

func writeVec3(w *binio.Writer, v mgl32.Vec3) {
	w.F32(v[0])
	w.F32(v[1])
	w.F32(v[2])
}

func readJointRecord(r *binio.Reader) jointRecord {
	var j jointRecord
	j.flags = r.U16()
	j.ignoreScale = r.U8()
	r.Skip(1)
	j.scale = readVec3(r)
	j.rot = [3]int16{r.S16(), r.S16(), r.S16()}
	r.Skip(2)
	j.trans = readVec3(r)
	j.radius = r.F32()
	j.min = readVec3(r)
	j.max = readVec3(r)
	return j
}

func (j jointRecord) write(w *binio.Writer) {
	w.U16(j.flags)
	w.U8(j.ignoreScale)
	w.U8(0xFF)
	writeVec3(w, j.scale)
	for _, a := range j.rot {
		w.S16(a)
	}
	w.U16(0xFFFF)
	writeVec3(w, j.trans)
	w.F32(j.radius)
	writeVec3(w, j.min)
	writeVec3(w, j.max)
}

func (j jointRecord) joint(name string) Joint {
	return Joint{
		Name:        name,
		Flags:       j.flags,
		IgnoreScale: j.ignoreScale,
		Scale:       j.scale,
		Rotation: mgl32.Vec3{
			float32(mathutil.AngleFromS16(j.rot[0])),
			float32(mathutil.AngleFromS16(j.rot[1])),
			float32(mathutil.AngleFromS16(j.rot[2])),
		},
		Translation: j.trans,
		Radius:      j.radius,
		BoundsMin:   j.min,
		BoundsMax:   j.max,
		InverseBind: Identity3x4,
		Parent:      NoJoint,
	}
}

func recordOf(j *Joint) jointRecord {
	return jointRecord{
		flags:       j.Flags,
		ignoreScale: j.IgnoreScale,
		scale:       j.Scale,
		rot: [3]int16{
			mathutil.AngleToS16(float64(j.Rotation[0])),
			mathutil.AngleToS16(float64(j.Rotation[1])),
			mathutil.AngleToS16(float64(j.Rotation[2])),
		},
		trans:  j.Translation,
		radius: j.Radius,
		min:    j.BoundsMin,
		max:    j.BoundsMax,
	}
}

func readJoints(r *binio.Reader) ([]Joint, error) {
	sec, err := binio.OpenSection(r, tagJNT1)
	if err != nil {
		return nil, err
	}
	count := int(r.U16())
	r.Skip(2)
	dataOff := int(r.U32())
	remapOff := int(r.U32())
	nameOff := int(r.U32())

	names := binio.ReadNameTable(r, sec.At(nameOff))

	r.Seek(sec.At(remapOff))
	remap := make([]int, count)
	physical := 0
	for i := range remap {
		remap[i] = int(r.U16())
		if remap[i]+1 > physical {
			physical = remap[i] + 1
		}
	}

	r.Seek(sec.At(dataOff))
	records := make([]jointRecord, physical)
	for i := range records {
		records[i] = readJointRecord(r)
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("bmd: JNT1: %w", r.Err())
	}

	joints := make([]Joint, count)
	for i, p := range remap {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		joints[i] = records[p].joint(name)
	}
	r.Seek(sec.End())
	return joints, nil
}

func writeJoints(joints []Joint) []byte {
	w := binio.NewSection(tagJNT1)
	w.U16(uint16(len(joints)))
	w.U16(0xFFFF)
	dataAt := w.Placeholder32()
	remapAt := w.Placeholder32()
	nameAt := w.Placeholder32()

	var unique []jointRecord
	remap := make([]int, len(joints))
	names := make([]string, len(joints))
	for i := range joints {
		rec := recordOf(&joints[i])
		remap[i] = findOrAdd(&unique, rec)
		names[i] = joints[i].Name
	}

	w.PatchU32(dataAt, uint32(w.Len()))
	for _, rec := range unique {
		rec.write(w.Writer)
	}
	w.PatchU32(remapAt, uint32(w.Len()))
	for _, p := range remap {
		w.U16(uint16(p))
	}
	w.Align(4)
	w.PatchU32(nameAt, uint32(w.Len()))
	binio.WriteNameTable(w.Writer, names)
	return w.Finish()
}

// linkBoneFamilies assigns Parent/Children by walking the scene graph.
// The Nth joint node met depth-first is joint N; its parent is the joint
// that encloses it. Node indices are only cross-checked.
func linkBoneFamilies(g *SceneGraph, joints []Joint) {
	for i := range joints {
		joints[i].Parent = NoJoint
		joints[i].Children = nil
	}
	if g == nil || len(g.Nodes) == 0 {
		return
	}
	count := 0
	var visit func(h, parent int)
	visit = func(h, parent int) {
		n := &g.Nodes[h]
		if n.Kind == NodeJoint {
			idx := count
			count++
			if idx >= len(joints) {
				Logger.Printf("joint node %d: only %d joints, not linked", idx, len(joints))
				return
			}
			if n.Index != idx {
				Logger.Printf("joint node %d carries index %d", idx, n.Index)
			}
			if parent != NoJoint {
				joints[idx].Parent = parent
				joints[parent].Children = append(joints[parent].Children, idx)
			}
			parent = idx
		}
		for _, c := range n.Children {
			visit(c, parent)
		}
	}
	visit(g.Root, NoJoint)
}
