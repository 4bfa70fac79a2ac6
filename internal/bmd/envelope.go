package bmd

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/binio"
)

// Weight is an ordered list of (bone, weight) pairs. Weights are kept as
// stored and never renormalized.
type Weight struct {
	Bones   []int
	Weights []float32
}

// Rigid returns a single-bone weight of 1.
func Rigid(bone int) Weight {
	return Weight{Bones: []int{bone}, Weights: []float32{1}}
}

// Equal reports whether w and o hold the same pairs in the same order.
func (w Weight) Equal(o Weight) bool {
	if len(w.Bones) != len(o.Bones) || len(w.Weights) != len(o.Weights) {
		return false
	}
	for i := range w.Bones {
		if w.Bones[i] != o.Bones[i] {
			return false
		}
	}
	for i := range w.Weights {
		if w.Weights[i] != o.Weights[i] {
			return false
		}
	}
	return true
}

func (w Weight) clone() Weight {
	return Weight{
		Bones:   append([]int(nil), w.Bones...),
		Weights: append([]float32(nil), w.Weights...),
	}
}

// Envelopes is the decoded EVP1 section.
type Envelopes struct {
	Weights      []Weight
	InverseBinds []mgl32.Mat3x4
}

// Identity3x4 is the affine identity.
var Identity3x4 = mgl32.Mat3x4{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}

const matrix3x4Size = 48

func readMatrix3x4(r *binio.Reader) mgl32.Mat3x4 {
	var m mgl32.Mat3x4
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			m.Set(row, col, r.F32())
		}
	}
	return m
}

func writeMatrix3x4(w *binio.Writer, m mgl32.Mat3x4) {
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			w.F32(m.At(row, col))
		}
	}
}

func readEnvelopes(r *binio.Reader) (*Envelopes, error) {
	sec, err := binio.OpenSection(r, tagEVP1)
	if err != nil {
		return nil, err
	}
	count := int(r.U16())
	r.Skip(2)
	countsOff := int(r.U32())
	indexOff := int(r.U32())
	weightOff := int(r.U32())
	matrixOff := int(r.U32())

	e := &Envelopes{Weights: make([]Weight, count)}
	if count > 0 {
		r.Seek(sec.At(countsOff))
		sizes := make([]int, count)
		for i := range sizes {
			sizes[i] = int(r.U8())
		}
		idxPos, wPos := sec.At(indexOff), sec.At(weightOff)
		for i, n := range sizes {
			env := Weight{Bones: make([]int, n), Weights: make([]float32, n)}
			r.Seek(idxPos)
			for j := 0; j < n; j++ {
				env.Bones[j] = int(r.U16())
			}
			idxPos = r.Pos()
			r.Seek(wPos)
			for j := 0; j < n; j++ {
				env.Weights[j] = r.F32()
			}
			wPos = r.Pos()
			e.Weights[i] = env
		}
	}
	if matrixOff != 0 {
		n := (sec.Size - matrixOff) / matrix3x4Size
		r.Seek(sec.At(matrixOff))
		e.InverseBinds = make([]mgl32.Mat3x4, n)
		for i := range e.InverseBinds {
			e.InverseBinds[i] = readMatrix3x4(r)
		}
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("bmd: EVP1: %w", r.Err())
	}
	r.Seek(sec.End())
	return e, nil
}

// write emits EVP1. Inverse binds come from the joints, which own them after load.
func (e *Envelopes) write(joints []Joint) []byte {
	w := binio.NewSection(tagEVP1)
	w.U16(uint16(len(e.Weights)))
	w.U16(0xFFFF)
	countsAt := w.Placeholder32()
	indexAt := w.Placeholder32()
	weightAt := w.Placeholder32()
	matrixAt := w.Placeholder32()
	if len(e.Weights) == 0 {
		return w.Finish()
	}

	w.PatchU32(countsAt, uint32(w.Len()))
	for _, env := range e.Weights {
		w.U8(uint8(len(env.Bones)))
	}
	w.Align(2)
	w.PatchU32(indexAt, uint32(w.Len()))
	for _, env := range e.Weights {
		for _, b := range env.Bones {
			w.U16(uint16(b))
		}
	}
	w.Align(4)
	w.PatchU32(weightAt, uint32(w.Len()))
	for _, env := range e.Weights {
		for _, f := range env.Weights {
			w.F32(f)
		}
	}
	w.PatchU32(matrixAt, uint32(w.Len()))
	for i := range joints {
		writeMatrix3x4(w.Writer, joints[i].InverseBind)
	}
	return w.Finish()
}
