package bmd

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/binio"
)

// AttrCount bounds the attribute ids a vertex can carry an index for.
const AttrCount = int(AttrNBT) + 1

// AttrInput is one entry of a shape's vertex descriptor.
type AttrInput struct {
	Attr  Attr
	Input InputType
}

// Vertex holds one index per active attribute. Weight is filled in after
// load from the skinning tables; it is never stored in the file.
type Vertex struct {
	Index  [AttrCount]int
	Weight Weight
}

type Primitive struct {
	Type     PrimitiveType
	Vertices []Vertex
}

// Packet is a run of primitives sharing one matrix sub-table.
// MatrixIndices point into the draw-matrix table; RepeatMatrix means the
// value of the same slot in the previous packet.
type Packet struct {
	MatrixID      uint16
	MatrixIndices []uint16
	Primitives    []Primitive
}

type Shape struct {
	MatrixType uint8
	Radius     float32
	BoundsMin  mgl32.Vec3
	BoundsMax  mgl32.Vec3
	Desc       []AttrInput
	Packets    []Packet
}

// Has reports whether the shape's descriptor includes attr.
func (s *Shape) Has(attr Attr) bool {
	for _, a := range s.Desc {
		if a.Attr == attr && a.Input != InputNone {
			return true
		}
	}
	return false
}

// MatrixIndex resolves slot of packet p to a draw-matrix index, following
// RepeatMatrix back through earlier packets. It reports false when no real
// value exists.
func (s *Shape) MatrixIndex(p, slot int) (int, bool) {
	for ; p >= 0; p-- {
		mi := s.Packets[p].MatrixIndices
		if slot >= len(mi) || mi[slot] == RepeatMatrix {
			continue
		}
		return int(mi[slot]), true
	}
	return 0, false
}

const shapeRecordSize = 0x28

func readShapes(r *binio.Reader) ([]Shape, error) {
	sec, err := binio.OpenSection(r, tagSHP1)
	if err != nil {
		return nil, err
	}
	count := int(r.U16())
	r.Skip(2)
	shapeOff := int(r.U32())
	remapOff := int(r.U32())
	r.Skip(4) // name table, unused
	attrOff := int(r.U32())
	mtxTableOff := int(r.U32())
	primOff := int(r.U32())
	mtxDataOff := int(r.U32())
	pktLocOff := int(r.U32())

	r.Seek(sec.At(remapOff))
	remap := make([]int, count)
	physical := 0
	for i := range remap {
		remap[i] = int(r.U16())
		physical = max(physical, remap[i]+1)
	}

	records := make([]Shape, physical)
	for i := range records {
		r.Seek(sec.At(shapeOff + shapeRecordSize*i))
		s := &records[i]
		s.MatrixType = r.U8()
		r.Skip(1)
		packetCount := int(r.U16())
		descOff := int(r.U16())
		firstMtx := int(r.U16())
		firstPkt := int(r.U16())
		r.Skip(2)
		s.Radius = r.F32()
		s.BoundsMin = readVec3(r)
		s.BoundsMax = readVec3(r)

		r.Seek(sec.At(attrOff + descOff))
		for {
			a := AttrInput{Attr: Attr(r.U32()), Input: InputType(r.U32())}
			if a.Attr == AttrNull || r.Err() != nil {
				break
			}
			s.Desc = append(s.Desc, a)
		}

		s.Packets = make([]Packet, packetCount)
		for k := range s.Packets {
			pk := &s.Packets[k]
			r.Seek(sec.At(mtxDataOff + 8*(firstMtx+k)))
			pk.MatrixID = r.U16()
			n := int(r.U16())
			first := int(r.U32())
			r.Seek(sec.At(mtxTableOff + 2*first))
			pk.MatrixIndices = make([]uint16, n)
			for j := range pk.MatrixIndices {
				pk.MatrixIndices[j] = r.U16()
			}

			r.Seek(sec.At(pktLocOff + 8*(firstPkt+k)))
			size := int(r.U32())
			start := sec.At(primOff + int(r.U32()))
			pk.Primitives = readPrimitives(r, s.Desc, start, start+size)
		}
		if r.Err() != nil {
			return nil, fmt.Errorf("bmd: SHP1 shape %d: %w", i, r.Err())
		}
	}

	shapes := make([]Shape, count)
	for i, p := range remap {
		shapes[i] = records[p]
		if p != i {
			shapes[i] = cloneShape(records[p])
		}
	}
	r.Seek(sec.End())
	return shapes, nil
}

func readPrimitives(r *binio.Reader, desc []AttrInput, start, end int) []Primitive {
	var prims []Primitive
	r.Seek(start)
	for r.Pos() < end && r.Err() == nil {
		t := PrimitiveType(r.U8())
		if t == PrimNone {
			break
		}
		n := int(r.U16())
		p := Primitive{Type: t, Vertices: make([]Vertex, n)}
		for i := range p.Vertices {
			v := &p.Vertices[i]
			for _, a := range desc {
				switch a.Input {
				case InputIndex8:
					v.Index[a.Attr] = int(r.U8())
				case InputIndex16:
					v.Index[a.Attr] = int(r.U16())
				case InputDirect:
					v.Index[a.Attr] = int(r.U8())
					if a.Attr == AttrPosMtxIdx {
						v.Index[a.Attr] /= 3
					}
				}
			}
		}
		prims = append(prims, p)
	}
	return prims
}

func cloneShape(s Shape) Shape {
	out := s
	out.Desc = slices.Clone(s.Desc)
	out.Packets = make([]Packet, len(s.Packets))
	for i, p := range s.Packets {
		out.Packets[i] = Packet{
			MatrixID:      p.MatrixID,
			MatrixIndices: slices.Clone(p.MatrixIndices),
			Primitives:    make([]Primitive, len(p.Primitives)),
		}
		for j, prim := range p.Primitives {
			vs := make([]Vertex, len(prim.Vertices))
			for k, v := range prim.Vertices {
				vs[k] = Vertex{Index: v.Index, Weight: v.Weight.clone()}
			}
			out.Packets[i].Primitives[j] = Primitive{Type: prim.Type, Vertices: vs}
		}
	}
	return out
}

// compressedMatrixIndices returns packet p's indices with every slot that
// equals the previous packet's slot replaced by RepeatMatrix.
func (s *Shape) compressedMatrixIndices(p int) []uint16 {
	mi := s.Packets[p].MatrixIndices
	out := make([]uint16, len(mi))
	for slot := range mi {
		cur, ok := s.MatrixIndex(p, slot)
		if !ok {
			out[slot] = RepeatMatrix
			continue
		}
		out[slot] = uint16(cur)
		if p > 0 && slot < len(s.Packets[p-1].MatrixIndices) {
			if prev, ok := s.MatrixIndex(p-1, slot); ok && prev == cur {
				out[slot] = RepeatMatrix
			}
		}
	}
	return out
}

func writeShapes(shapes []Shape) []byte {
	w := binio.NewSection(tagSHP1)
	w.U16(uint16(len(shapes)))
	w.U16(0xFFFF)
	shapeAt := w.Placeholder32()
	remapAt := w.Placeholder32()
	w.U32(0) // name table
	attrAt := w.Placeholder32()
	mtxTableAt := w.Placeholder32()
	primAt := w.Placeholder32()
	mtxDataAt := w.Placeholder32()
	pktLocAt := w.Placeholder32()

	var descs [][]AttrInput
	descIndex := make([]int, len(shapes))
	for i := range shapes {
		descIndex[i] = slices.IndexFunc(descs, func(d []AttrInput) bool {
			return slices.Equal(d, shapes[i].Desc)
		})
		if descIndex[i] < 0 {
			descs = append(descs, shapes[i].Desc)
			descIndex[i] = len(descs) - 1
		}
	}

	w.PatchU32(shapeAt, uint32(w.Len()))
	recordAt := w.Len()
	firstPkt := 0
	for i := range shapes {
		s := &shapes[i]
		w.U8(s.MatrixType)
		w.U8(0xFF)
		w.U16(uint16(len(s.Packets)))
		w.U16(0) // descriptor offset, patched below
		w.U16(uint16(firstPkt))
		w.U16(uint16(firstPkt))
		w.U16(0xFFFF)
		w.F32(s.Radius)
		writeVec3(w.Writer, s.BoundsMin)
		writeVec3(w.Writer, s.BoundsMax)
		firstPkt += len(s.Packets)
	}

	w.PatchU32(remapAt, uint32(w.Len()))
	for i := range shapes {
		w.U16(uint16(i))
	}
	w.Align(32)

	w.PatchU32(attrAt, uint32(w.Len()))
	attrStart := w.Len()
	descOffsets := make([]int, len(descs))
	for i, d := range descs {
		descOffsets[i] = w.Len() - attrStart
		for _, a := range d {
			w.U32(uint32(a.Attr))
			w.U32(uint32(a.Input))
		}
		w.U32(uint32(AttrNull))
		w.U32(uint32(InputNone))
	}
	for i := range shapes {
		w.PatchU16(recordAt+shapeRecordSize*i+4, uint16(descOffsets[descIndex[i]]))
	}

	type packetInfo struct {
		id          uint16
		count       int
		first       int
		size, start int
	}
	var infos []packetInfo

	w.PatchU32(mtxTableAt, uint32(w.Len()))
	next := 0
	for i := range shapes {
		s := &shapes[i]
		for p := range s.Packets {
			mi := s.compressedMatrixIndices(p)
			for _, v := range mi {
				w.U16(v)
			}
			infos = append(infos, packetInfo{id: s.Packets[p].MatrixID, count: len(mi), first: next})
			next += len(mi)
		}
	}
	w.Align(32)

	w.PatchU32(primAt, uint32(w.Len()))
	primStart := w.Len()
	k := 0
	for i := range shapes {
		s := &shapes[i]
		for p := range s.Packets {
			start := w.Len()
			writePrimitives(w.Writer, s.Desc, s.Packets[p].Primitives)
			w.Align(32)
			infos[k].start = start - primStart
			infos[k].size = w.Len() - start
			k++
		}
	}

	w.PatchU32(mtxDataAt, uint32(w.Len()))
	for _, in := range infos {
		w.U16(in.id)
		w.U16(uint16(in.count))
		w.U32(uint32(in.first))
	}
	w.PatchU32(pktLocAt, uint32(w.Len()))
	for _, in := range infos {
		w.U32(uint32(in.size))
		w.U32(uint32(in.start))
	}
	return w.Finish()
}

func writePrimitives(w *binio.Writer, desc []AttrInput, prims []Primitive) {
	for _, p := range prims {
		w.U8(uint8(p.Type))
		w.U16(uint16(len(p.Vertices)))
		for i := range p.Vertices {
			v := &p.Vertices[i]
			for _, a := range desc {
				switch a.Input {
				case InputIndex8:
					w.U8(uint8(v.Index[a.Attr]))
				case InputIndex16:
					w.U16(uint16(v.Index[a.Attr]))
				case InputDirect:
					idx := v.Index[a.Attr]
					if a.Attr == AttrPosMtxIdx {
						idx *= 3
					}
					w.U8(uint8(idx))
				}
			}
		}
	}
	w.U8(uint8(PrimNone))
}
