package bmd

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/binio"
)

// VertexFormat describes how one attribute array is encoded in VTX1.
type VertexFormat struct {
	Attr  Attr
	Count CompCount
	Type  CompType
	Frac  uint8
}

// VertexData holds every decoded attribute array. Arrays are indexed by the
// per-vertex indices stored in primitives and are read-only after load.
type VertexData struct {
	Formats   []VertexFormat
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Colors    [2][]mgl32.Vec4
	TexCoords [8][]mgl32.Vec2
}

// Format returns the encoding of attr and whether the attribute is present.
func (v *VertexData) Format(attr Attr) (VertexFormat, bool) {
	for _, f := range v.Formats {
		if f.Attr == attr {
			return f, true
		}
	}
	return VertexFormat{}, false
}

const vtxSlots = 13

// vtxSlot maps an attribute to its data offset slot in the VTX1 header.
func vtxSlot(a Attr) int {
	switch {
	case a == AttrPosition:
		return 0
	case a == AttrNormal:
		return 1
	case a == AttrNBT:
		return 2
	case a.IsColor():
		return 3 + int(a-AttrColor0)
	case a.IsTexCoord():
		return 5 + int(a-AttrTex0)
	}
	return -1
}

// components returns the number of scalar components per element, or 0 when
// the attribute/count combination is not decodable.
func components(a Attr, c CompCount) int {
	switch {
	case a == AttrPosition:
		if c == CountPosXY {
			return 2
		}
		return 3
	case a == AttrNormal:
		if c == CountNrmXYZ {
			return 3
		}
	case a.IsTexCoord():
		if c == CountTexS {
			return 1
		}
		return 2
	}
	return 0
}

func compSize(t CompType) int {
	switch t {
	case CompU8, CompS8:
		return 1
	case CompU16, CompS16:
		return 2
	case CompF32:
		return 4
	}
	return 0
}

func colorSize(t CompType) int {
	switch t {
	case ColorRGB565, ColorRGBA4:
		return 2
	case ColorRGB8, ColorRGBA6:
		return 3
	case ColorRGBX8, ColorRGBA8:
		return 4
	}
	return 0
}

func fracScale(frac uint8) float64 { return math.Exp2(float64(frac)) }

func readComp(r *binio.Reader, t CompType, scale float64) float32 {
	switch t {
	case CompU8:
		return float32(float64(r.U8()) / scale)
	case CompS8:
		return float32(float64(r.S8()) / scale)
	case CompU16:
		return float32(float64(r.U16()) / scale)
	case CompS16:
		return float32(float64(r.S16()) / scale)
	}
	return r.F32()
}

// Quantize converts v to the fixed-point integer stored for t, rounding to
// nearest and saturating to the range of t.
func Quantize(v float32, t CompType, frac uint8) int64 {
	x := math.Round(float64(v) * fracScale(frac))
	var lo, hi float64
	switch t {
	case CompU8:
		lo, hi = 0, math.MaxUint8
	case CompS8:
		lo, hi = math.MinInt8, math.MaxInt8
	case CompU16:
		lo, hi = 0, math.MaxUint16
	case CompS16:
		lo, hi = math.MinInt16, math.MaxInt16
	default:
		return int64(x)
	}
	return int64(math.Max(lo, math.Min(hi, x)))
}

// Dequantize is the inverse of Quantize.
func Dequantize(q int64, frac uint8) float32 {
	return float32(float64(q) / fracScale(frac))
}

func writeComp(w *binio.Writer, v float32, t CompType, frac uint8) {
	switch t {
	case CompU8, CompS8:
		w.U8(uint8(Quantize(v, t, frac)))
	case CompU16, CompS16:
		w.U16(uint16(Quantize(v, t, frac)))
	default:
		w.F32(v)
	}
}

// expand widens an n-bit channel to 8 bits by replicating its high bits.
func expand(x uint32, bits uint) float32 {
	v := x<<(8-bits) | x>>(2*bits-8)
	return float32(v) / 255
}

// DecodeColor reads one packed color of format t as normalized RGBA.
func DecodeColor(r *binio.Reader, t CompType) mgl32.Vec4 {
	switch t {
	case ColorRGB565:
		v := uint32(r.U16())
		return mgl32.Vec4{expand(v>>11&0x1F, 5), expand(v>>5&0x3F, 6), expand(v&0x1F, 5), 1}
	case ColorRGB8:
		return mgl32.Vec4{float32(r.U8()) / 255, float32(r.U8()) / 255, float32(r.U8()) / 255, 1}
	case ColorRGBX8:
		c := mgl32.Vec4{float32(r.U8()) / 255, float32(r.U8()) / 255, float32(r.U8()) / 255, 1}
		r.Skip(1)
		return c
	case ColorRGBA4:
		v := uint32(r.U16())
		return mgl32.Vec4{expand(v>>12&0xF, 4), expand(v>>8&0xF, 4), expand(v>>4&0xF, 4), expand(v&0xF, 4)}
	case ColorRGBA6:
		v := r.U24()
		return mgl32.Vec4{expand(v>>18&0x3F, 6), expand(v>>12&0x3F, 6), expand(v>>6&0x3F, 6), expand(v&0x3F, 6)}
	}
	return mgl32.Vec4{float32(r.U8()) / 255, float32(r.U8()) / 255, float32(r.U8()) / 255, float32(r.U8()) / 255}
}

func to8(c float32) uint32 {
	return uint32(math.Max(0, math.Min(255, math.Round(float64(c)*255))))
}

// EncodeColor writes c in packed format t.
func EncodeColor(w *binio.Writer, c mgl32.Vec4, t CompType) {
	r, g, b, a := to8(c[0]), to8(c[1]), to8(c[2]), to8(c[3])
	switch t {
	case ColorRGB565:
		w.U16(uint16(r>>3<<11 | g>>2<<5 | b>>3))
	case ColorRGB8:
		w.U8(uint8(r))
		w.U8(uint8(g))
		w.U8(uint8(b))
	case ColorRGBX8:
		w.U8(uint8(r))
		w.U8(uint8(g))
		w.U8(uint8(b))
		w.U8(0xFF)
	case ColorRGBA4:
		w.U16(uint16(r>>4<<12 | g>>4<<8 | b>>4<<4 | a>>4))
	case ColorRGBA6:
		w.U24(r>>2<<18 | g>>2<<12 | b>>2<<6 | a>>2)
	default:
		w.U8(uint8(r))
		w.U8(uint8(g))
		w.U8(uint8(b))
		w.U8(uint8(a))
	}
}

func readVertexData(r *binio.Reader) (*VertexData, error) {
	sec, err := binio.OpenSection(r, tagVTX1)
	if err != nil {
		return nil, err
	}
	formatOff := int(r.U32())
	var offsets [vtxSlots]int
	for i := range offsets {
		offsets[i] = int(r.U32())
	}

	v := &VertexData{}
	for i := 0; ; i++ {
		r.Seek(sec.At(formatOff + 16*i))
		f := VertexFormat{
			Attr:  Attr(r.U32()),
			Count: CompCount(r.U32()),
			Type:  CompType(r.U32()),
			Frac:  r.U8(),
		}
		if r.Err() != nil {
			return nil, fmt.Errorf("bmd: VTX1 formats: %w", r.Err())
		}
		if f.Attr == AttrNull {
			break
		}
		slot := vtxSlot(f.Attr)
		if slot < 0 || offsets[slot] == 0 {
			continue
		}
		end := sec.Size
		for j := slot + 1; j < vtxSlots; j++ {
			if offsets[j] != 0 {
				end = offsets[j]
				break
			}
		}
		if v.decode(r, f, sec.At(offsets[slot]), end-offsets[slot]) {
			v.Formats = append(v.Formats, f)
		}
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("bmd: VTX1 data: %w", r.Err())
	}
	r.Seek(sec.End())
	return v, nil
}

// decode reads the array for f from size bytes at pos. It reports false for
// combinations it cannot decode; those attributes are treated as absent.
func (v *VertexData) decode(r *binio.Reader, f VertexFormat, pos, size int) bool {
	r.Seek(pos)
	if f.Attr.IsColor() {
		es := colorSize(f.Type)
		if es == 0 {
			return false
		}
		n := size / es
		out := make([]mgl32.Vec4, n)
		for i := range out {
			out[i] = DecodeColor(r, f.Type)
		}
		v.Colors[f.Attr-AttrColor0] = out
		return true
	}

	nc, cs := components(f.Attr, f.Count), compSize(f.Type)
	if nc == 0 || cs == 0 {
		return false
	}
	n := size / (nc * cs)
	scale := fracScale(f.Frac)
	switch {
	case f.Attr == AttrPosition || f.Attr == AttrNormal:
		out := make([]mgl32.Vec3, n)
		for i := range out {
			for c := 0; c < nc; c++ {
				out[i][c] = readComp(r, f.Type, scale)
			}
		}
		if f.Attr == AttrPosition {
			v.Positions = out
		} else {
			v.Normals = out
		}
	default:
		out := make([]mgl32.Vec2, n)
		for i := range out {
			for c := 0; c < nc; c++ {
				out[i][c] = readComp(r, f.Type, scale)
			}
		}
		v.TexCoords[f.Attr-AttrTex0] = out
	}
	return true
}

func (v *VertexData) write() []byte {
	w := binio.NewSection(tagVTX1)
	w.U32(0x40)
	slots := w.Len()
	for i := 0; i < vtxSlots; i++ {
		w.U32(0)
	}

	for _, f := range v.Formats {
		w.U32(uint32(f.Attr))
		w.U32(uint32(f.Count))
		w.U32(uint32(f.Type))
		w.U8(f.Frac)
		w.Fill(0xFF, 3)
	}
	w.U32(uint32(AttrNull))
	w.U32(1)
	w.U32(0)
	w.U8(0)
	w.Fill(0xFF, 3)

	// Data goes out in slot order; a reader sizes each array by the next slot.
	formats := slices.Clone(v.Formats)
	slices.SortStableFunc(formats, func(a, b VertexFormat) int {
		return vtxSlot(a.Attr) - vtxSlot(b.Attr)
	})
	for _, f := range formats {
		if vtxSlot(f.Attr) < 0 {
			continue
		}
		w.Align(32)
		w.PatchU32(slots+4*vtxSlot(f.Attr), uint32(w.Len()))
		v.encode(w.Writer, f)
	}
	return w.Finish()
}

func (v *VertexData) encode(w *binio.Writer, f VertexFormat) {
	switch {
	case f.Attr.IsColor():
		for _, c := range v.Colors[f.Attr-AttrColor0] {
			EncodeColor(w, c, f.Type)
		}
	case f.Attr == AttrPosition || f.Attr == AttrNormal:
		data := v.Positions
		if f.Attr == AttrNormal {
			data = v.Normals
		}
		nc := components(f.Attr, f.Count)
		for _, e := range data {
			for c := 0; c < nc; c++ {
				writeComp(w, e[c], f.Type, f.Frac)
			}
		}
	default:
		nc := components(f.Attr, f.Count)
		for _, e := range v.TexCoords[f.Attr-AttrTex0] {
			for c := 0; c < nc; c++ {
				writeComp(w, e[c], f.Type, f.Frac)
			}
		}
	}
}
