package bmd

// Attr identifies a vertex attribute (GXAttr).
type Attr uint32

const (
	AttrPosMtxIdx  Attr = 0
	AttrTex0MtxIdx Attr = 1
	AttrTex7MtxIdx Attr = 8
	AttrPosition   Attr = 9
	AttrNormal     Attr = 10
	AttrColor0     Attr = 11
	AttrColor1     Attr = 12
	AttrTex0       Attr = 13
	AttrTex7       Attr = 20
	AttrNBT        Attr = 25
	AttrNull       Attr = 0xFF
)

// IsMatrixIndex reports whether a is one of the matrix-index attributes.
func (a Attr) IsMatrixIndex() bool { return a <= AttrTex7MtxIdx }

// IsTexCoord reports whether a is one of Tex0..Tex7.
func (a Attr) IsTexCoord() bool { return a >= AttrTex0 && a <= AttrTex7 }

// IsColor reports whether a is Color0 or Color1.
func (a Attr) IsColor() bool { return a == AttrColor0 || a == AttrColor1 }

// CompType is the numeric encoding of an attribute component.
// Color attributes reuse the same field for their packed pixel format.
type CompType uint32

const (
	CompU8  CompType = 0
	CompS8  CompType = 1
	CompU16 CompType = 2
	CompS16 CompType = 3
	CompF32 CompType = 4

	ColorRGB565 CompType = 0
	ColorRGB8   CompType = 1
	ColorRGBX8  CompType = 2
	ColorRGBA4  CompType = 3
	ColorRGBA6  CompType = 4
	ColorRGBA8  CompType = 5
)

// CompCount selects how many components an attribute element carries.
// Its meaning depends on the attribute kind.
type CompCount uint32

const (
	CountPosXY  CompCount = 0
	CountPosXYZ CompCount = 1

	CountNrmXYZ  CompCount = 0
	CountNrmNBT  CompCount = 1
	CountNrmNBT3 CompCount = 2

	CountClrRGB  CompCount = 0
	CountClrRGBA CompCount = 1

	CountTexS  CompCount = 0
	CountTexST CompCount = 1
)

// InputType is how a vertex attribute index is stored inside a primitive.
type InputType uint32

const (
	InputNone    InputType = 0
	InputDirect  InputType = 1
	InputIndex8  InputType = 2
	InputIndex16 InputType = 3
)

// PrimitiveType is the topology tag of a primitive.
type PrimitiveType uint8

const (
	PrimNone          PrimitiveType = 0x00
	PrimQuads         PrimitiveType = 0x80
	PrimTriangles     PrimitiveType = 0x90
	PrimTriangleStrip PrimitiveType = 0x98
	PrimTriangleFan   PrimitiveType = 0xA0
	PrimLines         PrimitiveType = 0xA8
	PrimLineStrip     PrimitiveType = 0xB0
	PrimPoints        PrimitiveType = 0xB8
)

func (p PrimitiveType) String() string {
	switch p {
	case PrimQuads:
		return "quads"
	case PrimTriangles:
		return "triangles"
	case PrimTriangleStrip:
		return "tristrip"
	case PrimTriangleFan:
		return "trifan"
	case PrimLines:
		return "lines"
	case PrimLineStrip:
		return "linestrip"
	case PrimPoints:
		return "points"
	}
	return "none"
}

// CullMode is a GXCullMode value.
type CullMode uint32

const (
	CullNone  CullMode = 0
	CullFront CullMode = 1
	CullBack  CullMode = 2
	CullAll   CullMode = 3
)

// Sentinel index values.
const (
	NoIndex      uint16 = 0xFFFF
	RepeatMatrix uint16 = 0xFFFF
)
