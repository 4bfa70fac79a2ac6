package bmd

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/binio"
)

// Opt is an optional material field. The zero value is unset.
type Opt[T comparable] struct {
	Value T
	Set   bool
}

// Some returns a set Opt holding v.
func Some[T comparable](v T) Opt[T] { return Opt[T]{Value: v, Set: true} }

// ColorS16 is a signed 10-bit-range TEV color register.
type ColorS16 [4]int16

type ChannelControl struct {
	Enable      bool
	MaterialSrc uint8
	LitMask     uint8
	DiffuseFn   uint8
	AttenFn     uint8
	AmbientSrc  uint8
}

type Light struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     color.RGBA
	CosAtten  mgl32.Vec3
	DistAtten mgl32.Vec3
}

type TexCoordGen struct {
	Type   uint8
	Source uint8
	Matrix uint8
}

// TexMatrix is a texture coordinate transform. Rotation is stored quantized
// (see mathutil.AngleFromS16).
type TexMatrix struct {
	Projection  uint8
	Mapping     uint8
	Center      mgl32.Vec3
	Scale       mgl32.Vec2
	Rotation    int16
	Translation mgl32.Vec2
	Effect      mgl32.Mat4
}

type TevOrder struct {
	TexCoord uint8
	TexMap   uint8
	Channel  uint8
}

type TevStage struct {
	ColorIn    [4]uint8
	ColorOp    uint8
	ColorBias  uint8
	ColorScale uint8
	ColorClamp uint8
	ColorReg   uint8
	AlphaIn    [4]uint8
	AlphaOp    uint8
	AlphaBias  uint8
	AlphaScale uint8
	AlphaClamp uint8
	AlphaReg   uint8
}

type TevSwapMode struct {
	RasSel uint8
	TexSel uint8
}

type TevSwapTable [4]uint8

type Fog struct {
	Type        uint8
	Enable      bool
	Center      uint16
	StartZ      float32
	EndZ        float32
	NearZ       float32
	FarZ        float32
	Color       color.RGBA
	RangeAdjust [10]uint16
}

type AlphaCompare struct {
	Comp0 uint8
	Ref0  uint8
	Op    uint8
	Comp1 uint8
	Ref1  uint8
}

type BlendMode struct {
	Type    uint8
	Src     uint8
	Dst     uint8
	LogicOp uint8
}

type ZMode struct {
	Enable bool
	Func   uint8
	Update bool
}

type NBTScale struct {
	Unknown uint8
	Scale   mgl32.Vec3
}

type IndTexOrder struct {
	TexCoord uint8
	TexMap   uint8
}

type IndTexMatrix struct {
	Matrix   [6]float32
	Exponent int8
}

type IndTexScale struct {
	S uint8
	T uint8
}

type IndTevStage struct {
	TevStage uint8
	Format   uint8
	Bias     uint8
	Matrix   uint8
	WrapS    uint8
	WrapT    uint8
	AddPrev  uint8
	UtcLod   uint8
	Alpha    uint8
}

// Indirect is a material's indirect texturing block.
type Indirect struct {
	Enabled    bool
	StageCount uint8
	Orders     [4]IndTexOrder
	Matrices   [3]IndTexMatrix
	Scales     [4]IndTexScale
	Stages     [16]IndTevStage
}

// Material is one logical material. All fields are values, so copying a
// Material yields an independent copy, and == compares full content.
type Material struct {
	Name string
	Flag uint8

	CullMode          Opt[CullMode]
	ColorChannelCount Opt[uint8]
	TexGenCount       Opt[uint8]
	TevStageCount     Opt[uint8]
	ZCompLoc          Opt[bool]
	ZMode             Opt[ZMode]
	Dither            Opt[bool]

	MaterialColors  [2]Opt[color.RGBA]
	ChannelControls [4]Opt[ChannelControl]
	AmbientColors   [2]Opt[color.RGBA]
	Lights          [8]Opt[Light]
	TexGens         [8]Opt[TexCoordGen]
	PostTexGens     [8]Opt[TexCoordGen]
	TexMatrices     [10]Opt[TexMatrix]
	PostTexMatrices [20]Opt[TexMatrix]

	// Textures index the model's texture list; TextureNames is filled from
	// it after load.
	Textures     [8]Opt[int]
	TextureNames [8]string

	KonstColors   [4]Opt[color.RGBA]
	KonstColorSel [16]uint8
	KonstAlphaSel [16]uint8
	TevOrders     [16]Opt[TevOrder]
	TevColors     [4]Opt[ColorS16]
	TevStages     [16]Opt[TevStage]
	SwapModes     [16]Opt[TevSwapMode]
	SwapTables    [4]Opt[TevSwapTable]

	Fog          Opt[Fog]
	AlphaCompare Opt[AlphaCompare]
	BlendMode    Opt[BlendMode]
	NBTScale     Opt[NBTScale]

	// Indirect is written as a zero entry when unset, so a zero block
	// reads back unset.
	Indirect Opt[Indirect]
}

// SameContent reports whether m and o are equal in everything but name.
func (m *Material) SameContent(o *Material) bool {
	a, b := *m, *o
	a.Name, b.Name = "", ""
	return a == b
}

// codec describes the fixed-size binary form of a sub-table record.
type codec[T any] struct {
	size  int
	read  func(r *binio.Reader) T
	write func(w *binio.Writer, v T)
}

func readBool(r *binio.Reader) bool { return r.U8() != 0 }

func writeBool(w *binio.Writer, b bool) {
	if b {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

func readRGBA(r *binio.Reader) color.RGBA {
	return color.RGBA{R: r.U8(), G: r.U8(), B: r.U8(), A: r.U8()}
}

func writeRGBA(w *binio.Writer, c color.RGBA) {
	w.U8(c.R)
	w.U8(c.G)
	w.U8(c.B)
	w.U8(c.A)
}

var (
	cullCodec = codec[CullMode]{4,
		func(r *binio.Reader) CullMode { return CullMode(r.U32()) },
		func(w *binio.Writer, v CullMode) { w.U32(uint32(v)) },
	}
	u8Codec = codec[uint8]{1,
		func(r *binio.Reader) uint8 { return r.U8() },
		func(w *binio.Writer, v uint8) { w.U8(v) },
	}
	u16Codec = codec[uint16]{2,
		func(r *binio.Reader) uint16 { return r.U16() },
		func(w *binio.Writer, v uint16) { w.U16(v) },
	}
	boolCodec = codec[bool]{1, readBool, writeBool}
	rgbaCodec = codec[color.RGBA]{4, readRGBA, writeRGBA}

	colorS16Codec = codec[ColorS16]{8,
		func(r *binio.Reader) ColorS16 { return ColorS16{r.S16(), r.S16(), r.S16(), r.S16()} },
		func(w *binio.Writer, v ColorS16) {
			for _, c := range v {
				w.S16(c)
			}
		},
	}

	channelCodec = codec[ChannelControl]{8,
		func(r *binio.Reader) ChannelControl {
			c := ChannelControl{
				Enable:      readBool(r),
				MaterialSrc: r.U8(),
				LitMask:     r.U8(),
				DiffuseFn:   r.U8(),
				AttenFn:     r.U8(),
				AmbientSrc:  r.U8(),
			}
			r.Skip(2)
			return c
		},
		func(w *binio.Writer, c ChannelControl) {
			writeBool(w, c.Enable)
			w.U8(c.MaterialSrc)
			w.U8(c.LitMask)
			w.U8(c.DiffuseFn)
			w.U8(c.AttenFn)
			w.U8(c.AmbientSrc)
			w.U16(0xFFFF)
		},
	}

	lightCodec = codec[Light]{52,
		func(r *binio.Reader) Light {
			return Light{
				Position:  readVec3(r),
				Direction: readVec3(r),
				Color:     readRGBA(r),
				CosAtten:  readVec3(r),
				DistAtten: readVec3(r),
			}
		},
		func(w *binio.Writer, l Light) {
			writeVec3(w, l.Position)
			writeVec3(w, l.Direction)
			writeRGBA(w, l.Color)
			writeVec3(w, l.CosAtten)
			writeVec3(w, l.DistAtten)
		},
	}

	texGenCodec = codec[TexCoordGen]{4,
		func(r *binio.Reader) TexCoordGen {
			g := TexCoordGen{Type: r.U8(), Source: r.U8(), Matrix: r.U8()}
			r.Skip(1)
			return g
		},
		func(w *binio.Writer, g TexCoordGen) {
			w.U8(g.Type)
			w.U8(g.Source)
			w.U8(g.Matrix)
			w.U8(0xFF)
		},
	}

	texMatrixCodec = codec[TexMatrix]{100,
		func(r *binio.Reader) TexMatrix {
			var m TexMatrix
			m.Projection = r.U8()
			m.Mapping = r.U8()
			r.Skip(2)
			m.Center = readVec3(r)
			m.Scale = mgl32.Vec2{r.F32(), r.F32()}
			m.Rotation = r.S16()
			r.Skip(2)
			m.Translation = mgl32.Vec2{r.F32(), r.F32()}
			for row := 0; row < 4; row++ {
				for col := 0; col < 4; col++ {
					m.Effect.Set(row, col, r.F32())
				}
			}
			return m
		},
		func(w *binio.Writer, m TexMatrix) {
			w.U8(m.Projection)
			w.U8(m.Mapping)
			w.U16(0xFFFF)
			writeVec3(w, m.Center)
			w.F32(m.Scale[0])
			w.F32(m.Scale[1])
			w.S16(m.Rotation)
			w.U16(0xFFFF)
			w.F32(m.Translation[0])
			w.F32(m.Translation[1])
			for row := 0; row < 4; row++ {
				for col := 0; col < 4; col++ {
					w.F32(m.Effect.At(row, col))
				}
			}
		},
	}

	tevOrderCodec = codec[TevOrder]{4,
		func(r *binio.Reader) TevOrder {
			o := TevOrder{TexCoord: r.U8(), TexMap: r.U8(), Channel: r.U8()}
			r.Skip(1)
			return o
		},
		func(w *binio.Writer, o TevOrder) {
			w.U8(o.TexCoord)
			w.U8(o.TexMap)
			w.U8(o.Channel)
			w.U8(0xFF)
		},
	}

	tevStageCodec = codec[TevStage]{20,
		func(r *binio.Reader) TevStage {
			var s TevStage
			r.Skip(1)
			for i := range s.ColorIn {
				s.ColorIn[i] = r.U8()
			}
			s.ColorOp, s.ColorBias, s.ColorScale, s.ColorClamp, s.ColorReg = r.U8(), r.U8(), r.U8(), r.U8(), r.U8()
			for i := range s.AlphaIn {
				s.AlphaIn[i] = r.U8()
			}
			s.AlphaOp, s.AlphaBias, s.AlphaScale, s.AlphaClamp, s.AlphaReg = r.U8(), r.U8(), r.U8(), r.U8(), r.U8()
			r.Skip(1)
			return s
		},
		func(w *binio.Writer, s TevStage) {
			w.U8(0xFF)
			w.Write(s.ColorIn[:])
			w.Write([]byte{s.ColorOp, s.ColorBias, s.ColorScale, s.ColorClamp, s.ColorReg})
			w.Write(s.AlphaIn[:])
			w.Write([]byte{s.AlphaOp, s.AlphaBias, s.AlphaScale, s.AlphaClamp, s.AlphaReg})
			w.U8(0xFF)
		},
	}

	swapModeCodec = codec[TevSwapMode]{4,
		func(r *binio.Reader) TevSwapMode {
			m := TevSwapMode{RasSel: r.U8(), TexSel: r.U8()}
			r.Skip(2)
			return m
		},
		func(w *binio.Writer, m TevSwapMode) {
			w.U8(m.RasSel)
			w.U8(m.TexSel)
			w.U16(0xFFFF)
		},
	}

	swapTableCodec = codec[TevSwapTable]{4,
		func(r *binio.Reader) TevSwapTable { return TevSwapTable{r.U8(), r.U8(), r.U8(), r.U8()} },
		func(w *binio.Writer, t TevSwapTable) { w.Write(t[:]) },
	}

	fogCodec = codec[Fog]{44,
		func(r *binio.Reader) Fog {
			f := Fog{Type: r.U8(), Enable: readBool(r), Center: r.U16()}
			f.StartZ, f.EndZ, f.NearZ, f.FarZ = r.F32(), r.F32(), r.F32(), r.F32()
			f.Color = readRGBA(r)
			for i := range f.RangeAdjust {
				f.RangeAdjust[i] = r.U16()
			}
			return f
		},
		func(w *binio.Writer, f Fog) {
			w.U8(f.Type)
			writeBool(w, f.Enable)
			w.U16(f.Center)
			w.F32(f.StartZ)
			w.F32(f.EndZ)
			w.F32(f.NearZ)
			w.F32(f.FarZ)
			writeRGBA(w, f.Color)
			for _, v := range f.RangeAdjust {
				w.U16(v)
			}
		},
	}

	alphaCompareCodec = codec[AlphaCompare]{8,
		func(r *binio.Reader) AlphaCompare {
			a := AlphaCompare{Comp0: r.U8(), Ref0: r.U8(), Op: r.U8(), Comp1: r.U8(), Ref1: r.U8()}
			r.Skip(3)
			return a
		},
		func(w *binio.Writer, a AlphaCompare) {
			w.Write([]byte{a.Comp0, a.Ref0, a.Op, a.Comp1, a.Ref1})
			w.Fill(0xFF, 3)
		},
	}

	blendCodec = codec[BlendMode]{4,
		func(r *binio.Reader) BlendMode {
			return BlendMode{Type: r.U8(), Src: r.U8(), Dst: r.U8(), LogicOp: r.U8()}
		},
		func(w *binio.Writer, b BlendMode) {
			w.Write([]byte{b.Type, b.Src, b.Dst, b.LogicOp})
		},
	}

	zModeCodec = codec[ZMode]{4,
		func(r *binio.Reader) ZMode {
			z := ZMode{Enable: readBool(r), Func: r.U8(), Update: readBool(r)}
			r.Skip(1)
			return z
		},
		func(w *binio.Writer, z ZMode) {
			writeBool(w, z.Enable)
			w.U8(z.Func)
			writeBool(w, z.Update)
			w.U8(0xFF)
		},
	}

	nbtScaleCodec = codec[NBTScale]{16,
		func(r *binio.Reader) NBTScale {
			n := NBTScale{Unknown: r.U8()}
			r.Skip(3)
			n.Scale = readVec3(r)
			return n
		},
		func(w *binio.Writer, n NBTScale) {
			w.U8(n.Unknown)
			w.Fill(0xFF, 3)
			writeVec3(w, n.Scale)
		},
	}

	indirectCodec = codec[Indirect]{312, readIndirect, writeIndirect}
)

func readIndirect(r *binio.Reader) Indirect {
	var in Indirect
	in.Enabled = readBool(r)
	in.StageCount = r.U8()
	r.Skip(2)
	for i := range in.Orders {
		in.Orders[i] = IndTexOrder{TexCoord: r.U8(), TexMap: r.U8()}
		r.Skip(2)
	}
	for i := range in.Matrices {
		for j := range in.Matrices[i].Matrix {
			in.Matrices[i].Matrix[j] = r.F32()
		}
		in.Matrices[i].Exponent = r.S8()
		r.Skip(3)
	}
	for i := range in.Scales {
		in.Scales[i] = IndTexScale{S: r.U8(), T: r.U8()}
		r.Skip(2)
	}
	for i := range in.Stages {
		in.Stages[i] = IndTevStage{
			TevStage: r.U8(),
			Format:   r.U8(),
			Bias:     r.U8(),
			Matrix:   r.U8(),
			WrapS:    r.U8(),
			WrapT:    r.U8(),
			AddPrev:  r.U8(),
			UtcLod:   r.U8(),
			Alpha:    r.U8(),
		}
		r.Skip(3)
	}
	return in
}

func writeIndirect(w *binio.Writer, in Indirect) {
	writeBool(w, in.Enabled)
	w.U8(in.StageCount)
	w.U16(0xFFFF)
	for _, o := range in.Orders {
		w.U8(o.TexCoord)
		w.U8(o.TexMap)
		w.U16(0xFFFF)
	}
	for _, m := range in.Matrices {
		for _, f := range m.Matrix {
			w.F32(f)
		}
		w.S8(m.Exponent)
		w.Fill(0xFF, 3)
	}
	for _, s := range in.Scales {
		w.U8(s.S)
		w.U8(s.T)
		w.U16(0xFFFF)
	}
	for _, s := range in.Stages {
		w.Write([]byte{s.TevStage, s.Format, s.Bias, s.Matrix, s.WrapS, s.WrapT, s.AddPrev, s.UtcLod, s.Alpha})
		w.Fill(0xFF, 3)
	}
}
