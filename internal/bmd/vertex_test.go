package bmd

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/binio"
)

func TestQuantizeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  CompType
		frac uint8
		v    float32
	}{
		{"s16 frac 8", CompS16, 8, 12.3456},
		{"s16 frac 14 negative", CompS16, 14, -1.23456},
		{"u16 frac 0", CompU16, 0, 4321.4},
		{"s8 frac 6", CompS8, 6, -0.77},
		{"u8 frac 7", CompU8, 7, 1.5}, // exactly representable
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dequantize(Quantize(tt.v, tt.typ, tt.frac), tt.frac)
			limit := 0.5 / math.Exp2(float64(tt.frac))
			if d := math.Abs(float64(got - tt.v)); d > limit+1e-6 {
				t.Errorf("round trip %v -> %v, error %g > %g", tt.v, got, d, limit)
			}
		})
	}
}

func TestQuantizeSaturates(t *testing.T) {
	tests := []struct {
		typ  CompType
		v    float32
		want int64
	}{
		{CompS16, 1e6, math.MaxInt16},
		{CompS16, -1e6, math.MinInt16},
		{CompU8, -5, 0},
		{CompU8, 300, 255},
		{CompS8, -200, -128},
	}
	for _, tt := range tests {
		if got := Quantize(tt.v, tt.typ, 0); got != tt.want {
			t.Errorf("Quantize(%v, %d) = %d, want %d", tt.v, tt.typ, got, tt.want)
		}
	}
}

func TestColorCodecs(t *testing.T) {
	tests := []struct {
		name string
		typ  CompType
		in   mgl32.Vec4
		size int
	}{
		{"rgb565", ColorRGB565, mgl32.Vec4{1, 0, 1, 1}, 2},
		{"rgb8", ColorRGB8, mgl32.Vec4{0.2, 0.4, 0.6, 1}, 3},
		{"rgbx8", ColorRGBX8, mgl32.Vec4{1, 0.5, 0, 1}, 4},
		{"rgba4", ColorRGBA4, mgl32.Vec4{1, 0, 1, 0}, 2},
		{"rgba6", ColorRGBA6, mgl32.Vec4{1, 1, 0, 1}, 3},
		{"rgba8", ColorRGBA8, mgl32.Vec4{0.1, 0.2, 0.3, 0.4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := binio.NewWriter()
			EncodeColor(w, tt.in, tt.typ)
			if w.Len() != tt.size || colorSize(tt.typ) != tt.size {
				t.Fatalf("encoded %d bytes, colorSize %d, want %d", w.Len(), colorSize(tt.typ), tt.size)
			}
			got := DecodeColor(binio.NewReader(w.Bytes()), tt.typ)
			for c := 0; c < 4; c++ {
				// 8-bit formats round to 1/255, narrower ones keep 0 and 1 exact
				if d := math.Abs(float64(got[c] - tt.in[c])); d > 0.5/255+1e-6 {
					t.Errorf("channel %d = %v, want %v", c, got[c], tt.in[c])
				}
			}
		})
	}
}

func TestExpandReplicatesBits(t *testing.T) {
	if got := expand(0x1F, 5); got != 1 {
		t.Errorf("expand(0x1F, 5) = %v, want 1", got)
	}
	if got := expand(0xF, 4); got != 1 {
		t.Errorf("expand(0xF, 4) = %v, want 1", got)
	}
	// 0b10000 -> 0b10000100
	if got := expand(0x10, 5); got != float32(0x84)/255 {
		t.Errorf("expand(0x10, 5) = %v, want %v", got, float32(0x84)/255)
	}
}

func TestVertexDataRoundTrip(t *testing.T) {
	v := &VertexData{
		Formats: []VertexFormat{
			{Attr: AttrTex0, Count: CountTexST, Type: CompS16, Frac: 10},
			{Attr: AttrPosition, Count: CountPosXYZ, Type: CompF32},
			{Attr: AttrNormal, Count: CountNrmXYZ, Type: CompS8, Frac: 6},
			{Attr: AttrColor0, Count: CountClrRGBA, Type: ColorRGBA8},
		},
		Positions: []mgl32.Vec3{{1, 2, 3}, {-4.5, 0.25, 1e3}},
		Normals:   []mgl32.Vec3{{0, 1, 0}, {0.5, -0.5, 0}},
		Colors:    [2][]mgl32.Vec4{{{1, 0, 0, 1}, {0, 0, 1, 0.5}}},
	}
	v.TexCoords[0] = []mgl32.Vec2{{0.5, 0.25}, {-1, 2}}

	got, err := readVertexData(binio.NewReader(v.write()))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Formats) != len(v.Formats) {
		t.Fatalf("got %d formats, want %d", len(got.Formats), len(v.Formats))
	}
	for i := range v.Formats {
		if got.Formats[i] != v.Formats[i] {
			t.Errorf("format %d = %+v, want %+v", i, got.Formats[i], v.Formats[i])
		}
	}

	// Arrays may carry trailing elements decoded from alignment padding.
	for i, p := range v.Positions {
		if got.Positions[i] != p {
			t.Errorf("position %d = %v, want %v", i, got.Positions[i], p)
		}
	}
	for i, n := range v.Normals {
		if !got.Normals[i].ApproxEqualThreshold(n, 1.0/64) {
			t.Errorf("normal %d = %v, want %v", i, got.Normals[i], n)
		}
	}
	for i, uv := range v.TexCoords[0] {
		if got.TexCoords[0][i] != uv {
			t.Errorf("uv %d = %v, want %v", i, got.TexCoords[0][i], uv)
		}
	}
	for i, c := range v.Colors[0] {
		if !got.Colors[0][i].ApproxEqualThreshold(c, 1.0/255) {
			t.Errorf("color %d = %v, want %v", i, got.Colors[0][i], c)
		}
	}

	// A second pass reproduces the first exactly.
	again, err := readVertexData(binio.NewReader(got.write()))
	if err != nil {
		t.Fatal(err)
	}
	if err := sameVertices(got, again, 0); err != nil {
		t.Fatal(err)
	}
}

func TestVertexDataSkipsUndecodable(t *testing.T) {
	v := &VertexData{
		Formats: []VertexFormat{
			{Attr: AttrPosition, Count: CountPosXYZ, Type: CompF32},
			{Attr: AttrNormal, Count: CountNrmNBT, Type: CompF32},
		},
		Positions: []mgl32.Vec3{{1, 1, 1}},
	}
	got, err := readVertexData(binio.NewReader(v.write()))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Format(AttrNormal); ok {
		t.Error("NBT-count normals should be treated as absent")
	}
	if len(got.Normals) != 0 {
		t.Errorf("got %d normals, want none", len(got.Normals))
	}
}
