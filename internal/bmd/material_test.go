package bmd

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"log"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/binio"
)

func sampleMaterial(name string, tint uint8) Material {
	m := Material{Name: name, Flag: 1}
	m.CullMode = Some(CullBack)
	m.ColorChannelCount = Some(uint8(1))
	m.TexGenCount = Some(uint8(1))
	m.TevStageCount = Some(uint8(2))
	m.ZCompLoc = Some(true)
	m.ZMode = Some(ZMode{Enable: true, Func: 3, Update: true})
	m.Dither = Some(false)
	m.MaterialColors[0] = Some(color.RGBA{tint, 0x80, 0x40, 0xFF})
	m.ChannelControls[0] = Some(ChannelControl{Enable: true, MaterialSrc: 1, LitMask: 1})
	m.AmbientColors[0] = Some(color.RGBA{0x32, 0x32, 0x32, 0x32})
	m.TexGens[0] = Some(TexCoordGen{Type: 1, Source: 4, Matrix: 60})
	m.TexMatrices[0] = Some(TexMatrix{Scale: mgl32.Vec2{1, 1}, Rotation: 1024, Effect: mgl32.Ident4()})
	m.Textures[0] = Some(0)
	m.KonstColors[0] = Some(color.RGBA{0xFF, 0xFF, 0xFF, 0xFF})
	m.KonstColorSel[0] = 0x0C
	m.TevOrders[0] = Some(TevOrder{TexCoord: 0, TexMap: 0, Channel: 4})
	m.TevOrders[1] = Some(TevOrder{TexCoord: 0xFF, TexMap: 0xFF, Channel: 4})
	m.TevColors[0] = Some(ColorS16{-16, 255, 0, 1023})
	m.TevStages[0] = Some(TevStage{ColorIn: [4]uint8{15, 8, 10, 15}, AlphaIn: [4]uint8{7, 4, 5, 7}})
	m.TevStages[1] = Some(TevStage{ColorIn: [4]uint8{15, 0, 10, 15}, ColorScale: 1})
	m.SwapModes[0] = Some(TevSwapMode{})
	m.SwapTables[0] = Some(TevSwapTable{0, 1, 2, 3})
	m.AlphaCompare = Some(AlphaCompare{Comp0: 7, Op: 1, Comp1: 7})
	m.BlendMode = Some(BlendMode{Type: 1, Src: 4, Dst: 5, LogicOp: 3})
	return m
}

func mat3Offsets(t *testing.T, data []byte) []int {
	t.Helper()
	r := binio.NewReader(data)
	r.Seek(0x0C)
	offsets := make([]int, mat3Tables)
	for i := range offsets {
		offsets[i] = int(r.U32())
	}
	if r.Err() != nil {
		t.Fatal(r.Err())
	}
	return offsets
}

func TestSubTableSizes(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		chunk   int
		want    []int
	}{
		{"skips absent table", []int{20, 0, 36}, 50, []int{16, 0, 14}},
		{"all present", []int{8, 12, 20}, 32, []int{4, 8, 12}},
		{"trailing absent", []int{8, 0, 0}, 40, []int{32, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubTableSizes(tt.offsets, tt.chunk)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("SubTableSizes = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMaterialDedup(t *testing.T) {
	mats := []Material{
		sampleMaterial("body", 0x10),
		sampleMaterial("eyes", 0x20),
		sampleMaterial("body_copy", 0x10),
	}
	data := writeMaterials(mats)

	offsets := mat3Offsets(t, data)
	r := binio.NewReader(data)
	r.Seek(offsets[tblRemap])
	remap := []uint16{r.U16(), r.U16(), r.U16()}
	if remap[0] != remap[2] {
		t.Errorf("remap = %v, want entries 0 and 2 equal", remap)
	}
	if remap[0] == remap[1] {
		t.Errorf("remap = %v, want 2 distinct physical materials", remap)
	}

	got, err := readMaterials(binio.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d materials, want 3", len(got))
	}
	for i := range mats {
		if got[i] != mats[i] {
			t.Errorf("material %d %q changed in round trip:\n got %+v\nwant %+v", i, mats[i].Name, got[i], mats[i])
		}
	}

	// Logical materials are independent copies.
	got[0].MaterialColors[0] = Some(color.RGBA{1, 2, 3, 4})
	if got[2].MaterialColors[0] == got[0].MaterialColors[0] {
		t.Error("materials 0 and 2 share state")
	}
}

func TestDedupMaterialsIgnoresNames(t *testing.T) {
	a := sampleMaterial("a", 1)
	b := sampleMaterial("b", 1)
	c := sampleMaterial("c", 2)
	unique, remap := DedupMaterials([]Material{a, b, c, a})
	if len(unique) != 2 {
		t.Fatalf("got %d unique materials, want 2", len(unique))
	}
	want := []int{0, 0, 1, 0}
	for i := range want {
		if remap[i] != want[i] {
			t.Fatalf("remap = %v, want %v", remap, want)
		}
	}
}

func TestMaterialSubTableFirstUse(t *testing.T) {
	blue := sampleMaterial("blue", 0x00)
	blue.MaterialColors[0] = Some(color.RGBA{0, 0, 0xFF, 0xFF})
	red := sampleMaterial("red", 0x00)
	red.MaterialColors[0] = Some(color.RGBA{0xFF, 0, 0, 0xFF})
	red.CullMode = Some(CullNone)

	data := writeMaterials([]Material{blue, red})
	offsets := mat3Offsets(t, data)
	r := binio.NewReader(data)

	r.Seek(offsets[tblMatColor])
	if first := readRGBA(r); first != (color.RGBA{0, 0, 0xFF, 0xFF}) {
		t.Errorf("first material color = %v, want blue", first)
	}
	r.Seek(offsets[tblCull])
	for i, want := range []CullMode{CullBack, CullFront, CullNone} {
		if got := CullMode(r.U32()); got != want {
			t.Errorf("cull table[%d] = %d, want %d", i, got, want)
		}
	}

	if offsets[tblFog] != 0 {
		t.Errorf("unused fog table has offset %#x, want 0", offsets[tblFog])
	}
	if offsets[tblIndirect] != 0 {
		t.Errorf("indirect table written without indirect materials")
	}

	// Reordering the input reorders the table.
	data = writeMaterials([]Material{red, blue})
	r = binio.NewReader(data)
	r.Seek(mat3Offsets(t, data)[tblMatColor])
	if first := readRGBA(r); first != (color.RGBA{0xFF, 0, 0, 0xFF}) {
		t.Errorf("first material color = %v, want red", first)
	}
}

func indirectMaterial(name string, tint uint8, stages uint8) Material {
	m := sampleMaterial(name, tint)
	m.Indirect = Some(Indirect{Enabled: true, StageCount: stages})
	m.Indirect.Value.Matrices[0] = IndTexMatrix{Matrix: [6]float32{0.5, 0, 0, 0, 0.5, 0}, Exponent: -1}
	return m
}

func TestMaterialIndirectRoundTrip(t *testing.T) {
	a := indirectMaterial("a", 1, 1)
	b := sampleMaterial("b", 2)
	c := sampleMaterial("c", 3)
	c.Indirect = Some(Indirect{})

	got, err := readMaterials(binio.NewReader(writeMaterials([]Material{a, b, c})))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != a {
		t.Errorf("indirect block changed in round trip")
	}
	if got[1] != b {
		t.Errorf("material without indirect block came back with %+v", got[1].Indirect)
	}
	if got[2].Indirect.Set {
		t.Errorf("zero indirect block read back as set")
	}
}

func TestMaterialIndirectOutOfRange(t *testing.T) {
	var logs bytes.Buffer
	saved := Logger
	Logger = log.New(&logs, "", 0)
	defer func() { Logger = saved }()

	a := indirectMaterial("a", 1, 1)
	b := indirectMaterial("b", 2, 2)
	data := writeMaterials([]Material{a, b})

	// Drop the first entry: the table now holds only b's block.
	at := 0x0C + 4*tblIndirect
	off := binary.BigEndian.Uint32(data[at:])
	binary.BigEndian.PutUint32(data[at:], off+uint32(indirectCodec.size))

	got, err := readMaterials(binio.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Indirect != b.Indirect {
		t.Errorf("material 0 indirect = %+v, want the remaining entry", got[0].Indirect)
	}
	if got[1].Indirect.Set {
		t.Error("material 1 kept an indirect block with no entry")
	}
	if !strings.Contains(logs.String(), "no indirect texturing entry") {
		t.Errorf("no diagnostic logged, got %q", logs.String())
	}
}

func TestMaterialNBTScaleOutOfRange(t *testing.T) {
	var logs bytes.Buffer
	saved := Logger
	Logger = log.New(&logs, "", 0)
	defer func() { Logger = saved }()

	m := sampleMaterial("nbt", 1)
	m.NBTScale = Some(NBTScale{Unknown: 1, Scale: mgl32.Vec3{1, 1, 1}})
	data := writeMaterials([]Material{m})

	offsets := mat3Offsets(t, data)
	nbtAt := offsets[tblMaterials] + materialRecordSize - 2
	data[nbtAt], data[nbtAt+1] = 0, 9

	got, err := readMaterials(binio.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got[0].NBTScale.Set {
		t.Error("out-of-range NBT scale was kept")
	}
	if !strings.Contains(logs.String(), "NBT scale") {
		t.Errorf("no diagnostic logged, got %q", logs.String())
	}
}
