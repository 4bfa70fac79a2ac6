package bmd

import (
	"fmt"
	"image/color"

	"bmd-codec/internal/binio"
)

// MAT3 header slots, in file order.
const (
	tblMaterials = iota
	tblRemap
	tblNames
	tblIndirect
	tblCull
	tblMatColor
	tblChanCount
	tblChanCtrl
	tblAmbColor
	tblLight
	tblTexGenCount
	tblTexGen
	tblPostTexGen
	tblTexMatrix
	tblPostTexMatrix
	tblTexRemap
	tblTevOrder
	tblTevColor
	tblKonstColor
	tblTevStageCount
	tblTevStage
	tblSwapMode
	tblSwapTable
	tblFog
	tblAlphaCompare
	tblBlend
	tblZMode
	tblZCompLoc
	tblDither
	tblNBTScale
	mat3Tables
)

const (
	materialRecordSize = 0x14C
)

// SubTableSizes infers the byte size of each table from the header offsets.
// A table ends where the next nonzero offset begins; the last one ends at
// chunkSize. Absent tables (offset 0) have size 0.
func SubTableSizes(offsets []int, chunkSize int) []int {
	sizes := make([]int, len(offsets))
	for i, off := range offsets {
		if off == 0 {
			continue
		}
		end := chunkSize
		for j := i + 1; j < len(offsets); j++ {
			if offsets[j] != 0 {
				end = offsets[j]
				break
			}
		}
		sizes[i] = end - off
	}
	return sizes
}

// mat3Data holds every decoded sub-table of one MAT3 section.
type mat3Data struct {
	indirect      []Indirect
	cull          []CullMode
	matColors     []color.RGBA
	chanCounts    []uint8
	chanCtrls     []ChannelControl
	ambColors     []color.RGBA
	lights        []Light
	texGenCounts  []uint8
	texGens       []TexCoordGen
	postTexGens   []TexCoordGen
	texMatrices   []TexMatrix
	postTexMatrix []TexMatrix
	texRemap      []uint16
	tevOrders     []TevOrder
	tevColors     []ColorS16
	konstColors   []color.RGBA
	tevCounts     []uint8
	tevStages     []TevStage
	swapModes     []TevSwapMode
	swapTables    []TevSwapTable
	fogs          []Fog
	alphaComps    []AlphaCompare
	blends        []BlendMode
	zModes        []ZMode
	zCompLocs     []bool
	dithers       []bool
	nbtScales     []NBTScale
}

func readTable[T any](r *binio.Reader, sec binio.Section, off, size int, c codec[T]) []T {
	if off == 0 || size <= 0 {
		return nil
	}
	out := make([]T, size/c.size)
	r.Seek(sec.At(off))
	for i := range out {
		out[i] = c.read(r)
	}
	return out
}

func pick8[T comparable](table []T, i uint8) Opt[T] {
	if i == 0xFF {
		return Opt[T]{}
	}
	return Some(table[i])
}

func pick16[T comparable](table []T, i uint16) Opt[T] {
	if i == NoIndex {
		return Opt[T]{}
	}
	return Some(table[i])
}

func readMaterials(r *binio.Reader) ([]Material, error) {
	sec, err := binio.OpenSection(r, tagMAT3)
	if err != nil {
		return nil, err
	}
	count := int(r.U16())
	r.Skip(2)
	offsets := make([]int, mat3Tables)
	for i := range offsets {
		offsets[i] = int(r.U32())
	}
	sizes := SubTableSizes(offsets, sec.Size)

	t := mat3Data{
		indirect:      readTable(r, sec, offsets[tblIndirect], sizes[tblIndirect], indirectCodec),
		cull:          readTable(r, sec, offsets[tblCull], sizes[tblCull], cullCodec),
		matColors:     readTable(r, sec, offsets[tblMatColor], sizes[tblMatColor], rgbaCodec),
		chanCounts:    readTable(r, sec, offsets[tblChanCount], sizes[tblChanCount], u8Codec),
		chanCtrls:     readTable(r, sec, offsets[tblChanCtrl], sizes[tblChanCtrl], channelCodec),
		ambColors:     readTable(r, sec, offsets[tblAmbColor], sizes[tblAmbColor], rgbaCodec),
		lights:        readTable(r, sec, offsets[tblLight], sizes[tblLight], lightCodec),
		texGenCounts:  readTable(r, sec, offsets[tblTexGenCount], sizes[tblTexGenCount], u8Codec),
		texGens:       readTable(r, sec, offsets[tblTexGen], sizes[tblTexGen], texGenCodec),
		postTexGens:   readTable(r, sec, offsets[tblPostTexGen], sizes[tblPostTexGen], texGenCodec),
		texMatrices:   readTable(r, sec, offsets[tblTexMatrix], sizes[tblTexMatrix], texMatrixCodec),
		postTexMatrix: readTable(r, sec, offsets[tblPostTexMatrix], sizes[tblPostTexMatrix], texMatrixCodec),
		texRemap:      readTable(r, sec, offsets[tblTexRemap], sizes[tblTexRemap], u16Codec),
		tevOrders:     readTable(r, sec, offsets[tblTevOrder], sizes[tblTevOrder], tevOrderCodec),
		tevColors:     readTable(r, sec, offsets[tblTevColor], sizes[tblTevColor], colorS16Codec),
		konstColors:   readTable(r, sec, offsets[tblKonstColor], sizes[tblKonstColor], rgbaCodec),
		tevCounts:     readTable(r, sec, offsets[tblTevStageCount], sizes[tblTevStageCount], u8Codec),
		tevStages:     readTable(r, sec, offsets[tblTevStage], sizes[tblTevStage], tevStageCodec),
		swapModes:     readTable(r, sec, offsets[tblSwapMode], sizes[tblSwapMode], swapModeCodec),
		swapTables:    readTable(r, sec, offsets[tblSwapTable], sizes[tblSwapTable], swapTableCodec),
		fogs:          readTable(r, sec, offsets[tblFog], sizes[tblFog], fogCodec),
		alphaComps:    readTable(r, sec, offsets[tblAlphaCompare], sizes[tblAlphaCompare], alphaCompareCodec),
		blends:        readTable(r, sec, offsets[tblBlend], sizes[tblBlend], blendCodec),
		zModes:        readTable(r, sec, offsets[tblZMode], sizes[tblZMode], zModeCodec),
		zCompLocs:     readTable(r, sec, offsets[tblZCompLoc], sizes[tblZCompLoc], boolCodec),
		dithers:       readTable(r, sec, offsets[tblDither], sizes[tblDither], boolCodec),
		nbtScales:     readTable(r, sec, offsets[tblNBTScale], sizes[tblNBTScale], nbtScaleCodec),
	}

	r.Seek(sec.At(offsets[tblRemap]))
	remap := make([]int, count)
	physical := 0
	for i := range remap {
		remap[i] = int(r.U16())
		physical = max(physical, remap[i]+1)
	}
	names := binio.ReadNameTable(r, sec.At(offsets[tblNames]))
	if r.Err() != nil {
		return nil, fmt.Errorf("bmd: MAT3 tables: %w", r.Err())
	}

	records := make([]Material, physical)
	for i := range records {
		r.Seek(sec.At(offsets[tblMaterials] + materialRecordSize*i))
		records[i] = t.readRecord(r, i)
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("bmd: MAT3 materials: %w", r.Err())
	}

	mats := make([]Material, count)
	for i, p := range remap {
		mats[i] = records[p]
		if i < len(names) {
			mats[i].Name = names[i]
		}
	}
	r.Seek(sec.End())
	return mats, nil
}

// readRecord decodes physical material i at the cursor. Out-of-range
// indices panic, except for the optional indirect block which is skipped
// with a warning.
func (t *mat3Data) readRecord(r *binio.Reader, i int) Material {
	var m Material
	m.Flag = r.U8()
	m.CullMode = pick8(t.cull, r.U8())
	m.ColorChannelCount = pick8(t.chanCounts, r.U8())
	m.TexGenCount = pick8(t.texGenCounts, r.U8())
	m.TevStageCount = pick8(t.tevCounts, r.U8())
	m.ZCompLoc = pick8(t.zCompLocs, r.U8())
	m.ZMode = pick8(t.zModes, r.U8())
	m.Dither = pick8(t.dithers, r.U8())

	for k := range m.MaterialColors {
		m.MaterialColors[k] = pick16(t.matColors, r.U16())
	}
	for k := range m.ChannelControls {
		m.ChannelControls[k] = pick16(t.chanCtrls, r.U16())
	}
	for k := range m.AmbientColors {
		m.AmbientColors[k] = pick16(t.ambColors, r.U16())
	}
	for k := range m.Lights {
		m.Lights[k] = pick16(t.lights, r.U16())
	}
	for k := range m.TexGens {
		m.TexGens[k] = pick16(t.texGens, r.U16())
	}
	for k := range m.PostTexGens {
		m.PostTexGens[k] = pick16(t.postTexGens, r.U16())
	}
	for k := range m.TexMatrices {
		m.TexMatrices[k] = pick16(t.texMatrices, r.U16())
	}
	for k := range m.PostTexMatrices {
		m.PostTexMatrices[k] = pick16(t.postTexMatrix, r.U16())
	}
	for k := range m.Textures {
		if tex := pick16(t.texRemap, r.U16()); tex.Set {
			m.Textures[k] = Some(int(tex.Value))
		}
	}
	for k := range m.KonstColors {
		m.KonstColors[k] = pick16(t.konstColors, r.U16())
	}
	for k := range m.KonstColorSel {
		m.KonstColorSel[k] = r.U8()
	}
	for k := range m.KonstAlphaSel {
		m.KonstAlphaSel[k] = r.U8()
	}
	for k := range m.TevOrders {
		m.TevOrders[k] = pick16(t.tevOrders, r.U16())
	}
	for k := range m.TevColors {
		m.TevColors[k] = pick16(t.tevColors, r.U16())
	}
	for k := range m.TevStages {
		m.TevStages[k] = pick16(t.tevStages, r.U16())
	}
	for k := range m.SwapModes {
		m.SwapModes[k] = pick16(t.swapModes, r.U16())
	}
	for k := range m.SwapTables {
		m.SwapTables[k] = pick16(t.swapTables, r.U16())
	}
	r.Skip(24) // unused slots
	m.Fog = pick16(t.fogs, r.U16())
	m.AlphaCompare = pick16(t.alphaComps, r.U16())
	m.BlendMode = pick16(t.blends, r.U16())

	nbt := r.U16()
	switch {
	case nbt == NoIndex:
	case int(nbt) < len(t.nbtScales):
		m.NBTScale = Some(t.nbtScales[nbt])
	default:
		Logger.Printf("material %d: NBT scale index %d out of range (%d entries), skipped", i, nbt, len(t.nbtScales))
	}

	if t.indirect != nil {
		switch {
		case i >= len(t.indirect):
			Logger.Printf("material %d: no indirect texturing entry (%d entries), skipped", i, len(t.indirect))
		case t.indirect[i] != (Indirect{}):
			m.Indirect = Some(t.indirect[i])
		}
	}
	return m
}
