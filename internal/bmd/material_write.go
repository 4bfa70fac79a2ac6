package bmd

import (
	"bmd-codec/internal/binio"
)

func idx8[T comparable](list *[]T, o Opt[T]) uint8 {
	if !o.Set {
		return 0xFF
	}
	return uint8(findOrAdd(list, o.Value))
}

func idx16[T comparable](list *[]T, o Opt[T]) uint16 {
	if !o.Set {
		return NoIndex
	}
	return uint16(findOrAdd(list, o.Value))
}

// newMat3Data returns the tables a writer starts from. The cull-mode and
// boolean tables are seeded before any material is serialized.
func newMat3Data() *mat3Data {
	return &mat3Data{
		cull:      []CullMode{CullBack, CullFront, CullNone},
		zCompLocs: []bool{false, true},
		dithers:   []bool{false, true},
	}
}

// DedupMaterials returns the physically unique materials (by content,
// ignoring names) in first-seen order and the logical-to-physical remap.
func DedupMaterials(mats []Material) (unique []Material, remap []int) {
	remap = make([]int, len(mats))
	for i := range mats {
		remap[i] = -1
		for u := range unique {
			if unique[u].SameContent(&mats[i]) {
				remap[i] = u
				break
			}
		}
		if remap[i] < 0 {
			unique = append(unique, mats[i])
			remap[i] = len(unique) - 1
		}
	}
	return unique, remap
}

// writeRecord serializes m, inserting every referenced sub-record into its
// table at first use.
func (t *mat3Data) writeRecord(w *binio.Writer, m *Material) {
	w.U8(m.Flag)
	w.U8(idx8(&t.cull, m.CullMode))
	w.U8(idx8(&t.chanCounts, m.ColorChannelCount))
	w.U8(idx8(&t.texGenCounts, m.TexGenCount))
	w.U8(idx8(&t.tevCounts, m.TevStageCount))
	w.U8(idx8(&t.zCompLocs, m.ZCompLoc))
	w.U8(idx8(&t.zModes, m.ZMode))
	w.U8(idx8(&t.dithers, m.Dither))

	for _, o := range m.MaterialColors {
		w.U16(idx16(&t.matColors, o))
	}
	for _, o := range m.ChannelControls {
		w.U16(idx16(&t.chanCtrls, o))
	}
	for _, o := range m.AmbientColors {
		w.U16(idx16(&t.ambColors, o))
	}
	for _, o := range m.Lights {
		w.U16(idx16(&t.lights, o))
	}
	for _, o := range m.TexGens {
		w.U16(idx16(&t.texGens, o))
	}
	for _, o := range m.PostTexGens {
		w.U16(idx16(&t.postTexGens, o))
	}
	for _, o := range m.TexMatrices {
		w.U16(idx16(&t.texMatrices, o))
	}
	for _, o := range m.PostTexMatrices {
		w.U16(idx16(&t.postTexMatrix, o))
	}
	for _, o := range m.Textures {
		tex := Opt[uint16]{Value: uint16(o.Value), Set: o.Set}
		w.U16(idx16(&t.texRemap, tex))
	}
	for _, o := range m.KonstColors {
		w.U16(idx16(&t.konstColors, o))
	}
	w.Write(m.KonstColorSel[:])
	w.Write(m.KonstAlphaSel[:])
	for _, o := range m.TevOrders {
		w.U16(idx16(&t.tevOrders, o))
	}
	for _, o := range m.TevColors {
		w.U16(idx16(&t.tevColors, o))
	}
	for _, o := range m.TevStages {
		w.U16(idx16(&t.tevStages, o))
	}
	for _, o := range m.SwapModes {
		w.U16(idx16(&t.swapModes, o))
	}
	for _, o := range m.SwapTables {
		w.U16(idx16(&t.swapTables, o))
	}
	w.Fill(0xFF, 24)
	w.U16(idx16(&t.fogs, m.Fog))
	w.U16(idx16(&t.alphaComps, m.AlphaCompare))
	w.U16(idx16(&t.blends, m.BlendMode))
	w.U16(idx16(&t.nbtScales, m.NBTScale))
}

func writeTable[T any](w *binio.SectionWriter, slot int, list []T, c codec[T]) {
	if len(list) == 0 {
		return
	}
	w.PatchU32(0x0C+4*slot, uint32(w.Len()))
	for _, v := range list {
		c.write(w.Writer, v)
	}
	w.Align(4)
}

// writeMaterials emits MAT3. Physical sub-table order follows first use
// across the current material sequence, not the order they were read in.
func writeMaterials(mats []Material) []byte {
	unique, remap := DedupMaterials(mats)

	t := newMat3Data()
	records := binio.NewWriter()
	hasIndirect := false
	for i := range unique {
		t.writeRecord(records, &unique[i])
		hasIndirect = hasIndirect || unique[i].Indirect.Set
	}
	if hasIndirect {
		t.indirect = make([]Indirect, len(unique))
		for i := range unique {
			t.indirect[i] = unique[i].Indirect.Value
		}
	}

	w := binio.NewSection(tagMAT3)
	w.U16(uint16(len(mats)))
	w.U16(0xFFFF)
	for i := 0; i < mat3Tables; i++ {
		w.U32(0)
	}

	w.PatchU32(0x0C+4*tblMaterials, uint32(w.Len()))
	w.Write(records.Bytes())

	w.PatchU32(0x0C+4*tblRemap, uint32(w.Len()))
	for _, p := range remap {
		w.U16(uint16(p))
	}
	w.Align(4)

	names := make([]string, len(mats))
	for i := range mats {
		names[i] = mats[i].Name
	}
	w.PatchU32(0x0C+4*tblNames, uint32(w.Len()))
	binio.WriteNameTable(w.Writer, names)
	w.Align(4)

	writeTable(w, tblIndirect, t.indirect, indirectCodec)
	writeTable(w, tblCull, t.cull, cullCodec)
	writeTable(w, tblMatColor, t.matColors, rgbaCodec)
	writeTable(w, tblChanCount, t.chanCounts, u8Codec)
	writeTable(w, tblChanCtrl, t.chanCtrls, channelCodec)
	writeTable(w, tblAmbColor, t.ambColors, rgbaCodec)
	writeTable(w, tblLight, t.lights, lightCodec)
	writeTable(w, tblTexGenCount, t.texGenCounts, u8Codec)
	writeTable(w, tblTexGen, t.texGens, texGenCodec)
	writeTable(w, tblPostTexGen, t.postTexGens, texGenCodec)
	writeTable(w, tblTexMatrix, t.texMatrices, texMatrixCodec)
	writeTable(w, tblPostTexMatrix, t.postTexMatrix, texMatrixCodec)
	writeTable(w, tblTexRemap, t.texRemap, u16Codec)
	writeTable(w, tblTevOrder, t.tevOrders, tevOrderCodec)
	writeTable(w, tblTevColor, t.tevColors, colorS16Codec)
	writeTable(w, tblKonstColor, t.konstColors, rgbaCodec)
	writeTable(w, tblTevStageCount, t.tevCounts, u8Codec)
	writeTable(w, tblTevStage, t.tevStages, tevStageCodec)
	writeTable(w, tblSwapMode, t.swapModes, swapModeCodec)
	writeTable(w, tblSwapTable, t.swapTables, swapTableCodec)
	writeTable(w, tblFog, t.fogs, fogCodec)
	writeTable(w, tblAlphaCompare, t.alphaComps, alphaCompareCodec)
	writeTable(w, tblBlend, t.blends, blendCodec)
	writeTable(w, tblZMode, t.zModes, zModeCodec)
	writeTable(w, tblZCompLoc, t.zCompLocs, boolCodec)
	writeTable(w, tblDither, t.dithers, boolCodec)
	writeTable(w, tblNBTScale, t.nbtScales, nbtScaleCodec)
	return w.Finish()
}
