package texture

import (
	"encoding/binary"
	"fmt"

	"bmd-codec/internal/binio"
)

// Tag is the TEX1 section tag.
const Tag = "TEX1"

// ReadTEX1 reads the texture section at the cursor. Every texture is
// returned as a *Raw.
func ReadTEX1(r *binio.Reader) ([]Texture, error) {
	sec, err := binio.OpenSection(r, Tag)
	if err != nil {
		return nil, err
	}
	count := int(r.U16())
	r.Skip(2)
	headerOff := int(r.U32())
	nameOff := int(r.U32())

	names := binio.ReadNameTable(r, sec.At(nameOff))
	textures := make([]Texture, count)
	for i := range textures {
		hdrPos := sec.At(headerOff + HeaderSize*i)
		r.Seek(hdrPos)
		t := &Raw{}
		copy(t.Header[:], r.Bytes(HeaderSize))
		if i < len(names) {
			t.TexName = names[i]
		}

		palOff := int(binary.BigEndian.Uint32(t.Header[hdrPaletteOffset:]))
		dataOff := int(binary.BigEndian.Uint32(t.Header[hdrDataOffset:]))
		if n := t.paletteCount(); n > 0 && palOff != 0 {
			r.Seek(hdrPos + palOff)
			t.Palette = r.Bytes(2 * n)
		}
		if dataOff != 0 {
			r.Seek(hdrPos + dataOff)
			t.Data = r.Bytes(ImageSize(t.Format(), t.Width(), t.Height(), t.MipCount()))
		}
		clear(t.Header[hdrPaletteOffset : hdrPaletteOffset+4])
		clear(t.Header[hdrDataOffset : hdrDataOffset+4])
		textures[i] = t
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("texture: TEX1: %w", r.Err())
	}
	r.Seek(sec.End())
	return textures, nil
}

// WriteTEX1 builds the texture section. Textures with identical palette and
// image bytes share one copy of the data. Every texture must be a *Raw.
func WriteTEX1(textures []Texture) ([]byte, error) {
	raws := make([]*Raw, len(textures))
	for i, t := range textures {
		raw, ok := t.(*Raw)
		if !ok {
			return nil, fmt.Errorf("texture: %q: cannot write %T", t.Name(), t)
		}
		raws[i] = raw
	}

	w := binio.NewSection(Tag)
	w.U16(uint16(len(raws)))
	w.U16(0xFFFF)
	w.U32(0x20)
	nameAt := w.Placeholder32()
	w.Align(32)

	headersAt := w.Len()
	for _, t := range raws {
		w.Write(t.Header[:])
	}

	type placed struct{ pal, data int }
	var done []*Raw
	var at []placed
	for i, t := range raws {
		var p placed
		shared := -1
		for j, d := range done {
			if d.sameImage(t) {
				shared = j
				break
			}
		}
		if shared >= 0 {
			p = at[shared]
		} else {
			w.Align(32)
			if len(t.Palette) > 0 {
				p.pal = w.Len()
				w.Write(t.Palette)
				w.Align(32)
			}
			p.data = w.Len()
			w.Write(t.Data)
			done = append(done, t)
			at = append(at, p)
		}

		hdr := headersAt + HeaderSize*i
		if p.pal != 0 {
			w.PatchU32(hdr+hdrPaletteOffset, uint32(p.pal-hdr))
		}
		w.PatchU32(hdr+hdrDataOffset, uint32(p.data-hdr))
	}

	w.Align(4)
	w.PatchU32(nameAt, uint32(w.Len()))
	names := make([]string, len(raws))
	for i, t := range raws {
		names[i] = t.TexName
	}
	binio.WriteNameTable(w.Writer, names)
	return w.Finish(), nil
}
