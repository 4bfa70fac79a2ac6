package texture

import (
	"bytes"
	"encoding/binary"
)

// Texture is an opaque texture object. The model codec only needs its name
// and a content comparison; pixels are never decoded here.
type Texture interface {
	Name() string
	Equal(other Texture) bool
}

// HeaderSize is the size of one TEX1 texture header.
const HeaderSize = 32

// Header field offsets.
const (
	hdrFormat        = 0x00
	hdrWidth         = 0x02
	hdrHeight        = 0x04
	hdrPaletteFormat = 0x09
	hdrPaletteCount  = 0x0A
	hdrPaletteOffset = 0x0C
	hdrMipCount      = 0x18
	hdrDataOffset    = 0x1C
)

// Raw keeps a texture exactly as stored: its header with offsets cleared,
// its palette bytes and its image bytes.
type Raw struct {
	TexName string
	Header  [HeaderSize]byte
	Palette []byte
	Data    []byte
}

func (t *Raw) Name() string { return t.TexName }

// Equal reports whether other is a Raw with identical header, palette and data.
func (t *Raw) Equal(other Texture) bool {
	o, ok := other.(*Raw)
	if !ok {
		return false
	}
	return t.Header == o.Header && t.sameImage(o)
}

func (t *Raw) sameImage(o *Raw) bool {
	return bytes.Equal(t.Palette, o.Palette) && bytes.Equal(t.Data, o.Data)
}

func (t *Raw) Format() uint8 { return t.Header[hdrFormat] }

func (t *Raw) Width() int { return int(binary.BigEndian.Uint16(t.Header[hdrWidth:])) }

func (t *Raw) Height() int { return int(binary.BigEndian.Uint16(t.Header[hdrHeight:])) }

func (t *Raw) MipCount() int { return max(1, int(t.Header[hdrMipCount])) }

func (t *Raw) paletteCount() int {
	return int(binary.BigEndian.Uint16(t.Header[hdrPaletteCount:]))
}

// blockSize returns the block geometry of a GX texture format.
func blockSize(format uint8) (w, h, size int) {
	switch format {
	case 0, 8, 14: // I4, C4, CMPR
		return 8, 8, 32
	case 1, 2, 9: // I8, IA4, C8
		return 8, 4, 32
	case 6: // RGBA8
		return 4, 4, 64
	}
	return 4, 4, 32 // IA8, RGB565, RGB5A3, C14X2
}

// ImageSize returns the byte length of all mip levels of an image.
func ImageSize(format uint8, width, height, mips int) int {
	bw, bh, bb := blockSize(format)
	size := 0
	for l := 0; l < mips; l++ {
		w, h := max(1, width>>l), max(1, height>>l)
		size += ((w + bw - 1) / bw) * ((h + bh - 1) / bh) * bb
	}
	return size
}

// NewRaw builds a single-mip texture. The palette holds 2-byte entries.
func NewRaw(name string, format uint8, width, height int, palette, data []byte) *Raw {
	t := &Raw{TexName: name, Palette: palette, Data: data}
	t.Header[hdrFormat] = format
	binary.BigEndian.PutUint16(t.Header[hdrWidth:], uint16(width))
	binary.BigEndian.PutUint16(t.Header[hdrHeight:], uint16(height))
	binary.BigEndian.PutUint16(t.Header[hdrPaletteCount:], uint16(len(palette)/2))
	t.Header[hdrMipCount] = 1
	return t
}
