package swatch

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"

	"bmd-codec/internal/bmd"
)

// Columns is the number of color cells per material row:
// 2 material, 2 ambient, 4 TEV and 4 konst colors.
const Columns = 12

// Row returns one material's colors in column order. Unset slots are
// fully transparent.
func Row(m *bmd.Material) [Columns]color.NRGBA {
	var row [Columns]color.NRGBA
	col := 0
	for _, c := range m.MaterialColors {
		row[col] = rgba(c)
		col++
	}
	for _, c := range m.AmbientColors {
		row[col] = rgba(c)
		col++
	}
	for _, c := range m.TevColors {
		if c.Set {
			row[col] = color.NRGBA{clampS16(c.Value[0]), clampS16(c.Value[1]), clampS16(c.Value[2]), clampS16(c.Value[3])}
		}
		col++
	}
	for _, c := range m.KonstColors {
		row[col] = rgba(c)
		col++
	}
	return row
}

func rgba(o bmd.Opt[color.RGBA]) color.NRGBA {
	if !o.Set {
		return color.NRGBA{}
	}
	return color.NRGBA{o.Value.R, o.Value.G, o.Value.B, o.Value.A}
}

// TEV registers hold signed values; only 0..255 is displayable.
func clampS16(v int16) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Sheet lays out one row per material, each color a cell×cell square.
func Sheet(mats []bmd.Material, cell int) *image.NRGBA {
	if cell < 1 {
		cell = 1
	}
	rows := max(len(mats), 1)
	small := image.NewNRGBA(image.Rect(0, 0, Columns, rows))
	for y := range mats {
		for x, c := range Row(&mats[y]) {
			small.SetNRGBA(x, y, c)
		}
	}
	if cell == 1 {
		return small
	}

	dst := image.NewNRGBA(image.Rect(0, 0, Columns*cell, rows*cell))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), small, small.Bounds(), draw.Src, nil)
	return dst
}

// Encode writes img as "webp" or "tga".
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "webp":
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("swatch: WebP encode: %w", err)
		}
	case "tga":
		if err := tga.Encode(w, img); err != nil {
			return fmt.Errorf("swatch: TGA encode: %w", err)
		}
	default:
		return fmt.Errorf("swatch: unknown format %q", format)
	}
	return nil
}

// WriteFile renders the sheet for mats and saves it to path.
func WriteFile(path string, mats []bmd.Material, cell int, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("swatch: %w", err)
	}
	if err := Encode(f, Sheet(mats, cell), format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
