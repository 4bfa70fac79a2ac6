package bmd

import (
	"fmt"

	"bmd-codec/internal/binio"
)

// DrawEntry selects either a single bone (rigid) or an envelope.
type DrawEntry struct {
	Weighted bool
	Index    int
}

func readDrawMatrices(r *binio.Reader) ([]DrawEntry, error) {
	sec, err := binio.OpenSection(r, tagDRW1)
	if err != nil {
		return nil, err
	}
	count := int(r.U16())
	r.Skip(2)
	flagOff := int(r.U32())
	indexOff := int(r.U32())

	entries := make([]DrawEntry, count)
	r.Seek(sec.At(flagOff))
	for i := range entries {
		entries[i].Weighted = r.U8() != 0
	}
	r.Seek(sec.At(indexOff))
	for i := range entries {
		entries[i].Index = int(r.U16())
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("bmd: DRW1: %w", r.Err())
	}
	r.Seek(sec.End())
	return entries, nil
}

func writeDrawMatrices(entries []DrawEntry) []byte {
	w := binio.NewSection(tagDRW1)
	w.U16(uint16(len(entries)))
	w.U16(0xFFFF)
	flagAt := w.Placeholder32()
	indexAt := w.Placeholder32()

	w.PatchU32(flagAt, uint32(w.Len()))
	for _, d := range entries {
		if d.Weighted {
			w.U8(1)
		} else {
			w.U8(0)
		}
	}
	w.Align(2)
	w.PatchU32(indexAt, uint32(w.Len()))
	for _, d := range entries {
		w.U16(uint16(d.Index))
	}
	return w.Finish()
}
