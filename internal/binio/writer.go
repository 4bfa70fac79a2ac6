package binio

import (
	"encoding/binary"
	"math"
)

// Padding is the filler sequence used for every alignment gap.
const Padding = "This is padding data to alignment."

// Writer is a growable big-endian buffer. Values whose position is only
// known later are written as placeholders and fixed with the Patch methods.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) S8(v int8) { w.U8(uint8(v)) }

func (w *Writer) U16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

func (w *Writer) S16(v int16) { w.U16(uint16(v)) }

func (w *Writer) U24(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

func (w *Writer) U32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

func (w *Writer) S32(v int32) { w.U32(uint32(v)) }

func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

func (w *Writer) Write(b []byte) { w.buf = append(w.buf, b...) }

// Fill appends n copies of b.
func (w *Writer) Fill(b byte, n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, b)
	}
}

func (w *Writer) Tag(tag string) {
	var t [4]byte
	copy(t[:], tag)
	w.buf = append(w.buf, t[:]...)
}

// CString appends s followed by a NUL byte.
func (w *Writer) CString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// Placeholder32 reserves a 32-bit slot and returns its position.
func (w *Writer) Placeholder32() int {
	pos := len(w.buf)
	w.U32(0)
	return pos
}

func (w *Writer) PatchU16(pos int, v uint16) {
	binary.BigEndian.PutUint16(w.buf[pos:], v)
}

func (w *Writer) PatchU32(pos int, v uint32) {
	binary.BigEndian.PutUint32(w.buf[pos:], v)
}

// Align pads the buffer to a multiple of n using the filler sequence.
func (w *Writer) Align(n int) {
	pad := (n - len(w.buf)%n) % n
	for i := 0; i < pad; i++ {
		w.buf = append(w.buf, Padding[i%len(Padding)])
	}
}
