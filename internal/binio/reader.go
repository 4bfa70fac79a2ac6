package binio

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortData is recorded when a read runs past the end of the buffer.
var ErrShortData = errors.New("binio: read past end of data")

// Reader is a big-endian cursor over an in-memory buffer.
// Reads past the end return zero values and record ErrShortData;
// callers check Err once a whole section has been consumed.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first overrun recorded by the reader, if any.
func (r *Reader) Err() error { return r.err }

func (r *Reader) Len() int { return len(r.data) }

func (r *Reader) Pos() int { return r.off }

// Seek moves the cursor to an absolute position.
func (r *Reader) Seek(pos int) {
	if pos < 0 || pos > len(r.data) {
		r.fail()
		r.off = len(r.data)
		return
	}
	r.off = pos
}

func (r *Reader) Skip(n int) { r.Seek(r.off + n) }

func (r *Reader) fail() {
	if r.err == nil {
		r.err = ErrShortData
	}
}

func (r *Reader) take(n int) []byte {
	if r.off+n > len(r.data) {
		r.fail()
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) S8() int8 { return int8(r.U8()) }

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) S16() int16 { return int16(r.U16()) }

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *Reader) S32() int32 { return int32(r.U32()) }

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }

// U24 reads a packed 24-bit big-endian value.
func (r *Reader) U24() uint32 {
	b := r.take(3)
	if b == nil {
		return 0
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Tag reads a 4-byte ASCII tag.
func (r *Reader) Tag() string {
	return string(r.take(4))
}

// CString reads a NUL-terminated string starting at pos without moving the cursor.
func (r *Reader) CString(pos int) string {
	if pos < 0 || pos >= len(r.data) {
		r.fail()
		return ""
	}
	s := r.data[pos:]
	for i, b := range s {
		if b == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

// Slice returns the raw bytes in [start, end) without copying or moving the cursor.
func (r *Reader) Slice(start, end int) []byte {
	if start < 0 || end > len(r.data) || start > end {
		r.fail()
		return nil
	}
	return r.data[start:end]
}
