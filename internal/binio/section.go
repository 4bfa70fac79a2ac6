package binio

import (
	"errors"
	"fmt"
)

// ErrBadMagic reports a section or file tag that does not match the expected one.
var ErrBadMagic = errors.New("binio: bad magic")

// SectionAlign is the alignment every section is padded to.
const SectionAlign = 32

// Section locates a tagged, length-prefixed region inside a reader.
// Interior offsets are relative to Start.
type Section struct {
	Tag   string
	Start int
	Size  int
}

// End returns the absolute position one past the section.
func (s Section) End() int { return s.Start + s.Size }

// At converts a section-relative offset to an absolute position.
func (s Section) At(off int) int { return s.Start + off }

// OpenSection reads the 8-byte header at the cursor and checks its tag.
// The cursor is left just after the header.
func OpenSection(r *Reader, tag string) (Section, error) {
	start := r.Pos()
	got := r.Tag()
	size := int(r.U32())
	if r.Err() != nil {
		return Section{}, fmt.Errorf("binio: %s header: %w", tag, r.Err())
	}
	if got != tag {
		return Section{}, fmt.Errorf("%w: want %q at 0x%x, got %q", ErrBadMagic, tag, start, got)
	}
	if size < 8 || start+size > r.Len() {
		return Section{}, fmt.Errorf("binio: %s size 0x%x out of range: %w", tag, size, ErrShortData)
	}
	return Section{Tag: tag, Start: start, Size: size}, nil
}

// SectionWriter builds one section in its own buffer so that all interior
// offsets are simply buffer positions.
type SectionWriter struct {
	*Writer
	sizePos int
}

// NewSection starts a section buffer with its tag and a length placeholder.
func NewSection(tag string) *SectionWriter {
	w := NewWriter()
	w.Tag(tag)
	return &SectionWriter{Writer: w, sizePos: w.Placeholder32()}
}

// Finish pads the section to SectionAlign, patches its length and returns the bytes.
func (s *SectionWriter) Finish() []byte {
	s.Align(SectionAlign)
	s.PatchU32(s.sizePos, uint32(s.Len()))
	return s.Bytes()
}
