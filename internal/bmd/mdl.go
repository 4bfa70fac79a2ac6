package bmd

import (
	"bytes"
	"fmt"

	"bmd-codec/internal/binio"
)

// readMDL captures the MDL3 display-list block as raw bytes, header
// included. Its contents are not decoded.
func readMDL(r *binio.Reader) ([]byte, error) {
	sec, err := binio.OpenSection(r, tagMDL3)
	if err != nil {
		return nil, err
	}
	b := bytes.Clone(r.Slice(sec.Start, sec.End()))
	if r.Err() != nil {
		return nil, fmt.Errorf("bmd: MDL3: %w", r.Err())
	}
	r.Seek(sec.End())
	return b, nil
}
