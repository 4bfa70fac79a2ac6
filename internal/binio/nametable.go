package binio

// NameHash is the 16-bit hash stored next to every name table entry.
func NameHash(s string) uint16 {
	var h uint16
	for i := 0; i < len(s); i++ {
		h = h*3 + uint16(s[i])
	}
	return h
}

// ReadNameTable reads a name table located at absolute position pos.
// Entry offsets are relative to the table start; the cursor is restored afterwards.
func ReadNameTable(r *Reader, pos int) []string {
	saved := r.Pos()
	defer r.Seek(saved)

	r.Seek(pos)
	count := int(r.U16())
	r.Skip(2)
	names := make([]string, count)
	for i := 0; i < count; i++ {
		r.Skip(2) // hash
		off := int(r.U16())
		names[i] = r.CString(pos + off)
	}
	return names
}

// WriteNameTable appends a name table for names at the current position.
func WriteNameTable(w *Writer, names []string) {
	w.U16(uint16(len(names)))
	w.U16(0xFFFF)

	strOff := 4 + 4*len(names)
	for _, n := range names {
		w.U16(NameHash(n))
		w.U16(uint16(strOff))
		strOff += len(n) + 1
	}
	for _, n := range names {
		w.CString(n)
	}
}
