package texture

import "strings"

// Index maps lower-cased texture names to their position in a texture list.
// The first texture with a given name wins.
type Index struct {
	entries map[string]int
}

// BuildIndex indexes textures by name.
func BuildIndex(textures []Texture) *Index {
	idx := &Index{entries: make(map[string]int, len(textures))}
	for i, t := range textures {
		key := strings.ToLower(t.Name())
		if _, exists := idx.entries[key]; !exists {
			idx.entries[key] = i
		}
	}
	return idx
}

// Lookup returns the index of the texture called name, or (-1, false).
func (idx *Index) Lookup(name string) (int, bool) {
	i, ok := idx.entries[strings.ToLower(name)]
	if !ok {
		return -1, false
	}
	return i, true
}

// Len returns the number of indexed names.
func (idx *Index) Len() int {
	return len(idx.entries)
}
