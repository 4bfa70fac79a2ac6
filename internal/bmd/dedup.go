package bmd

// findOrAdd returns the index of the first element of *list equal to v,
// appending v when none matches. Insertion order is preserved.
func findOrAdd[T comparable](list *[]T, v T) int {
	for i, e := range *list {
		if e == v {
			return i
		}
	}
	*list = append(*list, v)
	return len(*list) - 1
}
