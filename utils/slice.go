package utils

func CountTrue(mask []bool) int {
	count := 0
	for _, flag := range mask {
		if flag {
			count++
		}
	}
	return count
}

// TrueIndices returns the positions of mask holding true, converted to the
// caller's id type.
func TrueIndices[T ~int32 | ~int](mask []bool) []T {
	indices := make([]T, 0, len(mask))
	for idx, flag := range mask {
		if flag {
			indices = append(indices, T(idx))
		}
	}
	return indices
}
