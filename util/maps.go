package util

import (
	"cmp"
	"maps"
	"slices"
)

// CopyMap returns a shallow copy of m. A nil map yields an empty, non-nil map.
func CopyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	maps.Copy(out, m)
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

// MergeLayers composes maps ordered from strongest to weakest into a new map.
// A key present in a stronger layer wins even when its value is the zero value;
// weaker layers only fill keys that are missing. The merge is shallow.
func MergeLayers[K comparable, V any](layers ...map[K]V) map[K]V {
	merged := make(map[K]V)
	for i := len(layers) - 1; i >= 0; i-- {
		maps.Copy(merged, layers[i])
	}
	return merged
}
