// Package filterutil contains small helper functions shared by the filtering
// engine packages.
package filterutil

// FastHashBetween implements the djb2 hash algorithm for a substring of str.
func FastHashBetween(str string, begin, end int) uint32 {
	hash := uint32(5381)
	for i := begin; i < end; i++ {
		hash = (hash * 33) ^ uint32(str[i])
	}

	return hash
}

// FastHash implements the djb2 hash algorithm.
func FastHash(str string) uint32 {
	if str == "" {
		return 0
	}

	return FastHashBetween(str, 0, len(str))
}
