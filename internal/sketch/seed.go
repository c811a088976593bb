package sketch

// splitmix64 decorrelates a 64-bit value into another one with good
// avalanche behavior. Used two ways here: to derive independent per-row
// seeds from a row index at construction time, and to mix a key's xxhash
// with a row's seed before folding it into the row's width.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
