// Package sketch implements a Count-Min Sketch, a probabilistic structure
// for estimating the frequency of keys in a stream with sub-linear memory,
// at the cost of a tunable one-sided overestimation error.
package sketch

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

// Key enumerates the value kinds a CountMinSketch can be instantiated over.
type Key interface {
	int32 | int64 | string
}

// Entry is one (key, estimated count) pair, as returned by TopK.
type Entry[K Key] struct {
	Key   K
	Count uint32
}

// CountMinSketch estimates per-key frequencies using depth independent hash
// rows of width counters each. Counting never undercounts; it may
// overcount when two keys collide in the same row for every row they share.
type CountMinSketch[K Key] struct {
	width, depth uint32
	counters     [][]uint32 // depth rows x width columns
	seeds        []uint64   // one seed per row, fixed at construction
}

// New builds a sketch with the given width (columns per row) and depth
// (number of rows / hash functions). Both must be positive.
func New[K Key](width, depth uint32) (*CountMinSketch[K], error) {
	if width == 0 || depth == 0 {
		return nil, util.ErrInvalidSketchDimensions
	}

	seeds := make([]uint64, depth)
	for i := range seeds {
		seeds[i] = splitmix64(uint64(i))
	}

	counters := make([][]uint32, depth)
	for i := range counters {
		counters[i] = make([]uint32, width)
	}

	return &CountMinSketch[K]{width: width, depth: depth, counters: counters, seeds: seeds}, nil
}

// Width and Depth report the sketch's fixed dimensions.
func (s *CountMinSketch[K]) Width() uint32 { return s.width }
func (s *CountMinSketch[K]) Depth() uint32 { return s.depth }

// Insert records a single occurrence of k.
func (s *CountMinSketch[K]) Insert(k K) {
	s.Add(k, 1)
}

// Add records count occurrences of k in one step.
func (s *CountMinSketch[K]) Add(k K, count uint32) {
	h := xxhash.Sum64(keyBytes(k))
	for row := uint32(0); row < s.depth; row++ {
		idx := s.columnFor(row, h)
		s.counters[row][idx] += count
	}
}

// Count returns the estimated number of occurrences of k: the minimum
// counter across all rows, which is never less than the true count.
func (s *CountMinSketch[K]) Count(k K) uint32 {
	h := xxhash.Sum64(keyBytes(k))
	min := uint32(math.MaxUint32)
	for row := uint32(0); row < s.depth; row++ {
		idx := s.columnFor(row, h)
		if c := s.counters[row][idx]; c < min {
			min = c
		}
	}
	return min
}

// Clear zeroes every counter, discarding all recorded frequency data.
func (s *CountMinSketch[K]) Clear() {
	for row := range s.counters {
		for i := range s.counters[row] {
			s.counters[row][i] = 0
		}
	}
}

// Merge folds another sketch's counters into this one. The two sketches
// must share width, depth, and per-row seeds - otherwise their counters
// are not comparable and merging would silently corrupt the estimate.
func (s *CountMinSketch[K]) Merge(other *CountMinSketch[K]) error {
	if other == nil || other.width != s.width || other.depth != s.depth {
		return util.ErrSketchShapeMismatch
	}
	for i := range s.seeds {
		if s.seeds[i] != other.seeds[i] {
			return util.ErrSketchShapeMismatch
		}
	}

	for row := range s.counters {
		for i := range s.counters[row] {
			s.counters[row][i] += other.counters[row][i]
		}
	}
	return nil
}

// TopK ranks candidates by estimated count, descending, and returns the
// top min(k, len(candidates)) entries - never padded with phantom
// zero-count entries for a k larger than the candidate set.
func (s *CountMinSketch[K]) TopK(candidates []K, k int) ([]Entry[K], error) {
	if k < 0 {
		return nil, util.ErrInvalidTopK
	}

	entries := make([]Entry[K], len(candidates))
	for i, c := range candidates {
		entries[i] = Entry[K]{Key: c, Count: s.Count(c)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if k > len(entries) {
		k = len(entries)
	}
	return entries[:k], nil
}

func (s *CountMinSketch[K]) columnFor(row uint32, h uint64) uint32 {
	mixed := splitmix64(h ^ s.seeds[row])
	return uint32(mixed % uint64(s.width))
}

func keyBytes[K Key](k K) []byte {
	switch v := any(k).(type) {
	case int32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		return b[:]
	case int64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		return b[:]
	case string:
		return []byte(v)
	default:
		panic("sketch: unsupported key type")
	}
}
