// Package cache holds small helpers that sit on top of the buffer pool and
// sketch packages without being part of either's core contract.
package cache

import (
	"github.com/bearlee001/cmu-buffer-pool/internal/metrics"
	"github.com/bearlee001/cmu-buffer-pool/internal/sketch"
)

// AdmissionFilter is a minimal TinyLFU-style gate: it tracks key access
// frequency in a Count-Min Sketch and uses it to decide whether a cache
// miss is "frequent enough" to deserve evicting the pool's current victim,
// instead of blindly trusting whatever replacement policy picked next.
type AdmissionFilter struct {
	sketch  *sketch.CountMinSketch[string]
	metrics *metrics.Recorder
}

// NewAdmissionFilter builds a filter backed by a sketch of the given width
// and depth. metrics may be nil.
func NewAdmissionFilter(width, depth uint32, rec *metrics.Recorder) (*AdmissionFilter, error) {
	s, err := sketch.New[string](width, depth)
	if err != nil {
		return nil, err
	}
	return &AdmissionFilter{sketch: s, metrics: rec}, nil
}

// Record increments key's estimated frequency.
func (f *AdmissionFilter) Record(key string) {
	f.sketch.Insert(key)
	if f.metrics != nil {
		f.metrics.Insert()
	}
}

// Admit reports whether candidateKey's estimated frequency exceeds
// victimKey's - i.e. whether it is worth evicting victimKey to make room
// for candidateKey, rather than treating the miss as scan noise.
func (f *AdmissionFilter) Admit(candidateKey, victimKey string) bool {
	return f.sketch.Count(candidateKey) > f.sketch.Count(victimKey)
}

// Reset clears all recorded frequency data.
func (f *AdmissionFilter) Reset() {
	f.sketch.Clear()
}
