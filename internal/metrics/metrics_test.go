package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, r *Recorder, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}
			if match {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestHitMissEvictionIncrementPerPolicy(t *testing.T) {
	r := New()

	r.Hit("arc")
	r.Hit("arc")
	r.Miss("arc")
	r.Eviction("lru")

	assert.Equal(t, float64(2), counterValue(t, r, "buffer_pool_hits_total", map[string]string{"policy": "arc"}))
	assert.Equal(t, float64(1), counterValue(t, r, "buffer_pool_misses_total", map[string]string{"policy": "arc"}))
	assert.Equal(t, float64(1), counterValue(t, r, "buffer_pool_evictions_total", map[string]string{"policy": "lru"}))
	assert.Equal(t, float64(0), counterValue(t, r, "buffer_pool_evictions_total", map[string]string{"policy": "arc"}))
}

func TestInsertIncrementsSketchCounter(t *testing.T) {
	r := New()
	r.Insert()
	r.Insert()
	r.Insert()

	assert.Equal(t, float64(3), counterValue(t, r, "sketch_inserts_total", nil))
}

func TestTwoRecordersDoNotShareState(t *testing.T) {
	a := New()
	b := New()

	a.Hit("arc")

	assert.Equal(t, float64(1), counterValue(t, a, "buffer_pool_hits_total", map[string]string{"policy": "arc"}))
	assert.Equal(t, float64(0), counterValue(t, b, "buffer_pool_hits_total", map[string]string{"policy": "arc"}))
}
