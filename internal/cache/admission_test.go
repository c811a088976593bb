package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bearlee001/cmu-buffer-pool/internal/metrics"
)

func TestNewAdmissionFilterRejectsInvalidDimensions(t *testing.T) {
	_, err := NewAdmissionFilter(0, 4, nil)
	assert.Error(t, err)
}

func TestAdmitPrefersMoreFrequentCandidate(t *testing.T) {
	f, err := NewAdmissionFilter(256, 4, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		f.Record("hot")
	}
	f.Record("cold")

	assert.True(t, f.Admit("hot", "cold"))
	assert.False(t, f.Admit("cold", "hot"))
}

func TestResetClearsRecordedFrequency(t *testing.T) {
	f, err := NewAdmissionFilter(256, 4, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		f.Record("hot")
	}
	f.Reset()

	assert.False(t, f.Admit("hot", "anything-else"))
}

func TestRecordIncrementsMetricsWhenProvided(t *testing.T) {
	rec := metrics.New()
	f, err := NewAdmissionFilter(64, 3, rec)
	require.NoError(t, err)

	f.Record("a")
	f.Record("b")

	metricFamilies, err := rec.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() == "sketch_inserts_total" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, float64(2), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "expected sketch_inserts_total metric to be registered")
}
