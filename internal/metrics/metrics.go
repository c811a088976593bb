// Package metrics wires the buffer pool and sketch packages to a small set
// of prometheus counters. Recorders are created per-instance rather than
// registered against the global prometheus registry, so tests can each use
// their own without collector-already-registered panics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder counts buffer pool hit/miss/eviction events per replacer policy
// and CMS inserts. It does not guard against a nil receiver itself; callers
// must nil-check before calling its methods, the same way BufferPool
// nil-checks its own metrics field.
type Recorder struct {
	registry *prometheus.Registry

	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	evictions *prometheus.CounterVec
	inserts   prometheus.Counter
}

// New creates a Recorder backed by its own private registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buffer_pool_hits_total",
			Help: "Number of AllocateFrame calls served from the buffer pool.",
		}, []string{"policy"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buffer_pool_misses_total",
			Help: "Number of AllocateFrame calls that required a disk read.",
		}, []string{"policy"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buffer_pool_evictions_total",
			Help: "Number of frames evicted to satisfy a frame request.",
		}, []string{"policy"}),
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sketch_inserts_total",
			Help: "Number of CountMinSketch.Insert calls recorded by the admission filter.",
		}),
	}

	registry.MustRegister(r.hits, r.misses, r.evictions, r.inserts)
	return r
}

// Registry exposes the underlying registry, e.g. for a future HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Hit(policy string)      { r.hits.WithLabelValues(policy).Inc() }
func (r *Recorder) Miss(policy string)     { r.misses.WithLabelValues(policy).Inc() }
func (r *Recorder) Eviction(policy string) { r.evictions.WithLabelValues(policy).Inc() }
func (r *Recorder) Insert()                { r.inserts.Inc() }
