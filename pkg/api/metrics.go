package api

import (
	"expvar"
	"sync"

	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// Metrics are expvar counters published under /debug/vars.
type Metrics struct {
	succeeded *expvar.Int
	cacheHits *expvar.Int
	failed    *expvar.Map // keyed by stage tag
}

var (
	metricsMu sync.Mutex
	published = make(map[string]*Metrics)
)

// NewMetrics returns the counters published under prefix, publishing them on
// first use. expvar names are process-global, so the same prefix always
// yields the same Metrics.
func NewMetrics(prefix string) *Metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if m, ok := published[prefix]; ok {
		return m
	}
	m := &Metrics{
		succeeded: expvar.NewInt(prefix + ".evaluations_succeeded"),
		cacheHits: expvar.NewInt(prefix + ".cache_hits"),
		failed:    expvar.NewMap(prefix + ".evaluations_failed"),
	}
	published[prefix] = m
	return m
}

// observe records the outcome of one evaluation. A nil receiver is a no-op.
func (m *Metrics) observe(err error, cacheHit bool) {
	if m == nil {
		return
	}
	if cacheHit {
		m.cacheHits.Add(1)
	}
	if err == nil {
		m.succeeded.Add(1)
		return
	}
	stage := "unknown"
	if ce, ok := types.AsCalcError(err); ok {
		stage = ce.Stage()
	}
	m.failed.Add(stage, 1)
}

// Succeeded returns the number of successful evaluations observed.
func (m *Metrics) Succeeded() int64 {
	return m.succeeded.Value()
}

// CacheHits returns the number of evaluations answered from the cache.
func (m *Metrics) CacheHits() int64 {
	return m.cacheHits.Value()
}

// Failed returns the number of rejected evaluations observed for a stage tag.
func (m *Metrics) Failed(stage string) int64 {
	if v, ok := m.failed.Get(stage).(*expvar.Int); ok {
		return v.Value()
	}
	return 0
}
