package impactmetrics

import (
	"sync"
	"sync/atomic"
)

// Gauge is a label-bucketed metric that can be set, incremented, or
// decremented. Like Counter, each bucket resets to zero on Collect; this
// is preserved as-is from the grounding source even though it means a
// gauge's reported value does not persist between harvest windows.
type Gauge struct {
	name, help string

	mu     sync.Mutex
	values map[string]*atomic.Int64
}

func newGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help, values: make(map[string]*atomic.Int64)}
}

func (g *Gauge) bucket(labels Labels) *atomic.Int64 {
	key := labelKey(labels)
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.values[key]
	if !ok {
		v = &atomic.Int64{}
		g.values[key] = v
	}
	return v
}

func (g *Gauge) Set(value int64)                           { g.SetWithLabels(value, nil) }
func (g *Gauge) SetWithLabels(value int64, labels Labels)   { g.bucket(labels).Store(value) }
func (g *Gauge) Inc()                                       { g.IncWithLabels(1, nil) }
func (g *Gauge) IncBy(value int64)                          { g.IncWithLabels(value, nil) }
func (g *Gauge) IncWithLabels(value int64, labels Labels)    { g.bucket(labels).Add(value) }
func (g *Gauge) Dec()                                        { g.DecWithLabels(1, nil) }
func (g *Gauge) DecBy(value int64)                           { g.DecWithLabels(value, nil) }
func (g *Gauge) DecWithLabels(value int64, labels Labels)    { g.bucket(labels).Add(-value) }

func (g *Gauge) collect() CollectedMetric {
	g.mu.Lock()
	defer g.mu.Unlock()

	var samples []NumericSample
	for key, v := range g.values {
		val := v.Swap(0)
		if val != 0 {
			samples = append(samples, NumericSample{Labels: parseLabelKey(key), Value: val})
		}
	}
	for key, v := range g.values {
		if v.Load() == 0 {
			delete(g.values, key)
		}
	}
	return CollectedMetric{Name: g.name, Help: g.help, Type: TypeGauge, Samples: samples}
}

func (g *Gauge) restoreSample(s NumericSample) {
	g.SetWithLabels(s.Value, s.Labels)
}
