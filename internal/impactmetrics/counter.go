package impactmetrics

import (
	"sync"
	"sync/atomic"
)

// Counter is a monotonically-incrementing, label-bucketed metric that
// resets each bucket to zero on Collect.
type Counter struct {
	name, help string

	mu     sync.Mutex
	values map[string]*atomic.Int64
}

func newCounter(name, help string) *Counter {
	return &Counter{name: name, help: help, values: make(map[string]*atomic.Int64)}
}

func (c *Counter) bucket(labels Labels) *atomic.Int64 {
	key := labelKey(labels)
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		v = &atomic.Int64{}
		c.values[key] = v
	}
	return v
}

// Inc increments the unlabeled bucket by one.
func (c *Counter) Inc() { c.IncWithLabels(1, nil) }

// IncBy increments the unlabeled bucket by value.
func (c *Counter) IncBy(value int64) { c.IncWithLabels(value, nil) }

// IncWithLabels increments the bucket identified by labels by value.
func (c *Counter) IncWithLabels(value int64, labels Labels) {
	c.bucket(labels).Add(value)
}

// collect swaps every bucket to zero, drops the now-empty buckets, and
// returns the pre-swap values. A counter with no non-zero buckets still
// reports a single zero sample, matching the source's "noop" test.
func (c *Counter) collect() CollectedMetric {
	c.mu.Lock()
	defer c.mu.Unlock()

	var samples []NumericSample
	for key, v := range c.values {
		val := v.Swap(0)
		if val != 0 {
			samples = append(samples, NumericSample{Labels: parseLabelKey(key), Value: val})
		}
	}
	for key, v := range c.values {
		if v.Load() == 0 {
			delete(c.values, key)
		}
	}
	if len(samples) == 0 {
		samples = []NumericSample{{Labels: Labels{}, Value: 0}}
	}
	return CollectedMetric{Name: c.name, Help: c.help, Type: TypeCounter, Samples: samples}
}

func (c *Counter) restoreSample(s NumericSample) {
	c.IncWithLabels(s.Value, s.Labels)
}
