// Package metrics keeps in-process latency percentiles for pipeline stages.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Pipeline stages recorded by the triage service.
const (
	StageItem   = "item"
	StageTitle  = "title"
	StageDraft  = "draft"
	StagePack   = "pack"
	StageSheet  = "sheet"
	StageNotify = "notify"
)

// DefaultWindow is the number of recent samples kept per stage.
const DefaultWindow = 500

// Tracker keeps the most recent latencies of one stage in a ring buffer.
type Tracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
	total   int64
}

// NewTracker creates a tracker keeping window samples (DefaultWindow when <= 0).
func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{samples: make([]time.Duration, window)}
}

// Record adds one sample, overwriting the oldest once the window is full.
func (t *Tracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples[t.next] = d
	t.next = (t.next + 1) % len(t.samples)
	if t.next == 0 {
		t.full = true
	}
	t.total++
}

// Stats summarises the samples in the window.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	n := t.next
	if t.full {
		n = len(t.samples)
	}
	window := make([]time.Duration, n)
	copy(window, t.samples[:n])
	total := t.total
	t.mu.Unlock()

	if n == 0 {
		return Stats{}
	}
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })

	var sum time.Duration
	for _, d := range window {
		sum += d
	}
	return Stats{
		Count:   total,
		Samples: n,
		MinMS:   millis(window[0]),
		MaxMS:   millis(window[n-1]),
		AvgMS:   millis(sum / time.Duration(n)),
		P50MS:   millis(percentile(window, 0.50)),
		P95MS:   millis(percentile(window, 0.95)),
		P99MS:   millis(percentile(window, 0.99)),
	}
}

// percentile uses nearest-rank on sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// Stats are latency figures of one stage. Count covers every sample ever recorded,
// the rest only the current window.
type Stats struct {
	Count   int64   `json:"count"`
	Samples int     `json:"samples"`
	MinMS   float64 `json:"min_ms"`
	MaxMS   float64 `json:"max_ms"`
	AvgMS   float64 `json:"avg_ms"`
	P50MS   float64 `json:"p50_ms"`
	P95MS   float64 `json:"p95_ms"`
	P99MS   float64 `json:"p99_ms"`
}

// Registry holds one Tracker per stage. A nil *Registry ignores every call.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
	window   int
}

// NewRegistry creates a registry whose trackers keep window samples.
func NewRegistry(window int) *Registry {
	return &Registry{trackers: make(map[string]*Tracker), window: window}
}

// Record adds a sample for stage.
func (r *Registry) Record(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.mu.RLock()
	tracker, ok := r.trackers[stage]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		if tracker, ok = r.trackers[stage]; !ok {
			tracker = NewTracker(r.window)
			r.trackers[stage] = tracker
		}
		r.mu.Unlock()
	}
	tracker.Record(d)
}

// Time starts timing stage; call the returned func when the stage ends.
func (r *Registry) Time(stage string) func() {
	start := time.Now()
	return func() { r.Record(stage, time.Since(start)) }
}

// All returns the stats of every recorded stage.
func (r *Registry) All() map[string]Stats {
	result := make(map[string]Stats)
	if r == nil {
		return result
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for stage, tracker := range r.trackers {
		result[stage] = tracker.Stats()
	}
	return result
}
