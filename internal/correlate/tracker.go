package correlate

import (
	"sync"
	"time"
)

// RuleSpec describes one stateful correlation rule: how many events within
// the window make it fire.
type RuleSpec struct {
	Name      string
	Threshold int
	Window    time.Duration
}

// TrackerKey identifies one sliding window: a rule and the correlation key
// (typically a source IP) its counters are partitioned by.
type TrackerKey struct {
	Rule string
	Key  string
}

// Trigger is the result of evaluating one rule for one key
type Trigger struct {
	Fired     bool
	Count     int
	Threshold int
	Window    time.Duration
}

// window holds the event timestamps for one TrackerKey. Its mutex makes the
// prune/append/check/reset sequence atomic per key while leaving other keys
// free to proceed.
type window struct {
	mu       sync.Mutex
	times    []time.Time
	lastSeen time.Time
	evicted  bool
}

const (
	// DefaultMaxTrackedKeys caps the tracker map so a spoofed-source flood
	// cannot grow it without bound
	DefaultMaxTrackedKeys = 5000

	defaultGCInterval = 1 * time.Minute
)

// Tracker owns every sliding window in the pipeline. The outer mutex guards
// only the map; each window carries its own lock.
type Tracker struct {
	mu      sync.Mutex
	windows map[TrackerKey]*window
	maxKeys int

	gcTicker *time.Ticker
	stopGC   chan struct{}
}

// NewTracker creates a tracker capped at maxKeys windows (0 means the default cap)
func NewTracker(maxKeys int) *Tracker {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxTrackedKeys
	}
	return &Tracker{
		windows: make(map[TrackerKey]*window),
		maxKeys: maxKeys,
	}
}

// Evaluate runs one rule for one key at the given instant:
// drop timestamps outside the window, append now, and fire when the
// population reaches the threshold. Firing clears the window so sustained
// behavior produces one alert per threshold crossing instead of one per
// event.
func (t *Tracker) Evaluate(rule RuleSpec, key string, now time.Time) Trigger {
	tk := TrackerKey{Rule: rule.Name, Key: key}
	w := t.getOrCreate(tk)
	w.mu.Lock()
	// the window may have been evicted between the map lookup and taking
	// its lock; events recorded on an orphan would be lost
	for w.evicted {
		w.mu.Unlock()
		w = t.getOrCreate(tk)
		w.mu.Lock()
	}
	defer w.mu.Unlock()

	kept := w.times[:0]
	for _, ts := range w.times {
		if now.Sub(ts) < rule.Window {
			kept = append(kept, ts)
		}
	}
	w.times = append(kept, now)
	w.lastSeen = now

	trig := Trigger{
		Count:     len(w.times),
		Threshold: rule.Threshold,
		Window:    rule.Window,
	}
	if len(w.times) >= rule.Threshold {
		w.times = nil
		trig.Fired = true
	}
	return trig
}

// Population returns the current number of events in a window without
// mutating it. Mostly useful for tests and stats.
func (t *Tracker) Population(rule, key string) int {
	t.mu.Lock()
	w, ok := t.windows[TrackerKey{Rule: rule, Key: key}]
	t.mu.Unlock()
	if !ok {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.times)
}

func (t *Tracker) getOrCreate(key TrackerKey) *window {
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, ok := t.windows[key]; ok {
		return w
	}
	if len(t.windows) >= t.maxKeys {
		t.evictLowPriority()
	}
	w := &window{}
	t.windows[key] = w
	return w
}

// evictLowPriority removes one window, preferring the smallest population
// and, on ties, the stalest. Caller must hold t.mu.
func (t *Tracker) evictLowPriority() {
	var victim TrackerKey
	found := false
	lowest := int(^uint(0) >> 1)
	var oldest time.Time

	for key, w := range t.windows {
		w.mu.Lock()
		n := len(w.times)
		seen := w.lastSeen
		w.mu.Unlock()

		if !found || n < lowest || (n == lowest && seen.Before(oldest)) {
			lowest = n
			oldest = seen
			victim = key
			found = true
		}
	}
	if found {
		w := t.windows[victim]
		w.mu.Lock()
		w.evicted = true
		w.mu.Unlock()
		delete(t.windows, victim)
	}
}

// GC drops windows that have seen no events for maxAge. An empty window and
// a deleted one are equivalent, so this only reclaims memory.
func (t *Tracker) GC(now time.Time, maxAge time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, w := range t.windows {
		w.mu.Lock()
		stale := now.Sub(w.lastSeen) > maxAge
		if stale {
			w.evicted = true
		}
		w.mu.Unlock()
		if stale {
			delete(t.windows, key)
		}
	}
}

// StartGC runs GC on a fixed interval until StopGC is called
func (t *Tracker) StartGC(maxAge time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gcTicker != nil {
		return
	}
	t.gcTicker = time.NewTicker(defaultGCInterval)
	t.stopGC = make(chan struct{})

	go func(ticker *time.Ticker, stop chan struct{}) {
		for {
			select {
			case <-ticker.C:
				t.GC(time.Now(), maxAge)
			case <-stop:
				return
			}
		}
	}(t.gcTicker, t.stopGC)
}

// StopGC stops the background sweep
func (t *Tracker) StopGC() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gcTicker != nil {
		t.gcTicker.Stop()
		t.gcTicker = nil
	}
	if t.stopGC != nil {
		close(t.stopGC)
		t.stopGC = nil
	}
}

// Snapshot exports every non-empty window's timestamps, for persistence
// across restarts
func (t *Tracker) Snapshot() map[TrackerKey][]time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := make(map[TrackerKey][]time.Time, len(t.windows))
	for key, w := range t.windows {
		w.mu.Lock()
		if len(w.times) > 0 {
			times := make([]time.Time, len(w.times))
			copy(times, w.times)
			snap[key] = times
		}
		w.mu.Unlock()
	}
	return snap
}

// Restore replaces the tracker contents with a previously exported snapshot
func (t *Tracker) Restore(snap map[TrackerKey][]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.windows = make(map[TrackerKey]*window, len(snap))
	for key, times := range snap {
		if len(times) == 0 {
			continue
		}
		w := &window{
			times:    make([]time.Time, len(times)),
			lastSeen: times[len(times)-1],
		}
		copy(w.times, times)
		t.windows[key] = w
	}
}
