package correlate

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testRule = RuleSpec{Name: "ssh_bruteforce", Threshold: 5, Window: 60 * time.Second}

func TestTracker_BelowThresholdNeverFires(t *testing.T) {
	tr := NewTracker(0)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	// 4 events within 10 seconds: threshold is 5, nothing may fire
	for i := 0; i < 4; i++ {
		trig := tr.Evaluate(testRule, "203.0.113.7", base.Add(time.Duration(i)*2*time.Second))
		assert.False(t, trig.Fired, "unexpected fire at event %d", i+1)
		assert.Equal(t, i+1, trig.Count)
	}

	// the 5th crosses the threshold
	trig := tr.Evaluate(testRule, "203.0.113.7", base.Add(10*time.Second))
	assert.True(t, trig.Fired)
	assert.Equal(t, 5, trig.Count)
}

func TestTracker_ResetOnTrigger(t *testing.T) {
	tr := NewTracker(0)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		tr.Evaluate(testRule, "10.0.0.1", base.Add(time.Duration(i)*time.Second))
	}

	// window was cleared on fire: the next event starts from population 1
	trig := tr.Evaluate(testRule, "10.0.0.1", base.Add(6*time.Second))
	assert.False(t, trig.Fired)
	assert.Equal(t, 1, trig.Count)
}

func TestTracker_WindowPruning(t *testing.T) {
	tr := NewTracker(0)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	// 4 events, then a 5th more than a window later: the old ones must be
	// gone, so it cannot fire
	for i := 0; i < 4; i++ {
		tr.Evaluate(testRule, "10.0.0.2", base.Add(time.Duration(i)*time.Second))
	}
	trig := tr.Evaluate(testRule, "10.0.0.2", base.Add(90*time.Second))
	assert.False(t, trig.Fired)
	assert.Equal(t, 1, trig.Count, "stale timestamps survived pruning")
}

func TestTracker_ExactWindowBoundaryIsPruned(t *testing.T) {
	tr := NewTracker(0)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	tr.Evaluate(testRule, "10.0.0.3", base)
	// retention is strict (now - t < window): an event exactly window old drops
	trig := tr.Evaluate(testRule, "10.0.0.3", base.Add(testRule.Window))
	assert.Equal(t, 1, trig.Count)
}

func TestTracker_KeysAreIndependent(t *testing.T) {
	tr := NewTracker(0)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		tr.Evaluate(testRule, "10.0.0.4", base.Add(time.Duration(i)*time.Second))
	}
	trig := tr.Evaluate(testRule, "10.0.0.5", base.Add(4*time.Second))
	assert.False(t, trig.Fired)
	assert.Equal(t, 1, trig.Count)

	// same rule name, different rule instance keyed separately
	other := RuleSpec{Name: "web_scan", Threshold: 10, Window: 60 * time.Second}
	trig = tr.Evaluate(other, "10.0.0.4", base.Add(4*time.Second))
	assert.Equal(t, 1, trig.Count, "windows for different rules must not share state")
}

func TestTracker_ConcurrentSameKey(t *testing.T) {
	tr := NewTracker(0)
	rule := RuleSpec{Name: "ssh_bruteforce", Threshold: 5, Window: time.Hour}

	var fired int64
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if tr.Evaluate(rule, "1.2.3.4", time.Now()).Fired {
					atomic.AddInt64(&fired, 1)
				}
			}
		}()
	}
	wg.Wait()

	// 1000 events at threshold 5: exactly 200 fires, no double-counting and
	// no lost resets
	assert.Equal(t, int64(200), fired)
	assert.Equal(t, 0, tr.Population("ssh_bruteforce", "1.2.3.4"))
}

func TestTracker_EvictionCapsKeys(t *testing.T) {
	tr := NewTracker(3)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		tr.Evaluate(testRule, fmt.Sprintf("10.0.0.%d", i), base.Add(time.Duration(i)*time.Second))
	}

	tr.mu.Lock()
	n := len(tr.windows)
	tr.mu.Unlock()
	assert.LessOrEqual(t, n, 3)
}

func TestTracker_GC(t *testing.T) {
	tr := NewTracker(0)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	tr.Evaluate(testRule, "10.0.0.6", base)
	tr.Evaluate(testRule, "10.0.0.7", base.Add(9*time.Minute))

	tr.GC(base.Add(10*time.Minute), 5*time.Minute)

	assert.Equal(t, 0, tr.Population("ssh_bruteforce", "10.0.0.6"))
	assert.Equal(t, 1, tr.Population("ssh_bruteforce", "10.0.0.7"))
}

func TestTracker_SnapshotRestore(t *testing.T) {
	tr := NewTracker(0)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	tr.Evaluate(testRule, "10.0.0.8", base)
	tr.Evaluate(testRule, "10.0.0.8", base.Add(time.Second))

	snap := tr.Snapshot()
	assert.Len(t, snap, 1)

	restored := NewTracker(0)
	restored.Restore(snap)

	// the restored window continues where the old one stopped
	trig := restored.Evaluate(testRule, "10.0.0.8", base.Add(2*time.Second))
	assert.Equal(t, 3, trig.Count)
}

func TestTracker_EvictionMarksOrphanWindows(t *testing.T) {
	tr := NewTracker(1)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	tr.Evaluate(testRule, "10.0.0.1", base)
	tr.mu.Lock()
	orphan := tr.windows[TrackerKey{Rule: testRule.Name, Key: "10.0.0.1"}]
	tr.mu.Unlock()

	// cap is 1, so the second key evicts the first
	tr.Evaluate(testRule, "10.0.0.2", base.Add(time.Second))

	orphan.mu.Lock()
	evicted := orphan.evicted
	orphan.mu.Unlock()
	assert.True(t, evicted, "a removed window must be marked so holders re-fetch")

	// events for the evicted key land in a fresh registered window, not the
	// orphan
	trig := tr.Evaluate(testRule, "10.0.0.1", base.Add(2*time.Second))
	assert.Equal(t, 1, trig.Count)
	assert.Equal(t, 1, tr.Population(testRule.Name, "10.0.0.1"))
	orphan.mu.Lock()
	assert.Len(t, orphan.times, 1, "the orphan must not receive new events")
	orphan.mu.Unlock()
}

func TestTracker_GCMarksOrphanWindows(t *testing.T) {
	tr := NewTracker(0)
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	tr.Evaluate(testRule, "10.0.0.3", base)
	tr.mu.Lock()
	orphan := tr.windows[TrackerKey{Rule: testRule.Name, Key: "10.0.0.3"}]
	tr.mu.Unlock()

	tr.GC(base.Add(time.Hour), 5*time.Minute)

	orphan.mu.Lock()
	assert.True(t, orphan.evicted)
	orphan.mu.Unlock()

	trig := tr.Evaluate(testRule, "10.0.0.3", base.Add(time.Hour))
	assert.Equal(t, 1, trig.Count)
	assert.Equal(t, 1, tr.Population(testRule.Name, "10.0.0.3"))
}
