package batch

import (
	"sync"
	"testing"
	"time"
)

// collector records released batches and signals each release.
type collector struct {
	mu       sync.Mutex
	batches  [][]Unit
	released chan struct{}
}

func newCollector() *collector {
	return &collector{released: make(chan struct{}, 16)}
}

func (c *collector) release(units []Unit) {
	c.mu.Lock()
	c.batches = append(c.batches, units)
	c.mu.Unlock()
	c.released <- struct{}{}
}

func (c *collector) snapshot() [][]Unit {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]Unit, len(c.batches))
	copy(out, c.batches)
	return out
}

func (c *collector) waitForRelease(t *testing.T) {
	t.Helper()
	select {
	case <-c.released:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch release")
	}
}

func TestCountThresholdReleasesSynchronously(t *testing.T) {
	c := newCollector()
	b, err := New(Config{MaxCount: 3, MaxDelay: time.Hour}, c.release)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	b.Add(Unit{Type: UnitChat, Content: "one"})
	b.Add(Unit{Type: UnitChat, Content: "two"})
	if got := len(c.snapshot()); got != 0 {
		t.Fatalf("releases before threshold = %d, want 0", got)
	}

	b.Add(Unit{Type: UnitChat, Content: "three"})

	batches := c.snapshot()
	if len(batches) != 1 {
		t.Fatalf("releases = %d, want 1", len(batches))
	}
	if len(batches[0]) != 3 {
		t.Fatalf("batch size = %d, want 3", len(batches[0]))
	}
	for i, want := range []string{"one", "two", "three"} {
		if batches[0][i].Content != want {
			t.Fatalf("batch[%d].Content = %q, want %q (insertion order)", i, batches[0][i].Content, want)
		}
	}
	if b.Len() != 0 {
		t.Fatalf("pending after release = %d, want 0", b.Len())
	}
}

func TestUnitsAreStampedAtEnqueue(t *testing.T) {
	c := newCollector()
	b, err := New(Config{MaxCount: 1, MaxDelay: time.Hour}, c.release)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	before := time.Now().UnixMilli()
	b.Add(Unit{Type: UnitSystem, Content: "stamped"})
	after := time.Now().UnixMilli()

	batches := c.snapshot()
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("expected one release of one unit, got %v", batches)
	}

	unit := batches[0][0]
	if unit.ID == "" {
		t.Fatal("expected unit id to be assigned at enqueue")
	}
	if unit.Timestamp < before || unit.Timestamp > after {
		t.Fatalf("timestamp %d outside enqueue window [%d, %d]", unit.Timestamp, before, after)
	}
}

func TestDelayReleasesSingleUnit(t *testing.T) {
	c := newCollector()
	b, err := New(Config{MaxCount: 100, MaxDelay: 20 * time.Millisecond}, c.release)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	b.Add(Unit{Type: UnitChat, Content: "lonely"})
	c.waitForRelease(t)

	batches := c.snapshot()
	if len(batches) != 1 {
		t.Fatalf("releases = %d, want 1", len(batches))
	}
	if len(batches[0]) != 1 || batches[0][0].Content != "lonely" {
		t.Fatalf("batch = %v, want the single queued unit", batches[0])
	}
}

func TestByteThresholdReleasesBeforeCount(t *testing.T) {
	c := newCollector()

	// Measure one serialized unit so the threshold lands exactly on the
	// eighth add regardless of envelope overhead.
	probe, err := New(Config{MaxCount: 100, MaxDelay: time.Hour, MaxBytes: 1 << 20}, c.release)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	content := "0123456789012345678901234567890123456789012345678"
	probe.Add(Unit{Type: UnitChat, Content: content})
	unitSize := probe.SizeBytes()
	if unitSize == 0 {
		t.Fatal("expected non-zero serialized size")
	}
	probe.Clear()

	b, err := New(Config{MaxCount: 10, MaxDelay: time.Hour, MaxBytes: 8 * unitSize}, c.release)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 7; i++ {
		b.Add(Unit{Type: UnitChat, Content: content})
	}
	if got := len(c.snapshot()); got != 0 {
		t.Fatalf("releases after 7 adds = %d, want 0", got)
	}

	b.Add(Unit{Type: UnitChat, Content: content})

	batches := c.snapshot()
	if len(batches) != 1 {
		t.Fatalf("releases after 8 adds = %d, want 1 (byte threshold beats count)", len(batches))
	}
	if len(batches[0]) != 8 {
		t.Fatalf("batch size = %d, want 8", len(batches[0]))
	}

	b.Add(Unit{Type: UnitChat, Content: content})
	b.Add(Unit{Type: UnitChat, Content: content})
	if b.Len() != 2 {
		t.Fatalf("pending after release = %d, want 2 (new accumulation window)", b.Len())
	}
}

func TestThresholdReleaseCancelsDelayTimer(t *testing.T) {
	c := newCollector()
	b, err := New(Config{MaxCount: 2, MaxDelay: 20 * time.Millisecond}, c.release)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	b.Add(Unit{Type: UnitChat, Content: "a"})
	b.Add(Unit{Type: UnitChat, Content: "b"})
	c.waitForRelease(t)

	// The count release must have cancelled the pending timer; waiting past
	// the delay window must not produce a duplicate or empty release.
	time.Sleep(60 * time.Millisecond)
	if got := len(c.snapshot()); got != 1 {
		t.Fatalf("releases = %d, want exactly 1", got)
	}
}

func TestFlushReleasesImmediately(t *testing.T) {
	c := newCollector()
	b, err := New(Config{MaxCount: 100, MaxDelay: time.Hour}, c.release)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	b.Add(Unit{Type: UnitMove, Content: "north"})
	b.Flush()

	batches := c.snapshot()
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("expected one release of one unit, got %v", batches)
	}

	// Flushing empty is a no-op.
	b.Flush()
	if got := len(c.snapshot()); got != 1 {
		t.Fatalf("releases after empty flush = %d, want 1", got)
	}
}

func TestClearDiscardsWithoutRelease(t *testing.T) {
	c := newCollector()
	b, err := New(Config{MaxCount: 100, MaxDelay: 20 * time.Millisecond}, c.release)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	b.Add(Unit{Type: UnitChat, Content: "dropped"})
	b.Clear()

	time.Sleep(60 * time.Millisecond)
	if got := len(c.snapshot()); got != 0 {
		t.Fatalf("releases after Clear = %d, want 0", got)
	}
	if b.Len() != 0 || b.SizeBytes() != 0 {
		t.Fatalf("pending after Clear = %d units / %d bytes, want empty", b.Len(), b.SizeBytes())
	}
}

func TestCloseFlushesPendingUnits(t *testing.T) {
	c := newCollector()
	b, err := New(Config{MaxCount: 100, MaxDelay: time.Hour}, c.release)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	b.Add(Unit{Type: UnitChat, Content: "buffered"})
	b.Close()

	batches := c.snapshot()
	if len(batches) != 1 || batches[0][0].Content != "buffered" {
		t.Fatalf("expected teardown to flush buffered unit, got %v", batches)
	}

	// Adds after close are rejected.
	b.Add(Unit{Type: UnitChat, Content: "late"})
	if got := len(c.snapshot()); got != 1 {
		t.Fatalf("releases after post-close add = %d, want 1", got)
	}
}

func TestDefaultConfigApplied(t *testing.T) {
	b, err := New(Config{}, func([]Unit) {})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	want := DefaultConfig()
	if b.cfg != want {
		t.Fatalf("cfg = %+v, want defaults %+v", b.cfg, want)
	}
}

func TestNewRequiresCallback(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Fatal("expected error for nil release callback")
	}
}

func TestConsumerMayReenterFromCallback(t *testing.T) {
	var b *Batcher
	released := make(chan []Unit, 2)

	b, err := New(Config{MaxCount: 1, MaxDelay: time.Hour}, func(units []Unit) {
		released <- units
		if units[0].Content == "first" {
			b.Add(Unit{Type: UnitSystem, Content: "second"})
		}
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	b.Add(Unit{Type: UnitSystem, Content: "first"})

	for _, want := range []string{"first", "second"} {
		select {
		case units := <-released:
			if len(units) != 1 || units[0].Content != want {
				t.Fatalf("batch = %v, want single unit %q", units, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q release", want)
		}
	}
}
