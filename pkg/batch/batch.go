// Package batch coalesces intake units into bounded batches so the renderer
// is handed groups of lines instead of one repaint per line. A batch is
// released when its unit count or serialized byte size crosses a threshold,
// or after a bounded delay, whichever comes first.
package batch

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UnitType tags what a batched unit renders as.
type UnitType string

const (
	UnitChat   UnitType = "chat"
	UnitSystem UnitType = "system"
	UnitError  UnitType = "error"
	UnitMove   UnitType = "move"
)

// Unit is one message owned by the batcher from Add until release. ID and
// Timestamp are stamped at enqueue time; Timestamp is epoch milliseconds.
type Unit struct {
	ID        string            `json:"id"`
	Type      UnitType          `json:"type"`
	Content   string            `json:"content"`
	Timestamp int64             `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Config holds the three release thresholds. It is fixed for the lifetime
// of a Batcher.
type Config struct {
	MaxCount int
	MaxDelay time.Duration
	MaxBytes int
}

// DefaultConfig returns the thresholds used when the caller supplies none:
// 10 units, 100 ms, 10 KB.
func DefaultConfig() Config {
	return Config{
		MaxCount: 10,
		MaxDelay: 100 * time.Millisecond,
		MaxBytes: 10 * 1024,
	}
}

// ReleaseFunc receives each released batch. Units arrive in insertion order
// and the slice is the callback's to keep; the batcher drops its reference
// at release.
type ReleaseFunc func(units []Unit)

// Batcher accumulates units and releases them under count, byte, or delay
// pressure. All mutation happens under one mutex; the release callback runs
// outside it so a consumer may re-enter the batcher.
type Batcher struct {
	cfg     Config
	release ReleaseFunc

	mu           sync.Mutex
	pending      []Unit
	pendingBytes int
	timer        *time.Timer
	closed       bool
}

// New validates the release callback and fills unset thresholds from
// DefaultConfig.
func New(cfg Config, release ReleaseFunc) (*Batcher, error) {
	if release == nil {
		return nil, errors.New("release callback is required")
	}

	defaults := DefaultConfig()
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = defaults.MaxCount
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaults.MaxDelay
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaults.MaxBytes
	}

	return &Batcher{cfg: cfg, release: release}, nil
}

// Add stamps the unit with an id and enqueue timestamp, appends it, and
// releases the batch immediately when the count or byte threshold is
// crossed. Otherwise a delay timer covers the accumulation window; only one
// timer is ever pending.
func (b *Batcher) Add(unit Unit) {
	unit.ID = uuid.NewString()
	unit.Timestamp = time.Now().UnixMilli()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}

	b.pending = append(b.pending, unit)
	b.pendingBytes += serializedSize(unit)

	if len(b.pending) >= b.cfg.MaxCount || b.pendingBytes >= b.cfg.MaxBytes {
		units := b.takeLocked()
		b.mu.Unlock()
		b.release(units)
		return
	}

	if b.timer == nil {
		b.timer = time.AfterFunc(b.cfg.MaxDelay, b.onDelayExpired)
	}
	b.mu.Unlock()
}

// Flush releases whatever is pending right now, cancelling the delay timer.
// An empty batcher flushes to nothing; the callback is not invoked.
func (b *Batcher) Flush() {
	b.mu.Lock()
	units := b.takeLocked()
	b.mu.Unlock()

	if len(units) > 0 {
		b.release(units)
	}
}

// Clear discards the pending batch and cancels the delay timer without
// invoking the callback. It is an explicit drop, never part of normal flow.
func (b *Batcher) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimerLocked()
	b.pending = nil
	b.pendingBytes = 0
}

// Close flushes any pending units and rejects further adds. Teardown must
// never silently lose buffered units.
func (b *Batcher) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	units := b.takeLocked()
	b.mu.Unlock()

	if len(units) > 0 {
		b.release(units)
	}
}

// Len reports the number of pending units.
func (b *Batcher) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// SizeBytes reports the cumulative serialized size of pending units.
func (b *Batcher) SizeBytes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingBytes
}

// takeLocked snapshots and empties the live batch and cancels the timer.
// The caller holds the mutex and invokes the callback after unlocking, so
// the callback never observes a batch mid-accumulation.
func (b *Batcher) takeLocked() []Unit {
	b.stopTimerLocked()
	units := b.pending
	b.pending = nil
	b.pendingBytes = 0

	return units
}

func (b *Batcher) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// onDelayExpired releases whatever accumulated during the window, even a
// single unit. A release that happened for another reason already cleared
// the timer handle, and takeLocked leaves nothing behind for a stale fire.
func (b *Batcher) onDelayExpired() {
	b.mu.Lock()
	b.timer = nil
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	units := b.takeLocked()
	b.mu.Unlock()

	b.release(units)
}

// serializedSize measures one unit as its JSON wire length, matching how
// batches are measured downstream.
func serializedSize(unit Unit) int {
	data, err := json.Marshal(unit)
	if err != nil {
		return len(unit.Content)
	}

	return len(data)
}
