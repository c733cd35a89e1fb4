// Package sched provides the timer primitives that bound how often the
// map-sync subsystem reacts to high-frequency input: a trailing
// debouncer for viewport and source-data events, and a frame scheduler
// that coalesces bursts of triggers into a single recomputation.
package sched

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display frame. The cluster
// reconciler coalesces its recompute triggers to at most one run per
// frame, mirroring animation-frame scheduling in a browser.
const DefaultFrameInterval = 16 * time.Millisecond

// Debouncer delays work until a burst of triggers has quieted for a
// fixed interval. Each Trigger cancels and replaces any pending one, so
// the last call wins and fires once the interval elapses without a new
// trigger (trailing-edge semantics).
//
// All methods are safe for concurrent use. After Stop, triggers are
// dropped; this is what prevents a stale timer callback from mutating
// state after the owning component is torn down.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	gen      uint64
	stopped  bool
}

// NewDebouncer creates a Debouncer with the given trailing interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules fn to run after the debounce interval, replacing
// any previously pending function.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	// Stopping the timer does not cover a callback that has already
	// fired but not yet acquired the lock; the generation check keeps a
	// superseded fn from running after its replacement was scheduled.
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		stale := d.stopped || gen != d.gen
		d.mu.Unlock()
		if !stale {
			fn()
		}
	})
}

// Cancel discards any pending function without disabling the
// debouncer; future triggers schedule normally.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels any pending function and prevents future triggers from
// firing. The pending work is discarded, not flushed.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// FrameScheduler coalesces repeated Schedule calls into at most one
// execution per frame interval. While a run is pending, further calls
// are dropped rather than queued, matching requestAnimationFrame-style
// scheduling.
type FrameScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	pending  bool
	timer    *time.Timer
	stopped  bool
}

// NewFrameScheduler creates a FrameScheduler. A non-positive interval
// falls back to DefaultFrameInterval.
func NewFrameScheduler(interval time.Duration) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameScheduler{interval: interval}
}

// Schedule runs fn on the next frame. If a run is already pending the
// call is a no-op.
func (s *FrameScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.pending {
		return
	}
	s.pending = true
	s.timer = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		s.pending = false
		stopped := s.stopped
		s.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

// Stop cancels any pending run and prevents future scheduling.
func (s *FrameScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
