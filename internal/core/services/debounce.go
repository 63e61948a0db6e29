package services

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of ticks into a single run after a quiet period.
// It holds one pending trigger at a time and never runs fn concurrently with
// itself. A tick during a run schedules exactly one follow-up run.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	running bool
	rerun   bool
	stopped bool
	wg      sync.WaitGroup
}

// NewDebouncer creates a debouncer that calls fn delay after the last tick.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{
		delay: delay,
		fn:    fn,
	}
}

// Tick (re)starts the pending trigger. Safe for concurrent use.
func (d *Debouncer) Tick() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.running {
		d.rerun = true
		return
	}
	d.scheduleLocked()
}

// Cancel drops the pending trigger without running fn. A follow-up already
// requested by a tick during a run is kept.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop cancels any pending trigger and waits for an in-flight run to finish.
// Ticks after Stop are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.rerun = false
	d.cancelLocked()
	d.mu.Unlock()

	d.wg.Wait()
}

// Pending reports whether a trigger or a follow-up run is waiting.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil || d.rerun
}

// Running reports whether a run is in flight.
func (d *Debouncer) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Debouncer) scheduleLocked() {
	d.cancelLocked()
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// cancelLocked stops the timer and invalidates any callback already queued.
func (d *Debouncer) cancelLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	if d.running {
		d.rerun = true
		d.mu.Unlock()
		return
	}
	d.running = true
	d.wg.Add(1)
	d.mu.Unlock()

	d.execute()
}

func (d *Debouncer) execute() {
	defer d.wg.Done()
	defer func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.running = false
		if d.rerun && !d.stopped {
			d.rerun = false
			d.scheduleLocked()
		}
	}()
	d.fn()
}
