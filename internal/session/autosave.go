package session

import (
	"sync"
	"time"
)

// DefaultAutosaveDelay is the quiet period a qualifying change must survive
// before the session is saved.
const DefaultAutosaveDelay = time.Second

// ScheduleFunc runs fn after d. The default uses the runtime timer; tests
// inject a manual scheduler to advance time deterministically.
type ScheduleFunc func(d time.Duration, fn func())

// Debouncer coalesces bursts of triggers into a single callback after a
// quiet period. Each trigger invalidates the pending one (cancel-and-replace,
// last write wins).
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	epoch    uint64
	schedule ScheduleFunc
}

// NewDebouncer builds a Debouncer. A nil schedule uses time.AfterFunc; a
// non-positive delay falls back to DefaultAutosaveDelay.
func NewDebouncer(delay time.Duration, schedule ScheduleFunc) *Debouncer {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if schedule == nil {
		schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	return &Debouncer{delay: delay, schedule: schedule}
}

// Trigger schedules fn after the quiet period, replacing any pending
// callback. Only the newest trigger's fn can ever run.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	d.epoch++
	token := d.epoch
	d.mu.Unlock()

	d.schedule(d.delay, func() {
		d.mu.Lock()
		live := d.epoch == token
		d.mu.Unlock()
		if live {
			fn()
		}
	})
}

// Cancel invalidates any pending callback without scheduling a new one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.epoch++
	d.mu.Unlock()
}
