package session

import "time"

// debouncer keeps only the latest value pushed within delay. It is not safe
// for concurrent use; the owning session's mutex guards it, including inside
// the fire callback.
type debouncer[T any] struct {
	delay   time.Duration
	timer   *time.Timer
	pending *T
	gen     uint64
	fire    func(gen uint64)
}

func newDebouncer[T any](delay time.Duration, fire func(gen uint64)) *debouncer[T] {
	return &debouncer[T]{delay: delay, fire: fire}
}

// push replaces the pending value and restarts the window. It reports false
// when debouncing is disabled and the caller should apply v immediately.
func (d *debouncer[T]) push(v T) bool {
	if d.delay <= 0 {
		return false
	}
	d.stop()
	d.pending = &v
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
	return true
}

// take returns the pending value and clears it.
func (d *debouncer[T]) take() (T, bool) {
	d.stop()
	var zero T
	if d.pending == nil {
		return zero, false
	}
	v := *d.pending
	d.pending = nil
	return v, true
}

// takeIf is take for timer callbacks; a callback from a superseded window is ignored.
func (d *debouncer[T]) takeIf(gen uint64) (T, bool) {
	if gen != d.gen {
		var zero T
		return zero, false
	}
	return d.take()
}

func (d *debouncer[T]) hasPending() bool {
	return d.pending != nil
}

// drop discards the pending value without applying it.
func (d *debouncer[T]) drop() {
	d.stop()
	d.pending = nil
}

func (d *debouncer[T]) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
