// Package notify carries store-change events between writers and the read-side
// cache: a redis publisher on the write path and a debounced pub/sub
// subscriber on the read path.
package notify

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events per type: after Trigger(t) the callback
// for t fires once, delay later, unless another Trigger(t) resets the timer.
// Each type has its own independent timer.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timers   map[string]*time.Timer
	callback func(eventType string)
	closed   bool
	inflight sync.WaitGroup
}

func NewDebouncer(delay time.Duration, callback func(eventType string)) *Debouncer {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Debouncer{
		delay:    delay,
		timers:   make(map[string]*time.Timer),
		callback: callback,
	}
}

// Trigger records an event of the given type, starting or resetting its timer.
func (d *Debouncer) Trigger(eventType string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if t, ok := d.timers[eventType]; ok {
		t.Stop()
	}
	d.timers[eventType] = time.AfterFunc(d.delay, func() {
		d.fire(eventType)
	})
}

func (d *Debouncer) fire(eventType string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	delete(d.timers, eventType)
	cb := d.callback
	d.inflight.Add(1)
	d.mu.Unlock()
	defer d.inflight.Done()
	if cb != nil {
		cb(eventType)
	}
}

// Flush fires every pending type immediately and cancels its timer.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	pending := make([]string, 0, len(d.timers))
	for et, t := range d.timers {
		t.Stop()
		pending = append(pending, et)
	}
	d.timers = make(map[string]*time.Timer)
	cb := d.callback
	d.inflight.Add(1)
	d.mu.Unlock()
	defer d.inflight.Done()
	if cb == nil {
		return
	}
	for _, et := range pending {
		cb(et)
	}
}

// Close cancels all pending timers and waits for any callback already in
// flight, so no callback runs past the point Close returns. Safe to call more
// than once. Must not be called from inside the callback.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = nil
	d.mu.Unlock()
	d.inflight.Wait()
}
