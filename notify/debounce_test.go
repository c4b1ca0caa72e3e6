package notify

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *recorder) record(et string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, et)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fired...)
}

func TestDebounceCoalescesBurst(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, rec.record)
	defer d.Close()

	for i := 0; i < 5; i++ {
		d.Trigger(EntityLoans)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond, "burst must fire exactly once")
	assert.Equal(t, []string{EntityLoans}, rec.snapshot())

	// quiet period, no further fires
	time.Sleep(80 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestDebounceIndependentTimersPerType(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20*time.Millisecond, rec.record)
	defer d.Close()

	d.Trigger(EntityLoans)
	d.Trigger(EntityResources)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{EntityLoans, EntityResources}, rec.snapshot())
}

func TestFlushFiresPendingImmediately(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(time.Hour, rec.record)
	defer d.Close()

	d.Trigger(EntityReservations)
	d.Flush()

	assert.Equal(t, []string{EntityReservations}, rec.snapshot())

	// flushed timer must not fire again
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestCloseCancelsPendingAndIsIdempotent(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20*time.Millisecond, rec.record)

	d.Trigger(EntityLoans)
	d.Close()
	d.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot(), "no callback after Close")

	// triggers after close are no-ops
	d.Trigger(EntityLoans)
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestCloseWaitsForInFlightCallback(t *testing.T) {
	entered := make(chan struct{})
	var finished atomic.Bool
	d := NewDebouncer(5*time.Millisecond, func(string) {
		close(entered)
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
	})

	d.Trigger(EntityLoans)
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}

	d.Close()
	assert.True(t, finished.Load(), "Close returned while the callback was still running")
}
