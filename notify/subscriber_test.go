package notify

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCache struct {
	mu       sync.Mutex
	prefixes []string
}

func (f *fakeCache) Invalidate(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefix)
}

func (f *fakeCache) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prefixes...)
}

func TestSubscriberRefreshInvalidatesEntityPrefix(t *testing.T) {
	fc := &fakeCache{}
	rec := &recorder{}
	s := NewSubscriber(nil, fc, discardLogger(), SubscriberOpts{
		DebounceDelay: 10 * time.Millisecond,
		OnRefresh:     rec.record,
	})
	defer s.Close()

	// Same entry point a received message uses.
	s.debounce.Trigger(EntityLoans)

	require.Eventually(t, func() bool {
		return len(fc.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{EntityLoans}, fc.snapshot())
	assert.Equal(t, []string{EntityLoans}, rec.snapshot(), "refresh hook fires once per burst")
}

func TestSubscriberCloseStopsRefresh(t *testing.T) {
	fc := &fakeCache{}
	rec := &recorder{}
	s := NewSubscriber(nil, fc, discardLogger(), SubscriberOpts{
		DebounceDelay: 30 * time.Millisecond,
		OnRefresh:     rec.record,
	})

	s.debounce.Trigger(EntityResources)
	s.Close()
	s.Close() // idempotent

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, fc.snapshot(), "no invalidation after Close")
	assert.Empty(t, rec.snapshot(), "no refresh hook after Close")

	// events after close are dropped
	s.debounce.Trigger(EntityLoans)
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, fc.snapshot())
}
