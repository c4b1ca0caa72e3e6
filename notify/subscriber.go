package notify

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Invalidator is the slice of the cache the subscriber needs.
type Invalidator interface {
	Invalidate(prefix string)
}

// Subscriber listens on the change channels and, after each burst of events of
// one entity type quiesces, invalidates that entity's cache prefix and invokes
// the registered refresh hook once. A periodic PING watches the connection and
// logs a warning when it goes dead; no reconnection is attempted, the signal
// is advisory.
type Subscriber struct {
	rdb       *redis.Client
	cache     Invalidator
	log       *slog.Logger
	debounce  *Debouncer
	onRefresh func(entity string)

	pubsub    *redis.PubSub
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup

	heartbeatEvery time.Duration
}

type SubscriberOpts struct {
	DebounceDelay  time.Duration // default 2s
	HeartbeatEvery time.Duration // default 30s
	OnRefresh      func(entity string)
}

func NewSubscriber(rdb *redis.Client, cache Invalidator, log *slog.Logger, opts SubscriberOpts) *Subscriber {
	if opts.HeartbeatEvery <= 0 {
		opts.HeartbeatEvery = 30 * time.Second
	}
	s := &Subscriber{
		rdb:            rdb,
		cache:          cache,
		log:            log,
		onRefresh:      opts.OnRefresh,
		heartbeatEvery: opts.HeartbeatEvery,
	}
	s.debounce = NewDebouncer(opts.DebounceDelay, s.refresh)
	return s
}

// Start subscribes to all change channels and runs the receive loop and the
// heartbeat until Close.
func (s *Subscriber) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.pubsub = s.rdb.Subscribe(ctx,
		channelFor(EntityLoans),
		channelFor(EntityReservations),
		channelFor(EntityResources),
	)

	s.wg.Add(2)
	go s.receiveLoop(ctx)
	go s.heartbeatLoop(ctx)
}

func (s *Subscriber) receiveLoop(ctx context.Context) {
	defer s.wg.Done()
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			entity := strings.TrimPrefix(msg.Channel, "changes:")
			s.debounce.Trigger(entity)
		}
	}
}

func (s *Subscriber) heartbeatLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.heartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := s.rdb.Ping(pingCtx).Err()
			cancel()
			if err != nil {
				s.log.Warn("change subscription heartbeat failed", "err", err)
			}
		}
	}
}

// refresh runs once per quiesced burst, off the debounce timer.
func (s *Subscriber) refresh(entity string) {
	if s.cache != nil {
		s.cache.Invalidate(entity)
	}
	s.log.Info("store changed, cache invalidated", "entity", entity)
	if s.onRefresh != nil {
		s.onRefresh(entity)
	}
}

// Close tears the subscriber down: pending debounce timers are cancelled, the
// heartbeat stops, and no callback fires afterwards. Idempotent.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		s.debounce.Close()
		if s.cancel != nil {
			s.cancel()
		}
		if s.pubsub != nil {
			_ = s.pubsub.Close()
		}
		s.wg.Wait()
	})
}
