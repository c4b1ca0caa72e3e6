package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Entity types as carried on the wire (channel suffix).
const (
	EntityLoans        = "loans"
	EntityReservations = "reservations"
	EntityResources    = "resources"
)

func channelFor(entity string) string { return fmt.Sprintf("changes:%s", entity) }

// Publisher announces store mutations over redis pub/sub. Publishing is
// fire-and-forget: a failed publish is logged, never surfaced to the writer,
// since local cache invalidation already happened synchronously.
type Publisher struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewPublisher(rdb *redis.Client, log *slog.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: log}
}

// Publish sends op ("insert", "update", "delete") on the entity's channel.
func (p *Publisher) Publish(ctx context.Context, entity, op string) {
	if p == nil || p.rdb == nil {
		return
	}
	if err := p.rdb.Publish(ctx, channelFor(entity), op).Err(); err != nil {
		p.log.Warn("change publish failed", "entity", entity, "op", op, "err", err)
	}
}
