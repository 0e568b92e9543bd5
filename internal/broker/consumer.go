// FilePath: internal/broker/consumer.go
package broker

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// ConsumerOptions identifies a member of a consumer group. Name must be stable
// across restarts so that the member's pending entries are redelivered to it.
type ConsumerOptions struct {
	Topic        string
	Group        string
	Name         string
	BlockTimeout time.Duration
	// PendingSweep rereads the member's unacknowledged entries this often
	// within one subscription. Zero rereads them only on Subscribe.
	PendingSweep time.Duration
}

// GroupConsumer reads one topic as a member of a named consumer group.
// It is owned by a single worker goroutine.
type GroupConsumer struct {
	client *redis.Client
	opts   ConsumerOptions

	// pendingCursor walks this member's delivered-but-unacknowledged entries
	// once per subscription before new entries are read
	pendingCursor string
	pendingDone   bool
	lastSweep     time.Time
}

// Subscribe joins the group, creating it at the stream tail when it does not exist.
// Existing groups keep their committed position.
func (c *GroupConsumer) Subscribe(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.opts.Topic, c.opts.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return errors.NewBrokerError("failed to join group "+c.opts.Group, err)
	}
	c.pendingCursor = "0"
	c.pendingDone = false
	c.lastSweep = time.Now()
	return nil
}

// Fetch blocks until a message is available or ctx is done
func (c *GroupConsumer) Fetch(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}
		if c.pendingDone && c.opts.PendingSweep > 0 && time.Since(c.lastSweep) >= c.opts.PendingSweep {
			c.pendingCursor, c.pendingDone = "0", false
			c.lastSweep = time.Now()
		}

		id, block := ">", c.opts.BlockTimeout
		if !c.pendingDone {
			id, block = c.pendingCursor, -1
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.opts.Group,
			Consumer: c.opts.Name,
			Streams:  []string{c.opts.Topic, id},
			Count:    1,
			Block:    block,
		}).Result()
		if stderrors.Is(err, redis.Nil) {
			c.pendingDone = true
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			return Message{}, errors.NewBrokerError("failed to read from "+c.opts.Topic, err)
		}

		if len(streams) == 0 || len(streams[0].Messages) == 0 {
			c.pendingDone = true
			continue
		}
		msg := toMessage(streams[0].Messages[0])
		if !c.pendingDone {
			c.pendingCursor = msg.ID
			msg.Deliveries = c.deliveries(ctx, msg.ID)
			nuts.L.Warnf("[Broker] Redelivering %s to %s/%s (delivery %d)", msg.ID, c.opts.Group, c.opts.Name, msg.Deliveries)
		}
		return msg, nil
	}
}

// deliveries returns how often id has been handed to this member, or 0 if unknown
func (c *GroupConsumer) deliveries(ctx context.Context, id string) int64 {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   c.opts.Topic,
		Group:    c.opts.Group,
		Start:    id,
		End:      id,
		Count:    1,
		Consumer: c.opts.Name,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 0
	}
	return pending[0].RetryCount
}

// Commit acknowledges msg for the group
func (c *GroupConsumer) Commit(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.opts.Topic, c.opts.Group, msg.ID).Err(); err != nil {
		return errors.NewBrokerError("failed to commit "+msg.ID, err)
	}
	return nil
}

func (c *GroupConsumer) Group() string {
	return c.opts.Group
}
