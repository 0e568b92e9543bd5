package broker

import (
	"context"

	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/redis/go-redis/v9"
)

// Replayer reads a topic from its earliest retained entry without joining a group
type Replayer struct {
	client   *redis.Client
	topic    string
	pageSize int64
}

// Scan calls visit for every entry in order until visit returns true,
// the topic is exhausted, or ctx is done.
func (r *Replayer) Scan(ctx context.Context, visit func(Message) bool) error {
	start, last := "-", ""
	for {
		entries, err := r.client.XRangeN(ctx, r.topic, start, "+", r.pageSize).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.NewBrokerError("failed to replay "+r.topic, err)
		}

		for _, entry := range entries {
			if entry.ID == last {
				continue
			}
			if visit(toMessage(entry)) {
				return nil
			}
			last = entry.ID
		}
		if int64(len(entries)) < r.pageSize {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		start = last
	}
}
