package broker

import (
	"context"

	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/redis/go-redis/v9"
)

// Producer appends messages to one topic
type Producer struct {
	client *redis.Client
	topic  string
	maxLen int64
}

// Produce blocks until the broker acknowledged the write and returns the entry id
func (p *Producer) Produce(ctx context.Context, value []byte) (string, error) {
	args := &redis.XAddArgs{
		Stream: p.topic,
		Values: map[string]interface{}{valueField: value},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", errors.NewBrokerError("failed to produce to "+p.topic, err)
	}
	return id, nil
}

func (p *Producer) Topic() string {
	return p.topic
}
