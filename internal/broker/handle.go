package broker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// valueField is the single stream entry field that carries the encoded envelope
const valueField = "value"

// Message is one entry read from a topic
type Message struct {
	ID    string
	Value []byte
	// Deliveries is set for entries reread from the pending list
	Deliveries int64
}

func toMessage(x redis.XMessage) Message {
	v, _ := x.Values[valueField].(string)
	return Message{ID: x.ID, Value: []byte(v)}
}

// Handle is a live broker connection. Topics are Redis streams.
type Handle struct {
	client *redis.Client
}

func NewHandle(client *redis.Client) *Handle {
	return &Handle{client: client}
}

// Producer returns a synchronous producer for topic. maxLen > 0 trims the stream approximately.
func (h *Handle) Producer(topic string, maxLen int64) *Producer {
	return &Producer{client: h.client, topic: topic, maxLen: maxLen}
}

// Consumer returns a reader that joins the named consumer group
func (h *Handle) Consumer(opts ConsumerOptions) *GroupConsumer {
	if opts.BlockTimeout <= 0 {
		opts.BlockTimeout = 5 * time.Second
	}
	return &GroupConsumer{client: h.client, opts: opts}
}

// Replayer returns a reader that scans topic from its earliest entry
func (h *Handle) Replayer(topic string) *Replayer {
	return &Replayer{client: h.client, topic: topic, pageSize: 100}
}

func (h *Handle) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

func (h *Handle) Close() error {
	return h.client.Close()
}
