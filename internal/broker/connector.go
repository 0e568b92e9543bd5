// FilePath: internal/broker/connector.go
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// ErrUnavailable is returned when every connection attempt failed
var ErrUnavailable = errors.New("broker unavailable")

// Config describes how to reach the broker and how hard to try
type Config struct {
	Addr       string
	Password   string
	DB         int
	MaxRetries int
	SleepTime  time.Duration
}

type dialFunc func(ctx context.Context) (*redis.Client, error)

// Connector establishes the broker connection with a fixed-delay retry policy
type Connector struct {
	cfg  Config
	dial dialFunc
}

func NewConnector(cfg Config) *Connector {
	c := &Connector{cfg: cfg}
	c.dial = c.dialRedis
	return c
}

// Connect makes up to MaxRetries attempts, SleepTime apart. On exhaustion it
// logs and returns ErrUnavailable; the caller keeps running without a consumer.
func (c *Connector) Connect(ctx context.Context) (*Handle, error) {
	maxTries := c.cfg.MaxRetries
	if maxTries < 1 {
		maxTries = 1
	}

	attempt := 0
	client, err := backoff.Retry(ctx,
		func() (*redis.Client, error) {
			attempt++
			nuts.L.Infof("[Broker] Connecting to %s (attempt %d/%d)", c.cfg.Addr, attempt, maxTries)
			return c.dial(ctx)
		},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.cfg.SleepTime)),
		backoff.WithMaxTries(uint(maxTries)),
		backoff.WithMaxElapsedTime(time.Duration(maxTries)*c.cfg.SleepTime+time.Minute),
		backoff.WithNotify(func(err error, next time.Duration) {
			nuts.L.Warnf("[Broker] Connection attempt failed: %v, retrying in %s", err, next)
		}),
	)
	if err != nil {
		nuts.L.Errorf("[Broker] FATAL: could not connect to %s after %d attempts: %v", c.cfg.Addr, attempt, err)
		return nil, fmt.Errorf("%w: %d attempts: %v", ErrUnavailable, attempt, err)
	}

	nuts.L.Infof("[Broker] Connected to %s", c.cfg.Addr)
	return NewHandle(client), nil
}

func (c *Connector) dialRedis(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Addr,
		Password: c.cfg.Password,
		DB:       c.cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
