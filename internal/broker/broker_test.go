package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandle(t *testing.T) (*Handle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	h := NewHandle(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { h.Close() })
	return h, mr
}

func consumerOpts(name string) ConsumerOptions {
	return ConsumerOptions{Topic: "events", Group: "storage_group", Name: name, BlockTimeout: 50 * time.Millisecond}
}

func fetchWithin(t *testing.T, c *GroupConsumer, d time.Duration) (Message, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return c.Fetch(ctx)
}

func TestConnectorRetriesExactlyMaxRetries(t *testing.T) {
	c := NewConnector(Config{Addr: "broker:6379", MaxRetries: 3, SleepTime: 20 * time.Millisecond})
	attempts := 0
	var stamps []time.Time
	c.dial = func(ctx context.Context) (*redis.Client, error) {
		attempts++
		stamps = append(stamps, time.Now())
		return nil, errors.New("connection refused")
	}

	h, err := c.Connect(context.Background())
	require.Error(t, err)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, attempts)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 20*time.Millisecond)
	}
}

func TestConnectorSucceedsAfterFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewConnector(Config{Addr: mr.Addr(), MaxRetries: 5, SleepTime: time.Millisecond})
	attempts := 0
	c.dial = func(ctx context.Context) (*redis.Client, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("not yet")
		}
		return c.dialRedis(ctx)
	}

	h, err := c.Connect(context.Background())
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, 3, attempts)
	assert.NoError(t, h.Ping(context.Background()))
}

func TestConnectorZeroRetriesStillTriesOnce(t *testing.T) {
	c := NewConnector(Config{Addr: "broker:6379"})
	attempts := 0
	c.dial = func(ctx context.Context) (*redis.Client, error) {
		attempts++
		return nil, errors.New("down")
	}
	_, err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, attempts)
}

func TestNewGroupStartsAtLatest(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	producer := h.Producer("events", 0)

	_, err := producer.Produce(ctx, []byte("before"))
	require.NoError(t, err)

	c := h.Consumer(consumerOpts("storage-1"))
	require.NoError(t, c.Subscribe(ctx))

	_, err = producer.Produce(ctx, []byte("after"))
	require.NoError(t, err)

	msg, err := fetchWithin(t, c, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "after", string(msg.Value))
}

func TestUncommittedMessageRedeliveredOnResubscribe(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	producer := h.Producer("events", 0)

	first := h.Consumer(consumerOpts("storage-1"))
	require.NoError(t, first.Subscribe(ctx))
	_, err := producer.Produce(ctx, []byte("m1"))
	require.NoError(t, err)

	msg, err := fetchWithin(t, first, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "m1", string(msg.Value))

	// worker dies before commit; a restarted worker with the same name sees m1 again
	restarted := h.Consumer(consumerOpts("storage-1"))
	require.NoError(t, restarted.Subscribe(ctx))
	again, err := fetchWithin(t, restarted, time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, again.ID)
	require.NoError(t, restarted.Commit(ctx, again))

	// once committed nothing is left for a further restart
	third := h.Consumer(consumerOpts("storage-1"))
	require.NoError(t, third.Subscribe(ctx))
	_, err = fetchWithin(t, third, 200*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUncommittedMessageNotRepeatedWithinSubscription(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	producer := h.Producer("events", 0)

	c := h.Consumer(consumerOpts("storage-1"))
	require.NoError(t, c.Subscribe(ctx))
	_, err := producer.Produce(ctx, []byte("m1"))
	require.NoError(t, err)
	_, err = producer.Produce(ctx, []byte("m2"))
	require.NoError(t, err)

	m1, err := fetchWithin(t, c, time.Second)
	require.NoError(t, err)
	m2, err := fetchWithin(t, c, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "m1", string(m1.Value))
	assert.Equal(t, "m2", string(m2.Value))
}

func TestGroupsTrackOffsetsIndependently(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()

	storage := h.Consumer(consumerOpts("storage-1"))
	anomaly := h.Consumer(ConsumerOptions{Topic: "events", Group: "anomaly_group", Name: "anomaly-1", BlockTimeout: 50 * time.Millisecond})
	require.NoError(t, storage.Subscribe(ctx))
	require.NoError(t, anomaly.Subscribe(ctx))

	_, err := h.Producer("events", 0).Produce(ctx, []byte("shared"))
	require.NoError(t, err)

	a, err := fetchWithin(t, storage, time.Second)
	require.NoError(t, err)
	require.NoError(t, storage.Commit(ctx, a))

	b, err := fetchWithin(t, anomaly, time.Second)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestReplayerScansFromEarliest(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	producer := h.Producer("events", 0)
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		_, err := producer.Produce(ctx, []byte(v))
		require.NoError(t, err)
	}

	r := h.Replayer("events")
	r.pageSize = 2

	var seen []string
	require.NoError(t, r.Scan(ctx, func(m Message) bool {
		seen = append(seen, string(m.Value))
		return false
	}))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, seen)

	seen = nil
	require.NoError(t, r.Scan(ctx, func(m Message) bool {
		seen = append(seen, string(m.Value))
		return string(m.Value) == "c"
	}))
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestPendingSweepRedeliversWithinSubscription(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()

	opts := consumerOpts("storage-1")
	opts.PendingSweep = 100 * time.Millisecond
	c := h.Consumer(opts)
	require.NoError(t, c.Subscribe(ctx))
	_, err := h.Producer("events", 0).Produce(ctx, []byte("m1"))
	require.NoError(t, err)

	first, err := fetchWithin(t, c, time.Second)
	require.NoError(t, err)
	assert.Zero(t, first.Deliveries)

	// not committed: the sweep hands it out again without a new Subscribe
	again, err := fetchWithin(t, c, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.GreaterOrEqual(t, again.Deliveries, int64(1))

	require.NoError(t, c.Commit(ctx, again))
	_, err = fetchWithin(t, c, 300*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResubscribeReportsDeliveryCount(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()

	first := h.Consumer(consumerOpts("storage-1"))
	require.NoError(t, first.Subscribe(ctx))
	_, err := h.Producer("events", 0).Produce(ctx, []byte("poison"))
	require.NoError(t, err)
	_, err = fetchWithin(t, first, time.Second)
	require.NoError(t, err)

	restarted := h.Consumer(consumerOpts("storage-1"))
	require.NoError(t, restarted.Subscribe(ctx))
	msg, err := fetchWithin(t, restarted, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "poison", string(msg.Value))
	assert.GreaterOrEqual(t, msg.Deliveries, int64(1))
}
