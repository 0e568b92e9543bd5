package lifecycle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu      sync.Mutex
	notices []Notice
}

func (c *collector) add(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

func (c *collector) all() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

func TestNoticesReachHandlersOfTheirEvent(t *testing.T) {
	n := New()
	started, subscribed := &collector{}, &collector{}
	require.NoError(t, n.OnNotice(EventServiceStarted, started.add))
	require.NoError(t, n.OnNotice(EventConsumerSubscribed, subscribed.add))

	require.NoError(t, n.Emit(EventServiceStarted, Notice{Code: "0001", Message: "receiver started"}))
	require.NoError(t, n.Emit(EventConsumerSubscribed, Notice{Code: "0002", Message: "storage subscribed"}))

	require.Eventually(t, func() bool { return len(started.all()) == 1 && len(subscribed.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "0001", started.all()[0].Code)
	assert.Equal(t, "storage subscribed", subscribed.all()[0].Message)
}

func TestMultipleHandlersPerEvent(t *testing.T) {
	n := New()
	a, b := &collector{}, &collector{}
	require.NoError(t, n.OnNotice(EventAggregationNotice, a.add))
	require.NoError(t, n.OnNotice(EventAggregationNotice, b.add))

	require.NoError(t, n.Emit(EventAggregationNotice, Notice{Code: "0004", Message: "busy period"}))

	require.Eventually(t, func() bool { return len(a.all()) == 1 && len(b.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "0004", a.all()[0].Code)
}

func TestEmitReportsMismatchedListener(t *testing.T) {
	n := New()
	_, err := n.events.On(EventServiceStarted, "untyped", func(args ...interface{}) {})
	require.NoError(t, err)

	assert.Error(t, n.Emit(EventServiceStarted, Notice{Code: "0001"}))
}
