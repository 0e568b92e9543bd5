package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldpulse/pipeline/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

// Supervise keeps run alive until ctx is cancelled. Whenever run returns
// (or panics) before that, it is restarted after delay. A message that
// always fails decoding is therefore retried on every restart.
func Supervise(ctx context.Context, name string, delay time.Duration, metrics *monitoring.Service, run func(context.Context) error) error {
	for {
		err := runSafely(ctx, run)
		if ctx.Err() != nil {
			nuts.L.Infof("[Supervisor] %s stopped", name)
			return nil
		}
		if err == nil {
			err = errors.New("worker exited")
		}

		nuts.L.Errorf("[Supervisor] %s failed: %v, restarting in %s", name, err, delay)
		metrics.WorkerRestarted(name)

		select {
		case <-ctx.Done():
			nuts.L.Infof("[Supervisor] %s stopped", name)
			return nil
		case <-time.After(delay):
		}
	}
}

func runSafely(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return run(ctx)
}
