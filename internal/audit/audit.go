package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldpulse/pipeline/internal/broker"
	"github.com/fieldpulse/pipeline/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// ErrNotFound is returned when no envelope of the requested type exists at the index
// before the topic is exhausted or the scan deadline passes
var ErrNotFound = errors.New("envelope not found")

// Scanner reads a topic from its earliest retained entry
type Scanner interface {
	Scan(ctx context.Context, visit func(broker.Message) bool) error
}

// Reader looks envelopes up by per-type position without joining a consumer group.
// A Reader without a scanner answers broker.ErrUnavailable.
type Reader struct {
	scanner Scanner
	timeout time.Duration
}

func NewReader(scanner Scanner, timeout time.Duration) *Reader {
	return &Reader{scanner: scanner, timeout: timeout}
}

// Find returns the index-th envelope (zero based) of type t in topic order.
// A scan that outlives the timeout reports ErrNotFound even if the envelope exists.
func (r *Reader) Find(ctx context.Context, t models.EventType, index int) (*models.Envelope, error) {
	if r.scanner == nil {
		return nil, broker.ErrUnavailable
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: negative index %d", ErrNotFound, index)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		found   *models.Envelope
		counter int
	)
	err := r.scanner.Scan(ctx, func(msg broker.Message) bool {
		env, err := models.DecodeEnvelope(msg.Value)
		if err != nil {
			nuts.L.Warnf("[Audit] Skipping entry %s: %v", msg.ID, err)
			return false
		}
		if env.Type != t {
			return false
		}
		if counter == index {
			found = env
			return true
		}
		counter++
		return false
	})
	if found != nil {
		nuts.L.Infof("[Audit] Found %s at index %d (trace_id %s)", t, index, found.TraceID)
		return found, nil
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	nuts.L.Infof("[Audit] No %s at index %d after %d matching entries", t, index, counter)
	return nil, fmt.Errorf("%w: %s index %d", ErrNotFound, t, index)
}
