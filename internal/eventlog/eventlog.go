// FilePath: internal/eventlog/eventlog.go
package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldpulse/pipeline/internal/consumer"
	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Logger records event_log envelopes published by the other services
type Logger struct {
	repo repository.EventLogRepository
	now  func() time.Time
}

func NewLogger(repo repository.EventLogRepository) *Logger {
	return &Logger{repo: repo, now: time.Now}
}

func (l *Logger) Router(group string) *consumer.Router {
	return consumer.NewRouter(group).On(models.EventTypeEventLog, consumer.HandlerFunc(l.record))
}

func (l *Logger) record(ctx context.Context, env *models.Envelope) error {
	var payload models.EventLogPayload
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}
	if payload.Code == "" {
		return fmt.Errorf("%w: event_log payload without code", models.ErrMalformedEnvelope)
	}

	rec := &models.EventLogRecord{
		Message:     payload.Message,
		Code:        payload.Code,
		DateCreated: l.now().UTC(),
	}
	if err := l.repo.Save(ctx, rec); err != nil {
		return err
	}
	nuts.L.Infof("[EventLogger] Stored event %s: %s", rec.Code, rec.Message)
	return nil
}

// Stats counts stored events per code
func (l *Logger) Stats(ctx context.Context) (map[string]int64, error) {
	return l.repo.CountByCode(ctx)
}
