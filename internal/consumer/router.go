package consumer

import (
	"context"

	"github.com/fieldpulse/pipeline/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Router dispatches envelopes to a handler per event type.
// Types without a handler are skipped and therefore committed.
type Router struct {
	name     string
	handlers map[models.EventType]Handler
}

func NewRouter(name string) *Router {
	return &Router{name: name, handlers: make(map[models.EventType]Handler)}
}

func (r *Router) On(t models.EventType, h Handler) *Router {
	r.handlers[t] = h
	return r
}

func (r *Router) Handle(ctx context.Context, env *models.Envelope) error {
	h, ok := r.handlers[env.Type]
	if !ok {
		nuts.L.Infof("[Consumer:%s] Skipping %s event %s", r.name, env.Type, env.TraceID)
		return nil
	}
	return h.Handle(ctx, env)
}
