package lifecycle

import (
	nuts "github.com/vaudience/go-nuts"
)

// Lifecycle events emitted by the services
const (
	EventServiceStarted     = "service.started"
	EventConsumerSubscribed = "consumer.subscribed"
	EventAggregationNotice  = "aggregation.notice"
)

// Notice is the event_log content attached to a lifecycle event
type Notice struct {
	Code    string
	Message string
}

// Notifier fans lifecycle events out to registered handlers
type Notifier struct {
	events *nuts.EventEmitter
}

func New() *Notifier {
	return &Notifier{events: nuts.NewEventEmitter()}
}

// Emit announces event with its notice. Listener failures are logged and returned.
func (n *Notifier) Emit(event string, notice Notice) error {
	if err := n.events.Emit(event, notice); err != nil {
		nuts.L.Errorf("[Lifecycle] Failed to emit %s notice %s: %v", event, notice.Code, err)
		return err
	}
	return nil
}

// OnNotice registers a callback for a lifecycle event
func (n *Notifier) OnNotice(event string, handler func(Notice)) error {
	_, err := n.events.On(event, nuts.NID("listener", 8), func(notice Notice) {
		handler(notice)
	})
	if err != nil {
		nuts.L.Errorf("[Lifecycle] Failed to register %s listener: %v", event, err)
		return err
	}
	return nil
}
