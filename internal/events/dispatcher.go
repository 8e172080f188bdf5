package events

import (
	"sync"

	"go.uber.org/zap"
)

// PunchSubscriber receives confirmed-punch events in-process. Handlers
// must not block; delivery is best-effort and a slow or absent
// subscriber never stalls the punch pipeline.
type PunchSubscriber interface {
	OnPunchConfirmed(event PunchConfirmedEvent)
}

// PunchSubscriberFunc adapts a plain function to PunchSubscriber.
type PunchSubscriberFunc func(event PunchConfirmedEvent)

func (f PunchSubscriberFunc) OnPunchConfirmed(event PunchConfirmedEvent) {
	f(event)
}

// Dispatcher fans confirmed-punch events out to registered
// subscribers. It replaces the ambient global event bus the punch
// screens used to share: subscription is explicit and typed.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   []PunchSubscriber
	logger *zap.Logger
}

func NewDispatcher(logger ...*zap.Logger) *Dispatcher {
	l := zap.L().Named("events.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("events.dispatcher")
	}
	return &Dispatcher{logger: l}
}

func (d *Dispatcher) Subscribe(sub PunchSubscriber) {
	if sub == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, sub)
}

// Publish delivers the event to every subscriber. A panicking
// subscriber is logged and skipped; it cannot take the pipeline down.
func (d *Dispatcher) Publish(event PunchConfirmedEvent) {
	d.mu.RLock()
	subs := make([]PunchSubscriber, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	for _, sub := range subs {
		d.deliver(sub, event)
	}
}

func (d *Dispatcher) deliver(sub PunchSubscriber, event PunchConfirmedEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("punch subscriber panicked",
				zap.String("record_id", event.RecordID),
				zap.Any("panic", r),
			)
		}
	}()
	sub.OnPunchConfirmed(event)
}
