package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/callkaidsroofing/lead-intake/internal/leads"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// LeadHandler reacts to a submitted lead: an email, a queue message, an archive
// object.
type LeadHandler interface {
	HandleLeadSubmitted(ctx context.Context, evt LeadSubmittedV1) error
}

// LeadHandlerFunc adapts a function to LeadHandler.
type LeadHandlerFunc func(ctx context.Context, evt LeadSubmittedV1) error

func (fn LeadHandlerFunc) HandleLeadSubmitted(ctx context.Context, evt LeadSubmittedV1) error {
	return fn(ctx, evt)
}

// Deduper remembers which handler already processed which event, so a
// redelivered event does not email the owner twice.
type Deduper interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// HandlerObserver counts handler results. metrics.LeadMetrics satisfies it.
type HandlerObserver interface {
	ObserveHandler(name string, err error)
}

type namedHandler struct {
	name    string
	handler LeadHandler
}

// Dispatcher fans a lead event out to every registered handler. It is the
// outbox DeliveryHandler in Postgres mode and sits behind DirectRecorder
// otherwise.
type Dispatcher struct {
	handlers []namedHandler
	deduper  Deduper
	observer HandlerObserver
	logger   *logging.Logger
}

func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{logger: logger}
}

// Register adds a handler under a stable name. The name keys deduplication.
func (d *Dispatcher) Register(name string, handler LeadHandler) *Dispatcher {
	if handler != nil {
		d.handlers = append(d.handlers, namedHandler{name: name, handler: handler})
	}
	return d
}

func (d *Dispatcher) WithDeduper(deduper Deduper) *Dispatcher {
	d.deduper = deduper
	return d
}

func (d *Dispatcher) WithObserver(o HandlerObserver) *Dispatcher {
	d.observer = o
	return d
}

// Handlers lists registered handler names in order.
func (d *Dispatcher) Handlers() []string {
	names := make([]string, 0, len(d.handlers))
	for _, h := range d.handlers {
		names = append(names, h.name)
	}
	return names
}

// Handle implements DeliveryHandler. Unknown event types are acknowledged.
func (d *Dispatcher) Handle(ctx context.Context, entry OutboxEntry) error {
	if entry.Type != TypeLeadSubmittedV1 {
		d.logger.Warn("outbox event type not handled", "type", entry.Type, "event_id", entry.ID)
		return nil
	}
	evt, err := DecodeLeadSubmitted(entry.Payload)
	if err != nil {
		return err
	}
	return d.Dispatch(ctx, evt)
}

// Dispatch runs every handler once. Handler errors are joined; a handler that
// already succeeded for this event is skipped when a Deduper is set.
func (d *Dispatcher) Dispatch(ctx context.Context, evt LeadSubmittedV1) error {
	var errs []error
	for _, h := range d.handlers {
		if d.deduper != nil {
			done, err := d.deduper.AlreadyProcessed(ctx, h.name, evt.EventID)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if done {
				continue
			}
		}

		err := h.handler.HandleLeadSubmitted(ctx, evt)
		if d.observer != nil {
			d.observer.ObserveHandler(h.name, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}

		if d.deduper != nil {
			if _, err := d.deduper.MarkProcessed(ctx, h.name, evt.EventID); err != nil {
				d.logger.Error("failed to mark lead event processed", "error", err, "handler", h.name, "event_id", evt.EventID)
			}
		}
	}
	return errors.Join(errs...)
}

// DirectRecorder dispatches lead events inline, for stores that do not keep
// their own outbox.
type DirectRecorder struct {
	dispatcher *Dispatcher
	now        func() time.Time
}

func NewDirectRecorder(dispatcher *Dispatcher) *DirectRecorder {
	if dispatcher == nil {
		panic("events: dispatcher required")
	}
	return &DirectRecorder{dispatcher: dispatcher, now: time.Now}
}

// Record implements leads.Recorder.
func (r *DirectRecorder) Record(ctx context.Context, lead *leads.Lead) error {
	submittedAt := lead.CreatedAt
	if submittedAt.IsZero() {
		submittedAt = r.now().UTC()
	}
	return r.dispatcher.Dispatch(ctx, LeadSubmittedV1{
		EventID:     uuid.New().String(),
		Lead:        *lead,
		SubmittedAt: submittedAt,
	})
}
