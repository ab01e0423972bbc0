package leads

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

var intakeTracer = otel.Tracer("roofing.internal.leads.intake")

// Sink forwards a validated lead to whatever stores or relays it. A nil error
// is success; any error is a failed submission. Sinks are called exactly once
// per submit and are never retried.
type Sink interface {
	Submit(ctx context.Context, lead *Lead) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, lead *Lead) error

func (fn SinkFunc) Submit(ctx context.Context, lead *Lead) error {
	return fn(ctx, lead)
}

// IntakeObserver receives flow measurements. metrics.LeadMetrics satisfies it.
type IntakeObserver interface {
	ObserveOutcome(kind, field string)
	ObserveSink(seconds float64, err error)
}

// IntakeConfig holds the copy and knobs of one form variant.
type IntakeConfig struct {
	// FallbackPhone is the human escape hatch printed on every failure.
	FallbackPhone string
	// ThankYouPath is where the browser goes after a successful submit.
	ThankYouPath string
	// MinFillDuration refuses submits made sooner than this after the form
	// opened. Zero disables the check.
	MinFillDuration time.Duration

	SuccessTitle   string
	SuccessMessage string
}

const (
	DefaultFallbackPhone = "0435 900 709"
	DefaultThankYouPath  = "/thank-you"
)

func (c IntakeConfig) withDefaults() IntakeConfig {
	if strings.TrimSpace(c.FallbackPhone) == "" {
		c.FallbackPhone = DefaultFallbackPhone
	}
	if c.ThankYouPath == "" {
		c.ThankYouPath = DefaultThankYouPath
	}
	if c.SuccessTitle == "" {
		c.SuccessTitle = "Request Received!"
	}
	if c.SuccessMessage == "" {
		c.SuccessMessage = "Thanks! We've received your enquiry and will call you within 24 hours to discuss your roofing needs."
	}
	return c
}

// Intake runs the submit half of the lead flow: validate, forward, report.
type Intake struct {
	sink     Sink
	notifier Notifier
	cfg      IntakeConfig
	logger   *logging.Logger
	observer IntakeObserver
	now      func() time.Time
}

// NewIntake wires a flow around sink. A nil notifier logs outcomes instead.
func NewIntake(sink Sink, notifier Notifier, cfg IntakeConfig, logger *logging.Logger) *Intake {
	if sink == nil {
		panic("leads: sink required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Intake{
		sink:     sink,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithObserver attaches metrics.
func (i *Intake) WithObserver(o IntakeObserver) *Intake {
	i.observer = o
	return i
}

// Config returns the effective configuration.
func (i *Intake) Config() IntakeConfig {
	return i.cfg
}

// Submit validates the form and, if it passes, makes one sink call. The
// returned outcome is the one shown to the notifier; the only error is
// ErrSubmissionInFlight.
func (i *Intake) Submit(ctx context.Context, form *Form) (Outcome, error) {
	if err := form.begin(); err != nil {
		return Outcome{}, err
	}
	fields := form.Snapshot()

	if fields.Honeypot != "" {
		form.transition(StateDiscarded)
		i.logger.DebugContext(ctx, "lead discarded: honeypot filled", "source", fields.Source)
		i.observe(OutcomeDiscarded, "")
		return Outcome{Kind: OutcomeDiscarded}, nil
	}

	if i.cfg.MinFillDuration > 0 && i.now().Sub(form.OpenedAt()) < i.cfg.MinFillDuration {
		return i.reject(ctx, form, Outcome{
			Kind:    OutcomeRejected,
			Title:   "Please Wait",
			Message: "Please take a moment to review your information",
		}), nil
	}

	lead, err := Validate(fields)
	var verr *ValidationError
	if errors.As(err, &verr) {
		return i.reject(ctx, form, Outcome{
			Kind:    OutcomeRejected,
			Title:   "Please check your details",
			Message: verr.Reason,
			Field:   verr.Field,
			Err:     err,
		}), nil
	}

	lead.Reference = NewReference(i.now())
	form.transition(StateSubmitting)

	if err := i.forward(ctx, lead); err != nil {
		form.transition(StateFailed)
		outcome := Outcome{
			Kind:    OutcomeFailed,
			Title:   "Something went wrong",
			Message: fmt.Sprintf("We couldn't send your request. Please call %s directly or try again.", i.cfg.FallbackPhone),
			Lead:    lead,
			Err:     err,
		}
		i.logger.ErrorContext(ctx, "lead sink failed", "error", err, "reference", lead.Reference, "service", lead.Service)
		i.observe(OutcomeFailed, "")
		i.notifier.Notify(ctx, outcome)
		return outcome, nil
	}

	form.transition(StateSucceeded)
	outcome := Outcome{
		Kind:      OutcomeSucceeded,
		Title:     i.cfg.SuccessTitle,
		Message:   i.cfg.SuccessMessage,
		Redirect:  i.cfg.ThankYouPath,
		Reference: lead.Reference,
		Lead:      lead,
	}
	i.logger.InfoContext(ctx, "lead submitted", "reference", lead.Reference, "service", lead.Service, "suburb", lead.Suburb, "source", lead.Source)
	i.observe(OutcomeSucceeded, "")
	i.notifier.Notify(ctx, outcome)
	form.Reset()
	return outcome, nil
}

func (i *Intake) reject(ctx context.Context, form *Form, outcome Outcome) Outcome {
	form.transition(StateRejected)
	i.observe(OutcomeRejected, outcome.Field)
	i.notifier.Notify(ctx, outcome)
	return outcome
}

func (i *Intake) forward(ctx context.Context, lead *Lead) error {
	ctx, span := intakeTracer.Start(ctx, "leads.sink.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("lead.reference", lead.Reference),
		attribute.String("lead.service", string(lead.Service)),
		attribute.String("lead.source", lead.Source),
	)

	start := i.now()
	err := i.sink.Submit(ctx, lead)
	if i.observer != nil {
		i.observer.ObserveSink(i.now().Sub(start).Seconds(), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (i *Intake) observe(kind OutcomeKind, field string) {
	if i.observer != nil {
		i.observer.ObserveOutcome(string(kind), field)
	}
}

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewReference builds the LEAD-<unix ms>-<9 chars> tracking code quoted to the
// owner and the customer.
func NewReference(now time.Time) string {
	suffix := make([]byte, 9)
	base := big.NewInt(int64(len(referenceAlphabet)))
	for idx := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			suffix[idx] = referenceAlphabet[now.UnixNano()%int64(len(referenceAlphabet))]
			continue
		}
		suffix[idx] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("LEAD-%d-%s", now.UnixMilli(), suffix)
}
