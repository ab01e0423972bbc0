package leads

import (
	"context"
	"sync"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// OutcomeKind is the terminal result of one submit.
type OutcomeKind string

const (
	OutcomeSucceeded OutcomeKind = "succeeded"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeDiscarded OutcomeKind = "discarded"
)

// Outcome is what the visitor is told after a submit.
type Outcome struct {
	Kind      OutcomeKind `json:"status"`
	Title     string      `json:"title,omitempty"`
	Message   string      `json:"message,omitempty"`
	Field     string      `json:"field,omitempty"`
	Redirect  string      `json:"redirect,omitempty"`
	Reference string      `json:"reference,omitempty"`

	Lead *Lead `json:"-"`
	Err  error `json:"-"`
}

// Notifier surfaces an outcome to the visitor. Discarded submissions are never
// passed to a Notifier.
type Notifier interface {
	Notify(ctx context.Context, outcome Outcome)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, outcome Outcome)

func (fn NotifierFunc) Notify(ctx context.Context, outcome Outcome) {
	fn(ctx, outcome)
}

// RecordingNotifier keeps every outcome it is shown.
type RecordingNotifier struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (n *RecordingNotifier) Notify(_ context.Context, outcome Outcome) {
	n.mu.Lock()
	n.outcomes = append(n.outcomes, outcome)
	n.mu.Unlock()
}

// Outcomes returns a copy of the recorded outcomes.
func (n *RecordingNotifier) Outcomes() []Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Outcome(nil), n.outcomes...)
}

// Last returns the most recent outcome, if any.
func (n *RecordingNotifier) Last() (Outcome, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.outcomes) == 0 {
		return Outcome{}, false
	}
	return n.outcomes[len(n.outcomes)-1], true
}

// LogNotifier writes outcomes to the structured log.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, outcome Outcome) {
	switch outcome.Kind {
	case OutcomeFailed:
		n.logger.WarnContext(ctx, "lead submission failed", "error", outcome.Err)
	case OutcomeRejected:
		n.logger.InfoContext(ctx, "lead rejected", "field", outcome.Field, "reason", outcome.Message)
	default:
		n.logger.InfoContext(ctx, "lead outcome", "status", outcome.Kind, "reference", outcome.Reference)
	}
}

// MultiNotifier shows the same outcome to several notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, outcome Outcome) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, outcome)
		}
	}
}
