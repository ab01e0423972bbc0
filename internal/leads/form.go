package leads

import (
	"sync"
	"time"
)

// State is where a form sits in the intake flow.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRejected
	StateSubmitting
	StateSucceeded
	StateFailed
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Form holds the field values of one form instance between keystrokes and
// submit. SetField never validates; validation happens once, at submit time.
type Form struct {
	mu       sync.Mutex
	fields   Fields
	state    State
	openedAt time.Time
	now      func() time.Time
}

// NewForm returns an empty form opened now.
func NewForm() *Form {
	return newFormAt(time.Now)
}

func newFormAt(now func() time.Time) *Form {
	return &Form{now: now, openedAt: now()}
}

// SetField replaces a single field and leaves every other field untouched.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case FieldName:
		f.fields.Name = value
	case FieldPhone:
		f.fields.Phone = value
	case FieldEmail:
		f.fields.Email = value
	case FieldSuburb:
		f.fields.Suburb = value
	case FieldService:
		f.fields.Service = value
	case FieldUrgency:
		f.fields.Urgency = value
	case FieldPropertyType:
		f.fields.PropertyType = value
	case FieldMessage:
		f.fields.Message = value
	case FieldHoneypot:
		f.fields.Honeypot = value
	case FieldSource:
		f.fields.Source = value
	default:
		return ErrUnknownField
	}
	return nil
}

// Snapshot copies the current field values.
func (f *Form) Snapshot() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Reset clears every field and returns the form to idle, as after a
// successful submit. The fill timer restarts.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = Fields{}
	f.state = StateIdle
	f.openedAt = f.now()
}

// State reports the form's position in the intake flow.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submitting is the flag a UI binds its submit button's disabled state to.
func (f *Form) Submitting() bool {
	s := f.State()
	return s == StateValidating || s == StateSubmitting
}

// OpenedAt is when the form was created or last reset.
func (f *Form) OpenedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openedAt
}

// SetOpenedAt overrides the fill timer, for forms rebuilt from a request that
// reports how long the visitor spent on the page.
func (f *Form) SetOpenedAt(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openedAt = t
}

func (f *Form) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateValidating || f.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	f.state = StateValidating
	return nil
}

func (f *Form) transition(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}
