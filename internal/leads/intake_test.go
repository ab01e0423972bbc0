package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSink struct {
	mu    sync.Mutex
	calls []*Lead
	err   error
	block chan struct{}
}

func (s *countingSink) Submit(ctx context.Context, lead *Lead) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *lead
	s.calls = append(s.calls, &copied)
	return s.err
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	sinks    int
}

func (o *recordingObserver) ObserveOutcome(kind, field string) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, kind+":"+field)
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveSink(float64, error) {
	o.mu.Lock()
	o.sinks++
	o.mu.Unlock()
}

func fillForm(t *testing.T, form *Form, values map[string]string) {
	t.Helper()
	for name, value := range values {
		require.NoError(t, form.SetField(name, value))
	}
}

func scenarioFields() map[string]string {
	return map[string]string{
		FieldName:    "Jo",
		FieldPhone:   "0435 900 709",
		FieldSuburb:  "Clyde North",
		FieldService: "roof-restoration",
	}
}

func newTestIntake(sink Sink) (*Intake, *RecordingNotifier) {
	notifier := &RecordingNotifier{}
	return NewIntake(sink, notifier, IntakeConfig{}, nil), notifier
}

func TestIntake_ValidLeadIsForwardedNormalized(t *testing.T) {
	sink := &countingSink{}
	intake, _ := newTestIntake(sink)
	form := NewForm()
	fillForm(t, form, scenarioFields())

	outcome, err := intake.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome.Kind)
	require.Equal(t, 1, sink.count())
	assert.Equal(t, "0435900709", sink.calls[0].Phone)
	assert.Equal(t, "Jo", sink.calls[0].Name)
}

func TestIntake_ShortNameNeverReachesSink(t *testing.T) {
	sink := &countingSink{}
	intake, notifier := newTestIntake(sink)
	form := NewForm()
	values := scenarioFields()
	values[FieldName] = "A"
	values[FieldPhone] = "0435900709"
	fillForm(t, form, values)

	outcome, err := intake.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome.Kind)
	assert.Equal(t, FieldName, outcome.Field)
	assert.Equal(t, 0, sink.count())
	assert.Equal(t, StateRejected, form.State())

	last, ok := notifier.Last()
	require.True(t, ok)
	assert.Equal(t, OutcomeRejected, last.Kind)
}

func TestIntake_BadPhoneNeverReachesSink(t *testing.T) {
	sink := &countingSink{}
	intake, notifier := newTestIntake(sink)
	form := NewForm()
	values := scenarioFields()
	values[FieldPhone] = "123456"
	fillForm(t, form, values)

	outcome, err := intake.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, FieldPhone, outcome.Field)
	assert.Equal(t, 0, sink.count())
	assert.Len(t, notifier.Outcomes(), 1)
	assert.Equal(t, "123456", form.Snapshot().Phone, "rejected form keeps its input")
}

func TestIntake_HoneypotIsSilentlyDiscarded(t *testing.T) {
	for _, honeypot := range []string{"spam", " ", "\t"} {
		t.Run(fmt.Sprintf("%q", honeypot), func(t *testing.T) {
			sink := &countingSink{}
			intake, notifier := newTestIntake(sink)
			form := NewForm()
			values := scenarioFields()
			values[FieldHoneypot] = honeypot
			fillForm(t, form, values)

			outcome, err := intake.Submit(context.Background(), form)
			require.NoError(t, err)
			assert.Equal(t, OutcomeDiscarded, outcome.Kind)
			assert.Empty(t, outcome.Message)
			assert.Equal(t, 0, sink.count())
			assert.Empty(t, notifier.Outcomes())
			assert.Equal(t, StateDiscarded, form.State())
		})
	}
}

func TestIntake_SuccessClearsFormAndRedirects(t *testing.T) {
	sink := &countingSink{}
	intake, notifier := newTestIntake(sink)
	form := NewForm()
	fillForm(t, form, scenarioFields())

	outcome, err := intake.Submit(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, DefaultThankYouPath, outcome.Redirect)
	assert.True(t, strings.HasPrefix(outcome.Reference, "LEAD-"))
	assert.Equal(t, Fields{}, form.Snapshot())
	assert.Equal(t, StateIdle, form.State())

	last, ok := notifier.Last()
	require.True(t, ok)
	assert.Equal(t, OutcomeSucceeded, last.Kind)
	assert.Equal(t, outcome.Reference, sink.calls[0].Reference)
}

func TestIntake_FailureKeepsFieldsAndMentionsPhone(t *testing.T) {
	sink := &countingSink{err: errors.New("upstream 500")}
	intake, notifier := newTestIntake(sink)
	form := NewForm()
	values := scenarioFields()
	fillForm(t, form, values)

	outcome, err := intake.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome.Kind)
	assert.Contains(t, outcome.Message, DefaultFallbackPhone)
	assert.Equal(t, 1, sink.count(), "no retry")
	assert.Equal(t, StateFailed, form.State())
	assert.Equal(t, values[FieldName], form.Snapshot().Name)
	assert.Equal(t, values[FieldPhone], form.Snapshot().Phone)

	last, _ := notifier.Last()
	assert.Equal(t, OutcomeFailed, last.Kind)
	assert.ErrorIs(t, last.Err, sink.err)
}

func TestIntake_FailedFormCanBeResubmitted(t *testing.T) {
	sink := &countingSink{err: errors.New("offline")}
	intake, _ := newTestIntake(sink)
	form := NewForm()
	fillForm(t, form, scenarioFields())

	_, err := intake.Submit(context.Background(), form)
	require.NoError(t, err)

	sink.err = nil
	outcome, err := intake.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome.Kind)
	assert.Equal(t, 2, sink.count())
}

func TestIntake_SecondSubmitWhileInFlightIsRefused(t *testing.T) {
	sink := &countingSink{block: make(chan struct{})}
	intake, _ := newTestIntake(sink)
	form := NewForm()
	fillForm(t, form, scenarioFields())

	done := make(chan Outcome)
	go func() {
		outcome, _ := intake.Submit(context.Background(), form)
		done <- outcome
	}()

	require.Eventually(t, func() bool { return form.State() == StateSubmitting }, time.Second, time.Millisecond)
	assert.True(t, form.Submitting())

	_, err := intake.Submit(context.Background(), form)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(sink.block)
	outcome := <-done
	assert.Equal(t, OutcomeSucceeded, outcome.Kind)
	assert.Equal(t, 1, sink.count())
}

func TestIntake_TooFastIsRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sink := &countingSink{}
	notifier := &RecordingNotifier{}
	intake := NewIntake(sink, notifier, IntakeConfig{MinFillDuration: 3 * time.Second}, nil)
	intake.now = func() time.Time { return now }

	form := newFormAt(func() time.Time { return now.Add(-time.Second) })
	fillForm(t, form, scenarioFields())

	outcome, err := intake.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome.Kind)
	assert.Equal(t, "Please take a moment to review your information", outcome.Message)
	assert.Equal(t, 0, sink.count())

	form.SetOpenedAt(now.Add(-5 * time.Second))
	outcome, err = intake.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome.Kind)
}

func TestIntake_ObserverSeesOutcomes(t *testing.T) {
	observer := &recordingObserver{}
	sink := &countingSink{}
	intake, _ := newTestIntake(sink)
	intake.WithObserver(observer)

	form := NewForm()
	fillForm(t, form, map[string]string{FieldName: "A"})
	_, _ = intake.Submit(context.Background(), form)

	fillForm(t, form, scenarioFields())
	_, _ = intake.Submit(context.Background(), form)

	assert.Equal(t, []string{"rejected:name", "succeeded:"}, observer.outcomes)
	assert.Equal(t, 1, observer.sinks)
}

func TestIntake_CustomFallbackPhone(t *testing.T) {
	sink := &countingSink{err: errors.New("boom")}
	intake := NewIntake(sink, nil, IntakeConfig{FallbackPhone: "1300 000 000"}, nil)
	form := NewForm()
	fillForm(t, form, scenarioFields())

	outcome, err := intake.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Contains(t, outcome.Message, "1300 000 000")
}

func TestNewReference(t *testing.T) {
	now := time.UnixMilli(1760000000000)
	ref := NewReference(now)
	require.True(t, strings.HasPrefix(ref, "LEAD-1760000000000-"))
	suffix := strings.TrimPrefix(ref, "LEAD-1760000000000-")
	assert.Len(t, suffix, 9)
	for _, r := range suffix {
		assert.Contains(t, referenceAlphabet, string(r))
	}
	assert.NotEqual(t, ref, NewReference(now))
}
