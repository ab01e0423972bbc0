package leads

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

const (
	maxRequestBytes = 64 << 10
	// maxElapsed caps elapsed_ms; a form open for a day is as good as any.
	maxElapsed = 24 * time.Hour
)

// SubmitRequest is the JSON body posted by the quote form.
type SubmitRequest struct {
	Fields
	// ElapsedMS is how long the visitor had the form open. Omitted means unknown
	// and skips the fill-time check.
	ElapsedMS *int64 `json:"elapsed_ms,omitempty"`
}

// Handler handles HTTP requests for lead intake
type Handler struct {
	intake *Intake
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates a new leads handler
func NewHandler(intake *Intake, logger *logging.Logger) *Handler {
	if intake == nil {
		panic("leads: intake required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		intake: intake,
		logger: logger,
		now:    time.Now,
	}
}

// Submit handles POST /leads requests
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode lead request", "error", err)
		writeJSON(w, http.StatusBadRequest, Outcome{Kind: OutcomeRejected, Message: "Invalid request body"})
		return
	}

	form := newFormAt(h.now)
	for name, value := range req.Fields.byName() {
		if err := form.SetField(name, value); err != nil {
			writeJSON(w, http.StatusBadRequest, Outcome{Kind: OutcomeRejected, Message: "Invalid request body"})
			return
		}
	}
	if req.ElapsedMS != nil {
		form.SetOpenedAt(h.now().Add(-elapsedDuration(*req.ElapsedMS)))
	} else {
		form.SetOpenedAt(time.Time{})
	}

	outcome, err := h.intake.Submit(r.Context(), form)
	if err != nil {
		h.logger.Error("lead submit refused", "error", err)
		writeJSON(w, http.StatusConflict, Outcome{Kind: OutcomeRejected, Message: err.Error()})
		return
	}

	switch outcome.Kind {
	case OutcomeSucceeded:
		writeJSON(w, http.StatusOK, outcome)
	case OutcomeDiscarded:
		// Bots get the same body a real visitor would, reference included.
		cfg := h.intake.Config()
		writeJSON(w, http.StatusOK, Outcome{
			Kind:      OutcomeSucceeded,
			Title:     cfg.SuccessTitle,
			Message:   cfg.SuccessMessage,
			Redirect:  cfg.ThankYouPath,
			Reference: NewReference(h.now()),
		})
	case OutcomeRejected:
		writeJSON(w, http.StatusUnprocessableEntity, outcome)
	default:
		writeJSON(w, http.StatusBadGateway, outcome)
	}
}

// elapsedDuration converts a client-reported fill time, clamped to
// [0, maxElapsed] so huge values cannot overflow into a negative duration.
func elapsedDuration(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	if ms > maxElapsed.Milliseconds() {
		return maxElapsed
	}
	return time.Duration(ms) * time.Millisecond
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f Fields) byName() map[string]string {
	return map[string]string{
		FieldName:         f.Name,
		FieldPhone:        f.Phone,
		FieldEmail:        f.Email,
		FieldSuburb:       f.Suburb,
		FieldService:      f.Service,
		FieldUrgency:      f.Urgency,
		FieldPropertyType: f.PropertyType,
		FieldMessage:      f.Message,
		FieldHoneypot:     f.Honeypot,
		FieldSource:       f.Source,
	}
}
