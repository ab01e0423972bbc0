package events

import (
	"encoding/json"
	"fmt"

	"github.com/callkaidsroofing/lead-intake/internal/leads"
)

// LeadSubmittedV1 is published once for every stored lead.
type LeadSubmittedV1 = leads.SubmittedEvent

// TypeLeadSubmittedV1 is the outbox type of LeadSubmittedV1.
const TypeLeadSubmittedV1 = leads.EventLeadSubmitted

// DecodeLeadSubmitted unpacks an outbox payload.
func DecodeLeadSubmitted(payload []byte) (LeadSubmittedV1, error) {
	var evt LeadSubmittedV1
	if err := json.Unmarshal(payload, &evt); err != nil {
		return evt, fmt.Errorf("events: decode %s: %w", TypeLeadSubmittedV1, err)
	}
	if evt.EventID == "" {
		return evt, fmt.Errorf("events: decode %s: missing event_id", TypeLeadSubmittedV1)
	}
	return evt, nil
}
