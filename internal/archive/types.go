package archive

import "time"

// LeadRecord is the object archived to S3 for every submitted lead.
type LeadRecord struct {
	Version     string    `json:"version"` // "1.0"
	EventID     string    `json:"event_id"`
	LeadID      string    `json:"lead_id,omitempty"`
	Reference   string    `json:"reference"`
	PhoneHash   string    `json:"phone_hash"` // sha256 of normalized phone
	Service     string    `json:"service"`
	Urgency     string    `json:"urgency,omitempty"`
	Property    string    `json:"property_type,omitempty"`
	Suburb      string    `json:"suburb"`
	Source      string    `json:"source"`
	Message     string    `json:"message,omitempty"` // PII scrubbed
	SubmittedAt time.Time `json:"submitted_at"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// ManifestEntry is one line in the monthly JSONL manifest.
type ManifestEntry struct {
	Reference  string `json:"reference"`
	S3Key      string `json:"s3_key"`
	Service    string `json:"service"`
	Suburb     string `json:"suburb"`
	Source     string `json:"source"`
	ArchivedAt string `json:"archived_at"`
}
