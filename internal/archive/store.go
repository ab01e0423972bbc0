// Package archive keeps a PII-reduced copy of every lead in S3 for reporting.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/callkaidsroofing/lead-intake/internal/events"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

const recordVersion = "1.0"

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store archives lead records to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time

	// manifest appends are read-modify-write
	manifestMu sync.Mutex
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// HandleLeadSubmitted archives the lead carried by evt.
func (s *Store) HandleLeadSubmitted(ctx context.Context, evt events.LeadSubmittedV1) error {
	return s.ArchiveLead(ctx, NewLeadRecord(evt, s.now().UTC()))
}

// NewLeadRecord builds the archived form of a lead. The name, email and raw
// phone number never leave the database.
func NewLeadRecord(evt events.LeadSubmittedV1, archivedAt time.Time) *LeadRecord {
	lead := evt.Lead
	return &LeadRecord{
		Version:     recordVersion,
		EventID:     evt.EventID,
		LeadID:      lead.ID,
		Reference:   lead.Reference,
		PhoneHash:   HashPhone(strings.Join(strings.Fields(lead.Phone), "")),
		Service:     string(lead.Service),
		Urgency:     string(lead.Urgency),
		Property:    string(lead.PropertyType),
		Suburb:      lead.Suburb,
		Source:      lead.Source,
		Message:     ScrubPII(lead.Message),
		SubmittedAt: evt.SubmittedAt,
		ArchivedAt:  archivedAt,
	}
}

// ArchiveLead writes a LeadRecord as JSON to S3 and appends to the manifest.
func (s *Store) ArchiveLead(ctx context.Context, record *LeadRecord) error {
	if !s.Enabled() {
		return nil
	}
	if record.Reference == "" {
		return errors.New("archive: record has no reference")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	at := record.ArchivedAt
	if at.IsZero() {
		at = s.now().UTC()
	}

	s3Key := fmt.Sprintf("leads/v1/by-date/%d/%02d/%02d/%s.json",
		at.Year(), at.Month(), at.Day(), record.Reference)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", s3Key, err)
	}

	s.logger.Info("archived lead to S3",
		"reference", record.Reference,
		"s3_key", s3Key,
		"service", record.Service,
	)

	entry := ManifestEntry{
		Reference:  record.Reference,
		S3Key:      s3Key,
		Service:    record.Service,
		Suburb:     record.Suburb,
		Source:     record.Source,
		ArchivedAt: at.Format(time.RFC3339),
	}
	if err := s.AppendManifest(ctx, at, entry); err != nil {
		// the lead object is already stored
		s.logger.Warn("failed to append manifest", "error", err, "reference", record.Reference)
	}
	return nil
}

// AppendManifest appends a JSONL line to the monthly manifest for at.
// S3 has no append, so the object is read, extended and rewritten.
func (s *Store) AppendManifest(ctx context.Context, at time.Time, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	manifestKey := fmt.Sprintf("leads/v1/manifests/%d-%02d.jsonl", at.Year(), at.Month())

	s.manifestMu.Lock()
	defer s.manifestMu.Unlock()

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFoundErr(err):
		s.logger.Debug("manifest not found, creating new", "key", manifestKey)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

// isNotFoundErr reports whether err means the object does not exist yet.
func isNotFoundErr(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "404")
}
