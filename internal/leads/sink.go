package leads

import (
	"context"
	"fmt"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// Recorder is told about every lead a RepositorySink stored. Stores that write
// their own outbox row in the same transaction do not need one.
type Recorder interface {
	Record(ctx context.Context, lead *Lead) error
}

// RepositorySink is the Sink that persists leads through a Repository.
type RepositorySink struct {
	repo     Repository
	recorder Recorder
	logger   *logging.Logger
}

// NewRepositorySink stores submitted leads in repo. recorder may be nil.
func NewRepositorySink(repo Repository, recorder Recorder, logger *logging.Logger) *RepositorySink {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RepositorySink{repo: repo, recorder: recorder, logger: logger}
}

// Submit creates the lead. The stored ID and timestamps are copied back onto
// lead. A recorder failure is logged but does not fail the submission: the lead
// is already safe.
func (s *RepositorySink) Submit(ctx context.Context, lead *Lead) error {
	stored, err := s.repo.Create(ctx, lead)
	if err != nil {
		return fmt.Errorf("leads: store lead: %w", err)
	}
	lead.ID = stored.ID
	lead.Status = stored.Status
	lead.CreatedAt = stored.CreatedAt
	lead.UpdatedAt = stored.UpdatedAt

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, stored); err != nil {
			s.logger.Error("lead event not recorded", "error", err, "lead_id", stored.ID, "reference", stored.Reference)
		}
	}
	return nil
}
