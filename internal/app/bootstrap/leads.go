package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	appconfig "github.com/callkaidsroofing/lead-intake/internal/config"
	"github.com/callkaidsroofing/lead-intake/internal/events"
	"github.com/callkaidsroofing/lead-intake/internal/leads"
	"github.com/callkaidsroofing/lead-intake/internal/supabase"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// LeadStore is the persistence side of the intake for the configured backend.
type LeadStore struct {
	Backend string
	Repo    leads.Repository
	Sink    leads.Sink
	// Deliverer drains the outbox; nil unless Backend is postgres.
	Deliverer *events.Deliverer
	// DB serves the dashboard stats; nil unless Backend is postgres.
	DB *sql.DB
	// Ping checks the backend for /ready.
	Ping func(ctx context.Context) error
}

// Close releases the database handle opened for the dashboard.
func (s *LeadStore) Close() {
	if s != nil && s.DB != nil {
		_ = s.DB.Close()
	}
}

// BuildLeadStore wires the repository and sink for cfg.LeadStore. Postgres
// writes the event to its outbox in the lead's transaction; the other backends
// hand stored leads to dispatcher directly.
func BuildLeadStore(cfg *appconfig.Config, pool *pgxpool.Pool, dispatcher *events.Dispatcher, logger *logging.Logger) (*LeadStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	var recorder leads.Recorder
	if dispatcher != nil {
		recorder = events.NewDirectRecorder(dispatcher)
	}

	switch cfg.LeadStore {
	case appconfig.StorePostgres:
		if pool == nil {
			return nil, fmt.Errorf("bootstrap: lead store %q needs DATABASE_URL", cfg.LeadStore)
		}
		repo := leads.NewPostgresRepository(pool)
		store := &LeadStore{
			Backend: cfg.LeadStore,
			Repo:    repo,
			Sink:    leads.NewRepositorySink(repo, nil, logger),
			DB:      stdlib.OpenDBFromPool(pool),
			Ping:    pool.Ping,
		}
		if dispatcher != nil {
			store.Deliverer = events.NewDeliverer(events.NewOutboxStore(pool), dispatcher, logger).
				WithBatchSize(int32(cfg.OutboxBatchSize)).
				WithInterval(cfg.OutboxPollInterval)
		}
		return store, nil

	case appconfig.StoreSupabase:
		repo, err := supabase.NewRepository(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseLeadsTable)
		if err != nil {
			return nil, err
		}
		return &LeadStore{
			Backend: cfg.LeadStore,
			Repo:    repo,
			Sink:    leads.NewRepositorySink(repo, recorder, logger),
			Ping: func(ctx context.Context) error {
				_, err := repo.List(ctx, leads.ListFilter{Limit: 1})
				return err
			},
		}, nil

	case appconfig.StoreMemory, "":
		logger.Warn("using in-memory lead store; leads are lost on restart")
		repo := leads.NewInMemoryRepository()
		return &LeadStore{
			Backend: appconfig.StoreMemory,
			Repo:    repo,
			Sink:    leads.NewRepositorySink(repo, recorder, logger),
		}, nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown lead store %q", cfg.LeadStore)
	}
}
