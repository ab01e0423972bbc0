package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

var outboxTracer = otel.Tracer("roofing.internal.events.outbox")

// OutboxEntry represents a pending event.
type OutboxEntry struct {
	ID        uuid.UUID
	Type      string
	Payload   json.RawMessage
	Attempts  int
	CreatedAt time.Time
}

// DeliveryHandler emits events to downstream transports.
type DeliveryHandler interface {
	Handle(ctx context.Context, entry OutboxEntry) error
}

type outboxExec interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OutboxStore reads and acknowledges events written next to their leads.
type OutboxStore struct {
	pool outboxExec
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &OutboxStore{pool: pool}
}

func newOutboxStoreWithExec(exec outboxExec) *OutboxStore {
	if exec == nil {
		panic("events: exec required")
	}
	return &OutboxStore{pool: exec}
}

// Insert queues an event outside of any lead transaction.
func (s *OutboxStore) Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("events: marshal payload: %w", err)
	}
	id := uuid.New()
	query := `
		INSERT INTO outbox (id, type, payload)
		VALUES ($1, $2, $3)
	`
	if _, err := s.pool.Exec(ctx, query, id, eventType, data); err != nil {
		return uuid.Nil, fmt.Errorf("events: insert outbox: %w", err)
	}
	return id, nil
}

// FetchPending returns undelivered events that have not exhausted maxAttempts.
func (s *OutboxStore) FetchPending(ctx context.Context, limit int32, maxAttempts int32) ([]OutboxEntry, error) {
	query := `
		SELECT id, type, payload, attempts, created_at
		FROM outbox
		WHERE delivered_at IS NULL AND attempts < $2
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("events: fetch pending: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.Type, &payload, &entry.Attempts, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("events: scan outbox: %w", err)
		}
		entry.Payload = append([]byte(nil), payload...)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *OutboxStore) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE outbox
		SET delivered_at = now()
		WHERE id = $1 AND delivered_at IS NULL
	`
	ct, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("events: mark delivered: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// MarkFailed counts a failed attempt and keeps the last error for operators.
func (s *OutboxStore) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	query := `
		UPDATE outbox
		SET attempts = attempts + 1, last_error = $2
		WHERE id = $1
	`
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if _, err := s.pool.Exec(ctx, query, id, msg); err != nil {
		return fmt.Errorf("events: mark failed: %w", err)
	}
	return nil
}

type outboxSource interface {
	FetchPending(ctx context.Context, limit int32, maxAttempts int32) ([]OutboxEntry, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}

// Deliverer polls the outbox and invokes the handler.
type Deliverer struct {
	store       outboxSource
	handler     DeliveryHandler
	logger      *logging.Logger
	batchSize   int32
	maxAttempts int32
	interval    time.Duration
}

func NewDeliverer(store *OutboxStore, handler DeliveryHandler, logger *logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.Default()
	}
	d := &Deliverer{
		handler:     handler,
		logger:      logger,
		batchSize:   25,
		maxAttempts: 10,
		interval:    2 * time.Second,
	}
	if store != nil {
		d.store = store
	}
	return d
}

func (d *Deliverer) WithBatchSize(size int32) *Deliverer {
	if size > 0 {
		d.batchSize = size
	}
	return d
}

func (d *Deliverer) WithInterval(interval time.Duration) *Deliverer {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

func (d *Deliverer) WithMaxAttempts(n int32) *Deliverer {
	if n > 0 {
		d.maxAttempts = n
	}
	return d
}

func (d *Deliverer) Start(ctx context.Context) {
	if d.store == nil || d.handler == nil {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Deliverer) drain(ctx context.Context) {
	entries, err := d.store.FetchPending(ctx, d.batchSize, d.maxAttempts)
	if err != nil {
		d.logger.Error("outbox fetch failed", "error", err)
		return
	}
	for _, entry := range entries {
		if err := d.deliver(ctx, entry); err != nil {
			d.logger.Error("outbox delivery failed", "error", err, "event_id", entry.ID, "type", entry.Type, "attempt", entry.Attempts+1)
			if markErr := d.store.MarkFailed(ctx, entry.ID, err); markErr != nil {
				d.logger.Error("failed to record outbox attempt", "error", markErr, "event_id", entry.ID)
			}
			continue
		}
		if ok, err := d.store.MarkDelivered(ctx, entry.ID); err != nil {
			d.logger.Error("failed to mark outbox delivered", "error", err, "event_id", entry.ID)
		} else if ok {
			d.logger.Debug("outbox delivered", "event_id", entry.ID, "type", entry.Type)
		}
	}
}

func (d *Deliverer) deliver(ctx context.Context, entry OutboxEntry) error {
	ctx, span := outboxTracer.Start(ctx, "events.outbox.deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", entry.ID.String()),
		attribute.String("event.type", entry.Type),
		attribute.Int("event.attempts", entry.Attempts),
	)
	err := d.handler.Handle(ctx, entry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
