package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventLeadSubmitted is the outbox type written alongside every new lead.
const EventLeadSubmitted = "lead.submitted.v1"

// SubmittedEvent is the payload of EventLeadSubmitted.
type SubmittedEvent struct {
	EventID     string    `json:"event_id"`
	Lead        Lead      `json:"lead"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type pgxConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool pgxConn
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithConn(conn pgxConn) *PostgresRepository {
	if conn == nil {
		panic("leads: conn required")
	}
	return &PostgresRepository{pool: conn}
}

const leadColumns = `id, reference, name, phone, email, suburb, service, urgency, property_type, message, source, status, created_at, updated_at`

// Create inserts the lead and its lead.submitted.v1 outbox row in one
// transaction, so a stored lead is never missing its notification.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	stored := *lead
	stored.ID = uuid.New().String()
	if stored.Status == "" {
		stored.Status = StatusNew
	}
	if stored.Source == "" {
		stored.Source = DefaultSource
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("leads: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO leads (id, reference, name, phone, email, suburb, service, urgency, property_type, message, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		stored.ID,
		stored.Reference,
		stored.Name,
		stored.Phone,
		stored.Email,
		stored.Suburb,
		string(stored.Service),
		string(stored.Urgency),
		string(stored.PropertyType),
		stored.Message,
		stored.Source,
		string(stored.Status),
	).Scan(&stored.CreatedAt, &stored.UpdatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	eventID := uuid.New()
	payload, err := json.Marshal(SubmittedEvent{
		EventID:     eventID.String(),
		Lead:        stored,
		SubmittedAt: stored.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("leads: marshal event: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO outbox (id, type, payload) VALUES ($1, $2, $3)`,
		eventID, EventLeadSubmitted, payload); err != nil {
		return nil, fmt.Errorf("leads: insert outbox: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("leads: commit: %w", err)
	}
	return &stored, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns leads newest first, filtered and paged.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	where, args := filterClause(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("leads: count failed: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	result := &ListResult{Total: total, Leads: []*Lead{}}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		result.Leads = append(result.Leads, lead)
	}
	return result, rows.Err()
}

// UpdateStatus moves a lead to another pipeline status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	query := `
		UPDATE leads SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING ` + leadColumns
	lead, err := scanLead(r.pool.QueryRow(ctx, query, string(status), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: update status failed: %w", err)
	}
	return lead, nil
}

func filterClause(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Service != "" {
		args = append(args, string(filter.Service))
		conds = append(conds, "service = $"+strconv.Itoa(len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(name ILIKE $"+n+" OR phone ILIKE $"+n+" OR suburb ILIKE $"+n+")")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead                                   Lead
		service, urgency, propertyType, status string
	)
	if err := row.Scan(
		&lead.ID,
		&lead.Reference,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.Suburb,
		&service,
		&urgency,
		&propertyType,
		&lead.Message,
		&lead.Source,
		&status,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lead.Service = Service(service)
	lead.Urgency = Urgency(urgency)
	lead.PropertyType = PropertyType(propertyType)
	lead.Status = Status(status)
	return &lead, nil
}
