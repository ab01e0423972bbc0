// Package supabase stores leads in a Supabase project through its PostgREST API.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/callkaidsroofing/lead-intake/internal/leads"
)

const selectColumns = "id,reference,name,phone,email,suburb,service,urgency,property_type,message,source,status,created_at,updated_at"

// Repository implements leads.Repository against a Supabase table.
type Repository struct {
	client *supa.Client
	table  string
}

// NewRepository connects to the project at url. table defaults to "leads".
func NewRepository(url, key, table string) (*Repository, error) {
	if url == "" || key == "" {
		return nil, errors.New("supabase: url and key required")
	}
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: new client: %w", err)
	}
	if table == "" {
		table = "leads"
	}
	return &Repository{client: client, table: table}, nil
}

// row mirrors the table. Optional columns are plain strings so an unset
// urgency is stored as "" rather than dropped.
type row struct {
	ID           string    `json:"id"`
	Reference    string    `json:"reference"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Suburb       string    `json:"suburb"`
	Service      string    `json:"service"`
	Urgency      string    `json:"urgency"`
	PropertyType string    `json:"property_type"`
	Message      string    `json:"message"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type insertRow struct {
	ID           string `json:"id"`
	Reference    string `json:"reference"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Suburb       string `json:"suburb"`
	Service      string `json:"service"`
	Urgency      string `json:"urgency"`
	PropertyType string `json:"property_type"`
	Message      string `json:"message"`
	Source       string `json:"source"`
	Status       string `json:"status"`
}

func (r row) lead() *leads.Lead {
	return &leads.Lead{
		ID:           r.ID,
		Reference:    r.Reference,
		Name:         r.Name,
		Phone:        r.Phone,
		Email:        r.Email,
		Suburb:       r.Suburb,
		Service:      leads.Service(r.Service),
		Urgency:      leads.Urgency(r.Urgency),
		PropertyType: leads.PropertyType(r.PropertyType),
		Message:      r.Message,
		Source:       r.Source,
		Status:       leads.Status(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Create inserts the lead and returns the stored row.
func (r *Repository) Create(ctx context.Context, lead *leads.Lead) (*leads.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := insertRow{
		ID:           uuid.New().String(),
		Reference:    lead.Reference,
		Name:         lead.Name,
		Phone:        lead.Phone,
		Email:        lead.Email,
		Suburb:       lead.Suburb,
		Service:      string(lead.Service),
		Urgency:      string(lead.Urgency),
		PropertyType: string(lead.PropertyType),
		Message:      lead.Message,
		Source:       lead.Source,
		Status:       string(lead.Status),
	}
	if in.Status == "" {
		in.Status = string(leads.StatusNew)
	}
	if in.Source == "" {
		in.Source = leads.DefaultSource
	}

	body, _, err := r.client.From(r.table).Insert(in, false, "", "representation", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("supabase: insert lead: %w", err)
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("supabase: insert returned no rows")
	}
	return rows[0].lead(), nil
}

// GetByID fetches one lead.
func (r *Repository) GetByID(ctx context.Context, id string) (*leads.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, leads.ErrLeadNotFound
	}
	body, _, err := r.client.From(r.table).Select(selectColumns, "", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("supabase: get lead: %w", err)
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, leads.ErrLeadNotFound
	}
	return rows[0].lead(), nil
}

// List returns leads newest first, filtered and paged.
func (r *Repository) List(ctx context.Context, filter leads.ListFilter) (*leads.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := r.client.From(r.table).Select(selectColumns, "exact", false)
	if filter.Status != "" {
		q = q.Eq("status", string(filter.Status))
	}
	if filter.Service != "" {
		q = q.Eq("service", string(filter.Service))
	}
	if term := searchTerm(filter.Search); term != "" {
		pattern := "*" + term + "*"
		q = q.Or(fmt.Sprintf("name.ilike.%s,phone.ilike.%s,suburb.ilike.%s", pattern, pattern, pattern), "")
	}
	q = q.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if filter.Limit > 0 {
		q = q.Range(filter.Offset, filter.Offset+filter.Limit-1, "")
	}

	body, count, err := q.Execute()
	if err != nil {
		return nil, fmt.Errorf("supabase: list leads: %w", err)
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	result := &leads.ListResult{Leads: make([]*leads.Lead, 0, len(rows)), Total: int(count)}
	for _, rw := range rows {
		result.Leads = append(result.Leads, rw.lead())
	}
	if result.Total < len(result.Leads) {
		result.Total = len(result.Leads)
	}
	return result, nil
}

// UpdateStatus moves a lead to another pipeline status.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status leads.Status) (*leads.Lead, error) {
	if !status.Valid() {
		return nil, leads.ErrInvalidStatus
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, leads.ErrLeadNotFound
	}
	patch := map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	body, _, err := r.client.From(r.table).Update(patch, "representation", "").Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("supabase: update status: %w", err)
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, leads.ErrLeadNotFound
	}
	return rows[0].lead(), nil
}

func decodeRows(body []byte) ([]row, error) {
	var rows []row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("supabase: decode rows: %w", err)
	}
	return rows, nil
}

// searchTerm drops characters that would break a PostgREST or() expression.
func searchTerm(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '"', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

var _ leads.Repository = (*Repository)(nil)
