package leads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, lead *Lead) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error)
}

// InMemoryRepository is a Repository backed by a map, for local runs and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a copy of lead with a fresh ID and timestamps.
func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	stored := *lead
	stored.ID = uuid.New().String()
	if stored.Status == "" {
		stored.Status = StatusNew
	}
	if stored.Source == "" {
		stored.Source = DefaultSource
	}
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt

	r.mu.Lock()
	r.leads[stored.ID] = &stored
	r.mu.Unlock()

	out := stored
	return &out, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	out := *lead
	return &out, nil
}

// List returns leads newest first, filtered and paged.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	r.mu.RLock()
	matched := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if filter.Matches(lead) {
			out := *lead
			matched = append(matched, &out)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return &ListResult{Leads: matched[start:end], Total: total}, nil
}

// UpdateStatus moves a lead to another pipeline status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	lead.Status = status
	lead.UpdatedAt = r.now()
	out := *lead
	return &out, nil
}

// Matches applies the filter to a single lead. Search is case-insensitive over
// name, phone and suburb.
func (f ListFilter) Matches(lead *Lead) bool {
	if f.Status != "" && lead.Status != f.Status {
		return false
	}
	if f.Service != "" && lead.Service != f.Service {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(lead.Name), term) &&
			!strings.Contains(strings.ToLower(lead.Phone), term) &&
			!strings.Contains(strings.ToLower(lead.Suburb), term) {
			return false
		}
	}
	return true
}
