package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/callkaidsroofing/lead-intake/internal/http/middleware"
	"github.com/callkaidsroofing/lead-intake/internal/leads"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	exportLimit     = 5000
)

// AdminLeadsHandler handles admin API endpoints for lead management.
type AdminLeadsHandler struct {
	repo   leads.Repository
	logger *logging.Logger
}

// NewAdminLeadsHandler creates a new admin leads handler.
func NewAdminLeadsHandler(repo leads.Repository, logger *logging.Logger) *AdminLeadsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminLeadsHandler{
		repo:   repo,
		logger: logger,
	}
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID           string `json:"id"`
	Reference    string `json:"reference"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Suburb       string `json:"suburb"`
	Service      string `json:"service"`
	Urgency      string `json:"urgency,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	Message      string `json:"message,omitempty"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// LeadsListResponse represents a paginated list of leads.
type LeadsListResponse struct {
	Leads      []LeadResponse `json:"leads"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// UpdateLeadStatusRequest is the PATCH body for a status change.
type UpdateLeadStatusRequest struct {
	Status string `json:"status"`
}

func toLeadResponse(l *leads.Lead) LeadResponse {
	return LeadResponse{
		ID:           l.ID,
		Reference:    l.Reference,
		Name:         l.Name,
		Phone:        l.Phone,
		Email:        l.Email,
		Suburb:       l.Suburb,
		Service:      string(l.Service),
		Urgency:      string(l.Urgency),
		PropertyType: string(l.PropertyType),
		Message:      l.Message,
		Source:       l.Source,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// filterFromQuery reads status, service and search. Unknown enum values are
// reported rather than silently ignored.
func filterFromQuery(r *http.Request) (leads.ListFilter, error) {
	q := r.URL.Query()
	filter := leads.ListFilter{Search: strings.TrimSpace(q.Get("search"))}
	if raw := q.Get("status"); raw != "" {
		filter.Status = leads.Status(raw)
		if !filter.Status.Valid() {
			return filter, leads.ErrInvalidStatus
		}
	}
	if raw := q.Get("service"); raw != "" {
		filter.Service = leads.Service(raw)
		if !filter.Service.Valid() {
			return filter, errors.New("invalid service")
		}
	}
	return filter, nil
}

// ListLeads returns a paginated list of leads, newest first.
// GET /admin/leads
func (h *AdminLeadsHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]LeadResponse, 0, len(result.Leads))
	for _, l := range result.Leads {
		out = append(out, toLeadResponse(l))
	}
	jsonResponse(w, http.StatusOK, LeadsListResponse{
		Leads:      out,
		Total:      result.Total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (result.Total + pageSize - 1) / pageSize,
	})
}

// GetLead returns one lead.
// GET /admin/leads/{leadID}
func (h *AdminLeadsHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "leadID"))
	if errors.Is(err, leads.ErrLeadNotFound) {
		jsonError(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get lead", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusOK, toLeadResponse(lead))
}

// UpdateLeadStatus moves a lead along the pipeline.
// PATCH /admin/leads/{leadID}/status
func (h *AdminLeadsHandler) UpdateLeadStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateLeadStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	leadID := chi.URLParam(r, "leadID")
	lead, err := h.repo.UpdateStatus(r.Context(), leadID, leads.Status(strings.TrimSpace(req.Status)))
	switch {
	case errors.Is(err, leads.ErrInvalidStatus):
		jsonError(w, "invalid status", http.StatusBadRequest)
		return
	case errors.Is(err, leads.ErrLeadNotFound):
		jsonError(w, "lead not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("failed to update lead status", "error", err, "lead_id", leadID)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("lead status updated",
		"lead_id", lead.ID,
		"reference", lead.Reference,
		"status", lead.Status,
		"admin", middleware.AdminSubject(r.Context()),
	)
	jsonResponse(w, http.StatusOK, toLeadResponse(lead))
}

var exportHeader = []string{"Name", "Phone", "Email", "Suburb", "Service", "Status", "Urgency", "Created", "Reference"}

// ExportLeads streams the filtered leads as CSV for the office spreadsheet.
// GET /admin/leads/export.csv
func (h *AdminLeadsHandler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.Limit = exportLimit

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to export leads", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, l := range result.Leads {
		_ = cw.Write([]string{
			csvSafe(l.Name),
			l.Phone,
			csvSafe(l.Email),
			csvSafe(l.Suburb),
			string(l.Service),
			string(l.Status),
			string(l.Urgency),
			l.CreatedAt.UTC().Format(time.RFC3339),
			l.Reference,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Warn("lead export write failed", "error", err)
	}
}

// csvSafe stops spreadsheet apps from evaluating customer text as a formula.
func csvSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@", rune(v[0])) {
		return "'" + v
	}
	return v
}
