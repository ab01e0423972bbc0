package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/lib/pq"

	"github.com/callkaidsroofing/lead-intake/internal/leads"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// openStatuses are leads still waiting on the business.
var openStatuses = []string{string(leads.StatusNew), string(leads.StatusContacted), string(leads.StatusQualified), string(leads.StatusQuoted)}

// AdminDashboardHandler serves the lead pipeline overview. It reads the
// Postgres tables directly and is only mounted in postgres mode.
type AdminDashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time
}

// NewAdminDashboardHandler creates a new admin dashboard handler.
func NewAdminDashboardHandler(db *sql.DB, logger *logging.Logger) *AdminDashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDashboardHandler{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// DashboardOverviewResponse contains the main dashboard metrics.
type DashboardOverviewResponse struct {
	Period         string       `json:"period"`
	Since          string       `json:"since,omitempty"`
	Total          int          `json:"total"`
	NewInPeriod    int          `json:"new_in_period"`
	Open           int          `json:"open"`
	OpenEmergency  int          `json:"open_emergency"`
	WonInPeriod    int          `json:"won_in_period"`
	ConversionRate float64      `json:"conversion_rate"`
	ByStatus       []CountByKey `json:"by_status"`
	ByService      []CountByKey `json:"by_service"`
	TopSuburbs     []CountByKey `json:"top_suburbs"`
	PendingOutbox  int          `json:"pending_outbox"`
}

// CountByKey is one bar of a grouped count.
type CountByKey struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// periodStart maps the period query value to a lower bound. "all" has none.
func periodStart(period string, now time.Time) (string, time.Time) {
	switch period {
	case "today":
		y, m, d := now.Date()
		return period, time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case "month":
		return period, now.AddDate(0, -1, 0)
	case "all":
		return period, time.Time{}
	default:
		return "week", now.AddDate(0, 0, -7)
	}
}

// GetDashboardOverview returns the main dashboard overview.
// GET /admin/dashboard/stats?period=today|week|month|all
func (h *AdminDashboardHandler) GetDashboardOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, since := periodStart(r.URL.Query().Get("period"), h.now())

	resp := DashboardOverviewResponse{Period: period}
	if !since.IsZero() {
		resp.Since = since.UTC().Format(time.RFC3339)
	}

	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&resp.Total); err != nil {
		h.logger.Error("dashboard: count leads", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	// The remaining numbers are best effort: a failed query leaves a zero.
	h.scanInt(r, &resp.NewInPeriod,
		`SELECT COUNT(*) FROM leads WHERE created_at >= $1`, since)
	h.scanInt(r, &resp.Open,
		`SELECT COUNT(*) FROM leads WHERE status = ANY($1)`, pq.Array(openStatuses))
	h.scanInt(r, &resp.OpenEmergency,
		`SELECT COUNT(*) FROM leads WHERE status = ANY($1) AND urgency = 'emergency'`, pq.Array(openStatuses))
	h.scanInt(r, &resp.WonInPeriod,
		`SELECT COUNT(*) FROM leads WHERE status = 'won' AND updated_at >= $1`, since)
	if resp.NewInPeriod > 0 {
		resp.ConversionRate = float64(resp.WonInPeriod) / float64(resp.NewInPeriod)
	}

	resp.ByStatus = h.groupCounts(r,
		`SELECT status, COUNT(*) FROM leads WHERE created_at >= $1 GROUP BY status ORDER BY COUNT(*) DESC`, since)
	resp.ByService = h.groupCounts(r,
		`SELECT service, COUNT(*) FROM leads WHERE created_at >= $1 GROUP BY service ORDER BY COUNT(*) DESC`, since)
	resp.TopSuburbs = h.groupCounts(r,
		`SELECT INITCAP(LOWER(suburb)), COUNT(*) FROM leads WHERE created_at >= $1 GROUP BY 1 ORDER BY COUNT(*) DESC LIMIT 5`, since)

	h.scanInt(r, &resp.PendingOutbox,
		`SELECT COUNT(*) FROM outbox WHERE delivered_at IS NULL`)

	jsonResponse(w, http.StatusOK, resp)
}

func (h *AdminDashboardHandler) scanInt(r *http.Request, dst *int, query string, args ...any) {
	if err := h.db.QueryRowContext(r.Context(), query, args...).Scan(dst); err != nil {
		h.logger.Warn("dashboard query failed", "error", err)
	}
}

func (h *AdminDashboardHandler) groupCounts(r *http.Request, query string, args ...any) []CountByKey {
	out := []CountByKey{}
	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		h.logger.Warn("dashboard query failed", "error", err)
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var c CountByKey
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			h.logger.Warn("dashboard scan failed", "error", err)
			continue
		}
		out = append(out, c)
	}
	return out
}
