package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestGetDashboardOverview(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewAdminDashboardHandler(db, logging.Default())
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return now }
	weekAgo := now.AddDate(0, 0, -7)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM leads`)).WillReturnRows(countRows(40))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM leads WHERE created_at >= $1`)).
		WithArgs(weekAgo).WillReturnRows(countRows(8))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM leads WHERE status = ANY($1)`)).
		WithArgs("{\"new\",\"contacted\",\"qualified\",\"quoted\"}").WillReturnRows(countRows(12))
	mock.ExpectQuery(regexp.QuoteMeta(`AND urgency = 'emergency'`)).WillReturnRows(countRows(2))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'won' AND updated_at >= $1`)).
		WithArgs(weekAgo).WillReturnRows(countRows(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, COUNT(*) FROM leads`)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("new", 5).AddRow("won", 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT service, COUNT(*) FROM leads`)).
		WillReturnRows(sqlmock.NewRows([]string{"service", "count"}).AddRow("roof-restoration", 6))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT INITCAP(LOWER(suburb)), COUNT(*) FROM leads`)).
		WillReturnError(errors.New("timeout"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM outbox WHERE delivered_at IS NULL`)).
		WillReturnRows(countRows(1))

	rec := httptest.NewRecorder()
	handler.GetDashboardOverview(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp DashboardOverviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "week", resp.Period)
	assert.Equal(t, 40, resp.Total)
	assert.Equal(t, 8, resp.NewInPeriod)
	assert.Equal(t, 12, resp.Open)
	assert.Equal(t, 2, resp.OpenEmergency)
	assert.InDelta(t, 0.25, resp.ConversionRate, 0.0001)
	assert.Equal(t, []CountByKey{{Key: "new", Count: 5}, {Key: "won", Count: 3}}, resp.ByStatus)
	assert.Len(t, resp.ByService, 1)
	assert.Empty(t, resp.TopSuburbs, "failed breakdowns degrade to empty")
	assert.Equal(t, 1, resp.PendingOutbox)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDashboardOverview_TotalFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM leads`)).WillReturnError(errors.New("connection refused"))

	rec := httptest.NewRecorder()
	NewAdminDashboardHandler(db, nil).GetDashboardOverview(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	p, since := periodStart("today", now)
	assert.Equal(t, "today", p)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), since)

	p, since = periodStart("all", now)
	assert.Equal(t, "all", p)
	assert.True(t, since.IsZero())

	p, _ = periodStart("bogus", now)
	assert.Equal(t, "week", p)
}
