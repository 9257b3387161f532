/*
handlers_test.go - HTTP tests for the staff desk API

Tests for:
- Login and bearer session checks
- Draft submission (201 accepted, 422 rejected, 403 for someone else)
- Admin totals, CSV and PDF exports
- Shifts, maintenance and roster sync endpoints
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/marinaops/staffdesk/api"
	"github.com/marinaops/staffdesk/auth"
	"github.com/marinaops/staffdesk/maintenance"
	"github.com/marinaops/staffdesk/metrics"
	"github.com/marinaops/staffdesk/roster"
	"github.com/marinaops/staffdesk/schedule"
	"github.com/marinaops/staffdesk/store/memory"
	"github.com/marinaops/staffdesk/timeoff"
)

var testNow = time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)

type testServer struct {
	router  *chi.Mux
	store   *memory.Store
	handler *api.Handler
	metrics *metrics.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.Seed(
		timeoff.Employee{ID: "1", Name: "Ella Harbor", Position: "Dockhand", PTOHours: decimal.NewFromInt(40), PSLHours: decimal.NewFromInt(16)},
		timeoff.Employee{ID: "99", Name: "Haak Wagner", Position: "Harbormaster", PTOHours: decimal.NewFromInt(80)},
	)
	m := metrics.NewManager()

	requests := timeoff.NewRequestService(store, timeoff.DefaultPolicy(), nil)
	requests.Clock = func() time.Time { return testNow }
	requests.Metrics = m

	authn, err := auth.NewAuthenticator(store, auth.Options{
		Password: "Marina1",
		Admins:   []string{"Haak Wagner"},
		Cost:     bcrypt.MinCost,
	})
	require.NoError(t, err)
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	h := &api.Handler{
		Requests:    requests,
		Shifts:      schedule.NewService(store),
		Maintenance: maintenance.NewService(store),
		Auth:        authn,
		Tokens:      tokens,
		Exports:     m,
	}
	return &testServer{
		router:  api.NewRouter(h, api.RouterOptions{Metrics: m}),
		store:   store,
		handler: h,
		metrics: m,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, name string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/login", "", api.LoginRequest{Name: name, Password: "Marina1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// LOGIN AND SESSIONS
// =============================================================================

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	t.Run("admin flag from config", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/login", "", api.LoginRequest{Name: "  haak wagner ", Password: "Marina1"})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[api.LoginResponse](t, rec)
		assert.True(t, resp.IsAdmin)
		assert.Equal(t, "Haak Wagner", resp.Name)
	})

	t.Run("unknown name", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/login", "", api.LoginRequest{Name: "Nobody", Password: "Marina1"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, decode[api.ErrorResponse](t, rec).Error, "name not found")
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/login", "", api.LoginRequest{Name: "Ella Harbor", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "incorrect password", decode[api.ErrorResponse](t, rec).Error)
	})
}

func TestSessionRequired(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/employees", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/employees", "garbage", nil).Code)

	token := s.login(t, "Ella Harbor")
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/employees", token, nil).Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(t, "Ella Harbor")

	for _, path := range []string{"/api/admin/totals", "/api/admin/totals.csv", "/api/admin/requests.csv"} {
		rec := s.do(t, http.MethodGet, path, staff, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

// =============================================================================
// REQUEST SUBMISSION
// =============================================================================

func TestSubmitRequest_ApprovedAndBalanceApplied(t *testing.T) {
	// GIVEN: an employee with 40h PTO, today is 2025-06-20
	s := newTestServer(t)
	token := s.login(t, "Ella Harbor")

	// WHEN: a full-day PTO on July 10 is submitted
	rec := s.do(t, http.MethodPost, "/api/requests", token, map[string]any{
		"kind":       "pto",
		"employeeId": "1",
		"fullDay":    true,
		"startDate":  "2025-07-10",
	})

	// THEN: 201 with 8 hours, and the balance drops to 32
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[api.DecisionResponse](t, rec)
	require.True(t, resp.Accepted)
	require.NotNil(t, resp.Request)
	assert.Equal(t, 8.0, resp.Request.Hours)
	assert.Equal(t, timeoff.StatusApproved, resp.Request.Status)
	assert.Equal(t, "2025-07-10T08:00:00Z", resp.Request.Start)

	emps := decode[[]api.EmployeeDTO](t, s.do(t, http.MethodGet, "/api/employees", token, nil))
	require.Len(t, emps, 2)
	assert.Equal(t, 32.0, emps[0].PTOHours)

	history := decode[[]api.RequestDTO](t, s.do(t, http.MethodGet, "/api/requests", token, nil))
	assert.Len(t, history, 1)
}

func TestSubmitRequest_RejectedIs422WithReasons(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Ella Harbor")

	rec := s.do(t, http.MethodPost, "/api/requests", token, map[string]any{
		"kind":      "PTO",
		"fullDay":   true,
		"startDate": "2025-06-25",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[api.DecisionResponse](t, rec)
	assert.False(t, resp.Accepted)
	require.Len(t, resp.Reasons, 1)
	assert.Equal(t, timeoff.CodeLeadTime, resp.Reasons[0].Code)
	assert.Equal(t, timeoff.CategoryPolicy, resp.Reasons[0].Category)
	assert.Equal(t, resp.Reasons[0].Message, resp.Error)

	// nothing stored
	reqs, err := s.store.ListRequests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestSubmitRequest_ForSomeoneElse(t *testing.T) {
	s := newTestServer(t)

	staff := s.login(t, "Ella Harbor")
	rec := s.do(t, http.MethodPost, "/api/requests", staff, map[string]any{
		"kind": "PTO", "employeeId": "99", "fullDay": true, "startDate": "2025-07-10",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := s.login(t, "Haak Wagner")
	rec = s.do(t, http.MethodPost, "/api/requests", admin, map[string]any{
		"kind": "PTO", "employeeId": "1", "fullDay": true, "startDate": "2025-07-10",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSubmitRequest_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Ella Harbor")

	rec := s.do(t, http.MethodPost, "/api/requests", token, map[string]any{"startDate": "July 10"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRequests_StaffOnlySeeOwn(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "Haak Wagner")
	for _, id := range []string{"1", "99"} {
		rec := s.do(t, http.MethodPost, "/api/requests", admin, map[string]any{
			"kind": "PTO", "employeeId": id, "fullDay": true, "startDate": "2025-09-10",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	staff := s.login(t, "Ella Harbor")
	own := decode[[]api.RequestDTO](t, s.do(t, http.MethodGet, "/api/requests?employee_id=99", staff, nil))
	require.Len(t, own, 1)
	assert.Equal(t, "1", own[0].EmployeeID.String())

	all := decode[[]api.RequestDTO](t, s.do(t, http.MethodGet, "/api/requests?year=2025", admin, nil))
	assert.Len(t, all, 2)
}

func TestSummerUsage(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Ella Harbor")
	rec := s.do(t, http.MethodPost, "/api/requests", token, map[string]any{
		"kind": "PTO", "fullDay": true, "startDate": "2025-07-10", "endDate": "2025-07-11",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	usage := decode[api.SummerUsageDTO](t, s.do(t, http.MethodGet, "/api/employees/1/summer-usage?year=2025", token, nil))
	assert.Equal(t, 2, usage.DaysUsed)
	assert.Equal(t, 3, usage.CapDays)
	assert.Equal(t, 1, usage.DaysRemaining)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/employees/nope/summer-usage", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/employees/1/summer-usage?year=abc", token, nil).Code)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAdminTotalsAndExports(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "Haak Wagner")
	rec := s.do(t, http.MethodPost, "/api/requests", admin, map[string]any{
		"kind": "PTO", "employeeId": "1", "fullDay": true, "startDate": "2025-07-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("json", func(t *testing.T) {
		totals := decode[api.TotalsDTO](t, s.do(t, http.MethodGet, "/api/admin/totals?year=2025", admin, nil))
		assert.Equal(t, 2025, totals.Year)
		require.Len(t, totals.Rows, 2)
		assert.Equal(t, "Ella Harbor", totals.Rows[0].Name)
		assert.Equal(t, 8.0, totals.Rows[0].PTO.Approved)
		assert.Equal(t, 0.0, totals.Rows[0].PTO.Taken)
	})

	t.Run("totals csv", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/admin/totals.csv?year=2025&kind=pto", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "totals-2025.csv")
		rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"2025", "Ella Harbor", "Dockhand", "8.00", "8.00", "0.00"}, rows[1])
	})

	t.Run("unknown kind", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/admin/totals.csv?kind=vacation", admin, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requests csv", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/admin/requests.csv", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Body.String(), "Start,End,Type,Employee,Status\n"))
		assert.Contains(t, rec.Body.String(), "2025-07-10 08:00,2025-07-10 16:00,PTO,Ella Harbor,approved")
	})

	t.Run("pdf", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/admin/totals.pdf?year=2025", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("metrics", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `staffdesk_timeoff_decisions_total{code="",kind="PTO",status="approved"} 1`)
		assert.Contains(t, body, `staffdesk_export_rendered_total{format="csv"}`)
		assert.Contains(t, body, `route="/api/admin/totals"`)
	})
}

func TestSyncRoster(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "Haak Wagner")

	// no source
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodPost, "/api/admin/roster/sync", admin, nil).Code)

	// failing source keeps the roster
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	s.handler.Roster = roster.NewSyncer(bad.URL, time.Second, s.store, nil)
	assert.Equal(t, http.StatusBadGateway, s.do(t, http.MethodPost, "/api/admin/roster/sync", admin, nil).Code)
	emps, _ := s.store.ListEmployees(context.Background())
	assert.Len(t, emps, 2)

	// good source replaces it
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":99,"name":"Haak Wagner"},{"id":2,"name":"New Hire"},{"id":3,"name":"Another"}]`))
	}))
	defer good.Close()
	s.handler.Roster = roster.NewSyncer(good.URL, time.Second, s.store, nil)
	rec := s.do(t, http.MethodPost, "/api/admin/roster/sync", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[api.RosterSyncResponse](t, rec).Employees)
}

// =============================================================================
// SHIFTS AND MAINTENANCE
// =============================================================================

func TestShifts(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Ella Harbor")

	rec := s.do(t, http.MethodPost, "/api/shifts", token, api.CreateShiftRequest{
		Name: "Ella Harbor", Date: "2025-07-01", StartTime: "08:00", EndTime: "12:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[schedule.Shift](t, rec)
	require.NotEmpty(t, created.ID)

	t.Run("overlap conflicts", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/shifts", token, api.CreateShiftRequest{
			Name: "Ella Harbor", Date: "2025-07-01", StartTime: "11:00", EndTime: "14:00",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("end before start", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/shifts", token, api.CreateShiftRequest{
			Name: "Ella Harbor", Date: "2025-07-02", StartTime: "14:00", EndTime: "09:00",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing time", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/shifts", token, api.CreateShiftRequest{Name: "x", Date: "2025-07-02"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	list := decode[[]schedule.Shift](t, s.do(t, http.MethodGet, "/api/shifts", token, nil))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/shifts/"+created.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/shifts/"+created.ID, token, nil).Code)
}

func TestMaintenance(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Ella Harbor")

	rec := s.do(t, http.MethodPost, "/api/maintenance", token, api.CreateMaintenanceRequest{Date: "2025-07-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/maintenance", token, api.CreateMaintenanceRequest{
		Date: "2025-07-01", Description: "Pump out dock 3", Priority: "urgent",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/maintenance", token, api.CreateMaintenanceRequest{
		Date: "2025-07-01", Description: "Pump out dock 3", Priority: "high",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[maintenance.Request](t, rec)

	rec = s.do(t, http.MethodPost, "/api/maintenance", token, api.CreateMaintenanceRequest{
		Date: "2025-06-01", Description: "Repaint sign",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	list := decode[[]maintenance.Request](t, s.do(t, http.MethodGet, "/api/maintenance", token, nil))
	require.Len(t, list, 2)
	assert.Equal(t, maintenance.PriorityHigh, list[0].Priority)
	assert.Equal(t, maintenance.PriorityMedium, list[1].Priority)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/maintenance/"+created.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/maintenance/nope", token, nil).Code)
}
