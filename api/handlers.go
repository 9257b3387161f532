/*
handlers.go - HTTP API handlers for the staff desk

PURPOSE:
  Exposes the time-off engine, the shift schedule and the maintenance list
  via REST API. Handles HTTP request/response and JSON serialization, and
  delegates to the domain services.

ENDPOINTS:
  Session:
    POST   /api/login                          Roster name + shared password

  Employees:
    GET    /api/employees                      Current roster
    GET    /api/employees/{id}/summer-usage    Summer PTO days used (?year=)

  Requests:
    POST   /api/requests                       Submit a draft
    GET    /api/requests                       History (?employee_id=&year=)

  Admin (admin session):
    GET    /api/admin/totals                   Yearly totals (?year=)
    GET    /api/admin/totals.csv               Totals CSV (?year=&kind=)
    GET    /api/admin/totals.pdf               Totals PDF (?year=&kind=)
    GET    /api/admin/requests.csv             Full history CSV
    POST   /api/admin/roster/sync              Pull the roster now

  Shifts / Maintenance:
    GET|POST /api/shifts, DELETE /api/shifts/{id}
    GET|POST /api/maintenance, DELETE /api/maintenance/{id}

ERROR HANDLING:
  Errors are returned as JSON {error, details} with:
  - 400: Validation errors, invalid input
  - 401: Missing or invalid session
  - 403: Admin required, or acting for another employee
  - 404: Resource not found
  - 409: Conflict (overlapping shift, duplicate id)
  - 422: Draft rejected by policy; the body carries the reasons
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - session.go: Bearer token middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marinaops/staffdesk/auth"
	"github.com/marinaops/staffdesk/export"
	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/maintenance"
	"github.com/marinaops/staffdesk/roster"
	"github.com/marinaops/staffdesk/schedule"
	"github.com/marinaops/staffdesk/timeoff"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// ExportRecorder counts rendered exports by format.
type ExportRecorder interface {
	ExportRendered(format string)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Requests    *timeoff.RequestService
	Shifts      *schedule.Service
	Maintenance *maintenance.Service
	Auth        *auth.Authenticator
	Tokens      *auth.Tokens
	Roster      *roster.Syncer // nil when no roster source is configured
	Exports     ExportRecorder // optional
	Logger      *slog.Logger
}

// =============================================================================
// SESSION
// =============================================================================

// Login exchanges a roster name and the shared password for a bearer token.
// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, err := h.Auth.Login(r.Context(), req.Name, req.Password)
	switch {
	case errors.Is(err, auth.ErrNameNotFound), errors.Is(err, auth.ErrIncorrectPassword):
		writeError(w, http.StatusUnauthorized, err.Error(), nil)
		return
	case err != nil:
		h.internalError(w, r, "Failed to log in", err)
		return
	}

	token, expires, err := h.Tokens.Issue(s)
	if err != nil {
		h.internalError(w, r, "Failed to issue session", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:      token,
		ExpiresAt:  expires.UTC().Format(time.RFC3339),
		EmployeeID: s.EmployeeID,
		Name:       s.Name,
		IsAdmin:    s.IsAdmin,
	})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the current roster.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Requests.Store.ListEmployees(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSummerUsage returns the summer PTO days counted against the cap.
// GET /api/employees/{id}/summer-usage?year=
func (h *Handler) GetSummerUsage(w http.ResponseWriter, r *http.Request) {
	id := generic.EntityID(chi.URLParam(r, "id"))
	year, err := h.yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	used, err := h.Requests.SummerUsage(r.Context(), id, year)
	if err != nil {
		h.serviceError(w, r, "Failed to compute summer usage", err)
		return
	}
	capDays := h.Requests.Evaluator.Policy.SummerCapDays
	remaining := capDays - used
	if remaining < 0 {
		remaining = 0
	}
	writeJSON(w, http.StatusOK, SummerUsageDTO{
		EmployeeID:    id,
		Year:          year,
		DaysUsed:      used,
		CapDays:       capDays,
		DaysRemaining: remaining,
	})
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest evaluates a draft and stores the outcome.
// Non-admins may only submit for themselves.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var draft timeoff.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if kind, ok := timeoff.ParseKind(string(draft.Kind)); ok {
		draft.Kind = kind
	}

	s, _ := SessionFrom(r.Context())
	if draft.EmployeeID == "" {
		draft.EmployeeID = s.EmployeeID
	}
	if !s.IsAdmin && draft.EmployeeID != s.EmployeeID {
		writeError(w, http.StatusForbidden, "You can only request time off for yourself", nil)
		return
	}

	decision, err := h.Requests.Submit(r.Context(), draft)
	if err != nil {
		h.serviceError(w, r, "Failed to submit request", err)
		return
	}
	if !decision.Accepted {
		writeJSON(w, http.StatusUnprocessableEntity, toDecisionResponse(decision))
		return
	}
	writeJSON(w, http.StatusCreated, toDecisionResponse(decision))
}

// ListRequests returns history ordered by start. Non-admins only see their own.
// GET /api/requests?employee_id=&year=
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	f := timeoff.HistoryFilter{EmployeeID: generic.EntityID(r.URL.Query().Get("employee_id"))}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		f.Year = year
	}
	if s, _ := SessionFrom(r.Context()); !s.IsAdmin {
		f.EmployeeID = s.EmployeeID
	}

	history, err := h.Requests.History(r.Context(), f)
	if err != nil {
		h.internalError(w, r, "Failed to list requests", err)
		return
	}
	dtos := make([]RequestDTO, len(history))
	for i, rec := range history {
		dtos[i] = toRequestDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GetTotals returns the yearly rollup.
// GET /api/admin/totals?year=
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	totals, ok := h.loadTotals(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTotalsDTO(totals))
}

// ExportTotalsCSV streams the totals table for one kind, or all kinds summed.
// GET /api/admin/totals.csv?year=&kind=
func (h *Handler) ExportTotalsCSV(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	totals, ok := h.loadTotals(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTotalsCSV(&buf, totals, kind); err != nil {
		h.serviceError(w, r, "Failed to render CSV", err)
		return
	}
	h.sendFile(w, "text/csv; charset=utf-8", fmt.Sprintf("totals-%d.csv", totals.Year), "csv", &buf)
}

// ExportTotalsPDF renders the totals table as a PDF.
// GET /api/admin/totals.pdf?year=&kind=
func (h *Handler) ExportTotalsPDF(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	totals, ok := h.loadTotals(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTotalsPDF(&buf, totals, kind, h.Requests.Now().In(h.Requests.Location())); err != nil {
		h.serviceError(w, r, "Failed to render PDF", err)
		return
	}
	h.sendFile(w, "application/pdf", fmt.Sprintf("totals-%d.pdf", totals.Year), "pdf", &buf)
}

// ExportRequestsCSV streams every stored request.
// GET /api/admin/requests.csv
func (h *Handler) ExportRequestsCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employees, err := h.Requests.Store.ListEmployees(ctx)
	if err != nil {
		h.internalError(w, r, "Failed to list employees", err)
		return
	}
	history, err := h.Requests.Store.ListRequests(ctx)
	if err != nil {
		h.internalError(w, r, "Failed to list requests", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRequestsCSV(&buf, history, employees, h.Requests.Location()); err != nil {
		h.internalError(w, r, "Failed to render CSV", err)
		return
	}
	h.sendFile(w, "text/csv; charset=utf-8", "time-off-requests.csv", "requests_csv", &buf)
}

// SyncRoster pulls the roster immediately. A failed pull keeps the current one.
// POST /api/admin/roster/sync
func (h *Handler) SyncRoster(w http.ResponseWriter, r *http.Request) {
	if h.Roster == nil {
		writeError(w, http.StatusServiceUnavailable, "No roster source configured", nil)
		return
	}
	n, err := h.Roster.Sync(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Roster not available", err)
		return
	}
	writeJSON(w, http.StatusOK, RosterSyncResponse{Employees: n})
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListShifts returns every shift by date and start time.
// GET /api/shifts
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Shifts.List(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to list shifts", err)
		return
	}
	writeJSON(w, http.StatusOK, shifts)
}

// CreateShift adds a shift unless it overlaps one for the same name.
// POST /api/shifts
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	shift, err := schedule.Parse(req.Name, req.Date, req.StartTime, req.EndTime, req.Notes)
	if err != nil {
		h.serviceError(w, r, "Invalid shift", err)
		return
	}
	created, err := h.Shifts.Add(r.Context(), shift)
	if err != nil {
		h.serviceError(w, r, "Failed to add shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteShift removes one shift.
// DELETE /api/shifts/{id}
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := h.Shifts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.serviceError(w, r, "Failed to delete shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MAINTENANCE HANDLERS
// =============================================================================

// GET /api/maintenance
func (h *Handler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	list, err := h.Maintenance.List(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to list maintenance requests", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/maintenance
func (h *Handler) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var req CreateMaintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	var date generic.Date
	if strings.TrimSpace(req.Date) != "" {
		d, err := generic.ParseDate(strings.TrimSpace(req.Date))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = d
	}

	created, err := h.Maintenance.Add(r.Context(), maintenance.Request{
		Date:        date,
		Description: req.Description,
		Priority:    maintenance.Priority(req.Priority),
	})
	if err != nil {
		h.serviceError(w, r, "Failed to add maintenance request", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DELETE /api/maintenance/{id}
func (h *Handler) DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	if err := h.Maintenance.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.serviceError(w, r, "Failed to delete maintenance request", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadTotals(w http.ResponseWriter, r *http.Request) (timeoff.Totals, bool) {
	year, err := h.yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return timeoff.Totals{}, false
	}
	totals, err := h.Requests.Totals(r.Context(), year)
	if err != nil {
		h.internalError(w, r, "Failed to compute totals", err)
		return timeoff.Totals{}, false
	}
	return totals, true
}

// yearParam reads ?year=, defaulting to the current year in the policy zone.
func (h *Handler) yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.Requests.Now().In(h.Requests.Location()).Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("year %q: %w", raw, generic.ErrInvalidInput)
	}
	return year, nil
}

// kindParam reads ?kind=. Empty means all kinds.
func kindParam(w http.ResponseWriter, r *http.Request) (timeoff.Kind, bool) {
	raw := r.URL.Query().Get("kind")
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", true
	}
	kind, ok := timeoff.ParseKind(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown kind %q", raw), nil)
		return "", false
	}
	return kind, true
}

func (h *Handler) sendFile(w http.ResponseWriter, contentType, filename, format string, body io.Reader) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
	if h.Exports != nil {
		h.Exports.ExportRendered(format)
	}
}

// serviceError maps domain errors onto status codes.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsConflict(err), errors.Is(err, generic.ErrDuplicateID):
		writeError(w, http.StatusConflict, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.internalError(w, r, message, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.logger().ErrorContext(r.Context(), message, slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, message, nil)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
