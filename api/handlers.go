/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the payroll package for every
  figure it returns.

ENDPOINTS:
  Service:
    GET    /health                          Liveness and database check
    GET    /metrics                         Request counters and runtime stats

  Auth:
    POST   /api/auth/login                  Issue a bearer token

  Employees:
    GET    /api/employees                   List all employees
    POST   /api/employees                   Create or replace employee
    GET    /api/employees/{id}              Get employee details
    GET    /api/employees/{id}/timesheets   Timesheets, newest first

  Timesheets:
    POST   /api/timesheets                  Submit (or resubmit) a timesheet

  Pay-runs:
    POST   /api/payruns                     Generate and store a pay-run
    GET    /api/payruns                     List pay-runs, newest first
    GET    /api/payruns/{id}                Get one pay-run

  Payslips:
    GET    /api/payslips/{employeeId}/{payRunId}      Payslip as JSON
    GET    /api/payslips/{employeeId}/{payRunId}/pdf  Payslip as PDF

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    GET    /api/scenarios/current           Currently loaded scenario
    POST   /api/scenarios/load              Load a demo scenario
    POST   /api/scenarios/reset             Clear the database

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access, also the pay-run's record-set provider
  - Calculator: Hours, tax and pay rules
  - Auth: Token issuer (nil when authentication is disabled)
  - Metrics: Counters surfaced on /metrics

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (validation.go)
  3. Call domain logic (payroll package, store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing or invalid bearer token
  - 404: Resource not found, or no timesheets for a pay-run
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - validation.go: Request validation
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

const timestampLayout = time.RFC3339

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Calculator *payroll.Calculator
	Auth       *Authenticator
	Metrics    *Metrics
	Logger     *slog.Logger

	// Serializes scenario loads and resets
	mu              sync.Mutex
	currentScenario *Scenario
}

// NewHandler creates a new handler with the given store. Authentication is
// off until Auth is set.
func NewHandler(store *sqlite.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:      store,
		Calculator: payroll.NewCalculator(),
		Metrics:    NewMetrics(),
		Logger:     logger,
	}
}

// =============================================================================
// SERVICE HANDLERS
// =============================================================================

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetMetrics returns the current counters.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Metrics.Snapshot())
}

// Login issues a bearer token. There is no user store; any non-empty
// user_id with a well-formed email is accepted.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "Authentication is not configured", nil)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req, err := parseLogin(req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	token, err := h.Auth.GenerateToken(req.UserID, req.Email)
	if err != nil {
		h.writeInternalError(w, r, "Failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		Type:      "Bearer",
		ExpiresIn: h.Auth.TTLString(),
		UserID:    req.UserID,
	})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeInternalError(w, r, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates an employee, replacing any with the same ID.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := parseEmployee(req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.writeInternalError(w, r, "Failed to save employee", err)
		return
	}

	saved, err := h.Store.GetEmployee(r.Context(), emp.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*saved))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// ListEmployeeTimesheets returns an employee's timesheets, newest first.
func (h *Handler) ListEmployeeTimesheets(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), employeeID); err != nil {
		h.handleError(w, r, err)
		return
	}

	timesheets, err := h.Store.ListTimesheets(r.Context(), employeeID)
	if err != nil {
		h.writeInternalError(w, r, "Failed to list timesheets", err)
		return
	}

	dtos := make([]TimesheetDTO, len(timesheets))
	for i, ts := range timesheets {
		dtos[i] = toTimesheetDTO(ts)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// SubmitTimesheet stores a timesheet. Resubmitting the same employee and
// period replaces the earlier one.
func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	var req TimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ts, err := parseTimesheet(req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	saved, err := h.Store.UpsertTimesheet(r.Context(), ts)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.Metrics.TimesheetStored()

	writeJSON(w, http.StatusCreated, toTimesheetDTO(*saved))
}

// =============================================================================
// PAY-RUN HANDLERS
// =============================================================================

// CreatePayRun generates a pay-run from stored timesheets and persists it.
func (h *Handler) CreatePayRun(w http.ResponseWriter, r *http.Request) {
	var req PayRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, employeeIDs, err := parsePayRunRequest(req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	run, err := h.Calculator.GeneratePayRun(r.Context(), period, employeeIDs, h.Store)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	rec, err := h.Store.SavePayRun(r.Context(), run)
	if err != nil {
		h.writeInternalError(w, r, "Failed to save pay run", err)
		return
	}
	h.Metrics.PayRunGenerated(len(run.Payslips))

	h.Logger.Info("pay run generated",
		"payrun_id", rec.ID,
		"period", period.String(),
		"employees", len(run.Payslips),
		"gross", run.Totals.Gross.StringFixed(2),
		"net", run.Totals.Net.StringFixed(2),
	)

	writeJSON(w, http.StatusCreated, toPayRunDTO(*rec))
}

// ListPayRuns returns every stored pay-run, newest first.
func (h *Handler) ListPayRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListPayRuns(r.Context())
	if err != nil {
		h.writeInternalError(w, r, "Failed to list pay runs", err)
		return
	}

	dtos := make([]PayRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toPayRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPayRun returns a stored pay-run.
func (h *Handler) GetPayRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetPayRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayRunDTO(*run))
}

// =============================================================================
// PAYSLIP HANDLERS
// =============================================================================

// GetPayslip returns one employee's line of a stored pay-run.
func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.Store.GetPayslip(r.Context(), chi.URLParam(r, "employeeId"), chi.URLParam(r, "payRunId"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipRecordDTO(*slip))
}

// GetPayslipPDF renders a stored payslip as a PDF document.
func (h *Handler) GetPayslipPDF(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")
	slip, err := h.Store.GetPayslip(r.Context(), employeeID, chi.URLParam(r, "payRunId"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	emp, err := h.Store.GetEmployee(r.Context(), employeeID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	// Render fully before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := writePayslipPDF(&buf, emp, slip); err != nil {
		h.writeInternalError(w, r, "Failed to render payslip", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		`attachment; filename="payslip-`+employeeID+`-`+slip.Period.Start.String()+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// HELPERS
// =============================================================================

// handleError maps domain and validation errors to HTTP responses.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "Validation failed",
			Fields: verr.Fields,
		})
	case payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, notFoundMessage(err), err)
	default:
		h.writeInternalError(w, r, "Internal error", err)
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, payroll.ErrNoMatchingRecords):
		return "No timesheets found for the specified period"
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		return "Employee not found"
	case errors.Is(err, payroll.ErrPayRunNotFound):
		return "Pay run not found"
	default:
		return "Payslip not found"
	}
}

// writeInternalError logs err and returns a 500.
func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.Logger.Error(message,
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
