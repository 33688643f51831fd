/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Money, rates and hours cross the wire as Money: a JSON number with exactly
  two fractional digits (1325 -> 1325.00). Incoming numbers are parsed
  straight into decimal.Decimal without passing through float64.

VALIDATION:
  Simple per-field rules are validate tags (go-playground/validator);
  everything cross-field is in validation.go.

SEE ALSO:
  - handlers.go: Uses these types
  - validation.go: Request validation
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// MONEY
// =============================================================================

// Money marshals as a JSON number fixed to 2 decimal places.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

// Rate marshals as a JSON number without trailing-zero padding (0.115).
type Rate struct {
	decimal.Decimal
}

func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	return r.Decimal.UnmarshalJSON(data)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// BankDTO is optional on requests, but bsb and account come as a pair.
type BankDTO struct {
	BSB     string `json:"bsb" validate:"required_with=Account"`
	Account string `json:"account" validate:"required_with=BSB"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Type           string  `json:"type"`
	BaseHourlyRate Money   `json:"base_hourly_rate"`
	SuperRate      Rate    `json:"super_rate"`
	Bank           BankDTO `json:"bank"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
}

// CreateEmployeeRequest creates or replaces an employee.
type CreateEmployeeRequest struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Type           string  `json:"type"`
	BaseHourlyRate *Money  `json:"base_hourly_rate"`
	SuperRate      *Rate   `json:"super_rate"`
	Bank           BankDTO `json:"bank"`
}

// =============================================================================
// TIMESHEETS
// =============================================================================

type TimesheetEntryDTO struct {
	Date            string `json:"date"`
	Start           string `json:"start"`
	End             string `json:"end"`
	UnpaidBreakMins int    `json:"unpaid_break_mins"`
}

// TimesheetRequest submits (or resubmits) a timesheet.
type TimesheetRequest struct {
	EmployeeID  string              `json:"employee_id"`
	PeriodStart string              `json:"period_start"`
	PeriodEnd   string              `json:"period_end"`
	Entries     []TimesheetEntryDTO `json:"entries"`
	Allowances  *Money              `json:"allowances,omitempty"`
}

type TimesheetDTO struct {
	ID          string              `json:"id"`
	EmployeeID  string              `json:"employee_id"`
	PeriodStart string              `json:"period_start"`
	PeriodEnd   string              `json:"period_end"`
	Entries     []TimesheetEntryDTO `json:"entries"`
	Allowances  Money               `json:"allowances"`
	CreatedAt   string              `json:"created_at,omitempty"`
}

// =============================================================================
// PAY-RUNS
// =============================================================================

// PayRunRequest generates a pay-run. An empty EmployeeIDs means everyone.
type PayRunRequest struct {
	PeriodStart string   `json:"period_start"`
	PeriodEnd   string   `json:"period_end"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

type TotalsDTO struct {
	Gross Money `json:"gross"`
	Tax   Money `json:"tax"`
	Super Money `json:"super"`
	Net   Money `json:"net"`
}

type PayslipDTO struct {
	EmployeeID    string `json:"employee_id"`
	PayRunID      string `json:"payrun_id,omitempty"`
	PeriodStart   string `json:"period_start,omitempty"`
	PeriodEnd     string `json:"period_end,omitempty"`
	NormalHours   Money  `json:"normal_hours"`
	OvertimeHours Money  `json:"overtime_hours"`
	Gross         Money  `json:"gross"`
	Tax           Money  `json:"tax"`
	Super         Money  `json:"super"`
	Net           Money  `json:"net"`
}

type PayRunDTO struct {
	ID          string       `json:"id"`
	PeriodStart string       `json:"period_start"`
	PeriodEnd   string       `json:"period_end"`
	Totals      TotalsDTO    `json:"totals"`
	Payslips    []PayslipDTO `json:"payslips"`
	CreatedAt   string       `json:"created_at"`
}

// =============================================================================
// AUTH / SCENARIOS / ERRORS
// =============================================================================

type LoginRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ExpiresIn string `json:"expires_in"`
	UserID    string `json:"user_id"`
}

// ScenarioDTO describes a loadable scenario.
type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Employees   int    `json:"employees"`
	Timesheets  int    `json:"timesheets"`
}

type LoadScenarioRequest struct {
	Name string `json:"name"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e sqlite.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:             e.ID,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Type:           e.Type,
		BaseHourlyRate: NewMoney(e.BaseHourlyRate),
		SuperRate:      Rate{Decimal: e.SuperRate},
		Bank:           BankDTO{BSB: e.Bank.BSB, Account: e.Bank.Account},
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(timestampLayout)
		dto.UpdatedAt = e.UpdatedAt.Format(timestampLayout)
	}
	return dto
}

func toTimesheetDTO(ts sqlite.Timesheet) TimesheetDTO {
	entries := make([]TimesheetEntryDTO, len(ts.Entries))
	for i, e := range ts.Entries {
		entries[i] = TimesheetEntryDTO{
			Date:            e.Date.String(),
			Start:           e.Start.String(),
			End:             e.End.String(),
			UnpaidBreakMins: e.UnpaidBreakMins,
		}
	}
	return TimesheetDTO{
		ID:          ts.ID,
		EmployeeID:  ts.EmployeeID,
		PeriodStart: ts.Period.Start.String(),
		PeriodEnd:   ts.Period.End.String(),
		Entries:     entries,
		Allowances:  NewMoney(ts.Allowances),
		CreatedAt:   ts.CreatedAt.Format(timestampLayout),
	}
}

func toPayslipDTO(p payroll.Payslip) PayslipDTO {
	return PayslipDTO{
		EmployeeID:    p.EmployeeID,
		NormalHours:   NewMoney(p.NormalHours),
		OvertimeHours: NewMoney(p.OvertimeHours),
		Gross:         NewMoney(p.Gross),
		Tax:           NewMoney(p.Tax),
		Super:         NewMoney(p.Super),
		Net:           NewMoney(p.Net),
	}
}

func toPayRunDTO(rec sqlite.PayRunRecord) PayRunDTO {
	payslips := make([]PayslipDTO, len(rec.Payslips))
	for i, p := range rec.Payslips {
		payslips[i] = toPayslipDTO(p)
	}
	return PayRunDTO{
		ID:          rec.ID,
		PeriodStart: rec.Period.Start.String(),
		PeriodEnd:   rec.Period.End.String(),
		Totals: TotalsDTO{
			Gross: NewMoney(rec.Totals.Gross),
			Tax:   NewMoney(rec.Totals.Tax),
			Super: NewMoney(rec.Totals.Super),
			Net:   NewMoney(rec.Totals.Net),
		},
		Payslips:  payslips,
		CreatedAt: rec.CreatedAt.Format(timestampLayout),
	}
}

func toPayslipRecordDTO(rec sqlite.PayslipRecord) PayslipDTO {
	dto := toPayslipDTO(rec.Payslip)
	dto.PayRunID = rec.PayRunID
	dto.PeriodStart = rec.Period.Start.String()
	dto.PeriodEnd = rec.Period.End.String()
	return dto
}
