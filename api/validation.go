package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// FieldError is one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every FieldError found in a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// addTagErrors records the failures of a validator.Struct call, with field
// names prefixed by prefix (e.g. "bank.").
func (e *ValidationError) addTagErrors(prefix string, err error) {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		e.add(strings.TrimSuffix(prefix, "."), "%v", err)
		return
	}
	for _, fe := range errs {
		e.Fields = append(e.Fields, FieldError{Field: prefix + fe.Field(), Message: tagMessage(fe)})
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_with":
		return "is required when " + strings.ToLower(fe.Param()) + " is set"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// validate checks the struct tags on request DTOs. Field names in errors
// are the json names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// TIMESHEETS
// =============================================================================

// parseTimesheet validates req and converts it to a storable timesheet.
// Every problem is reported, not just the first.
func parseTimesheet(req TimesheetRequest) (sqlite.Timesheet, error) {
	verr := &ValidationError{}
	ts := sqlite.Timesheet{EmployeeID: strings.TrimSpace(req.EmployeeID), Allowances: decimal.Zero}

	if ts.EmployeeID == "" {
		verr.add("employee_id", "is required")
	}

	start, startErr := payroll.ParseDate(req.PeriodStart)
	if startErr != nil {
		verr.add("period_start", "must be a date in YYYY-MM-DD format")
	}
	end, endErr := payroll.ParseDate(req.PeriodEnd)
	if endErr != nil {
		verr.add("period_end", "must be a date in YYYY-MM-DD format")
	}
	if startErr == nil && endErr == nil {
		p, err := payroll.NewPeriod(start, end)
		if err != nil {
			verr.add("period_end", "must not be before period_start")
		}
		ts.Period = p
	}

	if req.Allowances != nil {
		if req.Allowances.IsNegative() {
			verr.add("allowances", "must not be negative")
		}
		ts.Allowances = req.Allowances.Decimal
	}

	if len(req.Entries) == 0 {
		verr.add("entries", "at least one entry is required")
	}
	for i, e := range req.Entries {
		rec, ok := parseEntry(verr, fmt.Sprintf("entries[%d]", i), e)
		if ok {
			ts.Entries = append(ts.Entries, rec)
		}
	}

	if err := verr.orNil(); err != nil {
		return sqlite.Timesheet{}, err
	}
	return ts, nil
}

func parseEntry(verr *ValidationError, prefix string, e TimesheetEntryDTO) (payroll.AttendanceRecord, bool) {
	before := len(verr.Fields)
	var rec payroll.AttendanceRecord

	date, err := payroll.ParseDate(e.Date)
	if err != nil {
		verr.add(prefix+".date", "must be a date in YYYY-MM-DD format")
	}
	rec.Date = date

	start, err := payroll.ParseClock(e.Start)
	if err != nil {
		verr.add(prefix+".start", "%v", err)
	}
	end, err := payroll.ParseClock(e.End)
	if err != nil {
		verr.add(prefix+".end", "%v", err)
	}
	rec.Start, rec.End = start, end

	if e.UnpaidBreakMins < 0 {
		verr.add(prefix+".unpaid_break_mins", "must not be negative")
	}
	rec.UnpaidBreakMins = e.UnpaidBreakMins

	if len(verr.Fields) == before {
		if end < start {
			verr.add(prefix+".end", "must not be before start")
		} else if rec.PaidMinutes() < 0 {
			verr.add(prefix+".unpaid_break_mins", "exceeds the shift length")
		}
	}
	return rec, len(verr.Fields) == before
}

// =============================================================================
// EMPLOYEES / PAY-RUNS
// =============================================================================

func parseEmployee(req CreateEmployeeRequest) (sqlite.Employee, error) {
	verr := &ValidationError{}
	emp := sqlite.Employee{
		ID:        strings.TrimSpace(req.ID),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Type:      req.Type,
		Bank:      sqlite.BankAccount{BSB: req.Bank.BSB, Account: req.Bank.Account},
	}

	if emp.ID == "" {
		verr.add("id", "is required")
	}
	if emp.FirstName == "" {
		verr.add("first_name", "is required")
	}
	if emp.LastName == "" {
		verr.add("last_name", "is required")
	}
	if emp.Type == "" {
		emp.Type = "hourly"
	}
	if emp.Type != "hourly" {
		verr.add("type", "only hourly employees are supported")
	}
	if err := validate.Struct(req.Bank); err != nil {
		verr.addTagErrors("bank.", err)
	}

	switch {
	case req.BaseHourlyRate == nil:
		verr.add("base_hourly_rate", "is required")
	case !req.BaseHourlyRate.IsPositive():
		verr.add("base_hourly_rate", "must be positive")
	default:
		emp.BaseHourlyRate = req.BaseHourlyRate.Decimal
	}

	switch {
	case req.SuperRate == nil:
		verr.add("super_rate", "is required")
	case req.SuperRate.IsNegative() || req.SuperRate.GreaterThan(decimal.NewFromInt(1)):
		verr.add("super_rate", "must be between 0 and 1")
	default:
		emp.SuperRate = req.SuperRate.Decimal
	}

	if err := verr.orNil(); err != nil {
		return sqlite.Employee{}, err
	}
	return emp, nil
}

func parseLogin(req LoginRequest) (LoginRequest, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Email = strings.TrimSpace(req.Email)

	verr := &ValidationError{}
	if err := validate.Struct(req); err != nil {
		verr.addTagErrors("", err)
	}
	if err := verr.orNil(); err != nil {
		return LoginRequest{}, err
	}
	return req, nil
}

func parsePayRunRequest(req PayRunRequest) (payroll.Period, []string, error) {
	verr := &ValidationError{}

	start, startErr := payroll.ParseDate(req.PeriodStart)
	if startErr != nil {
		verr.add("period_start", "must be a date in YYYY-MM-DD format")
	}
	end, endErr := payroll.ParseDate(req.PeriodEnd)
	if endErr != nil {
		verr.add("period_end", "must be a date in YYYY-MM-DD format")
	}

	var period payroll.Period
	if startErr == nil && endErr == nil {
		p, err := payroll.NewPeriod(start, end)
		if err != nil {
			verr.add("period_end", "must not be before period_start")
		}
		period = p
	}

	var ids []string
	for i, id := range req.EmployeeIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			verr.add(fmt.Sprintf("employee_ids[%d]", i), "must not be empty")
			continue
		}
		ids = append(ids, id)
	}

	if err := verr.orNil(); err != nil {
		return payroll.Period{}, nil, err
	}
	return period, ids, nil
}
