/*
errors.go - Error types for the payroll engine and its stores

ERROR CATEGORIES:
  1. Input errors - malformed clock strings, inverted periods
  2. No-data - a pay-run query that matched no record-sets
  3. Store errors - lookups of employees, pay-runs, payslips that don't exist

USAGE:
  run, err := calc.GeneratePayRun(ctx, period, nil, store)
  if errors.Is(err, payroll.ErrNoMatchingRecords) {
      // valid query, nothing to pay
  }
*/
package payroll

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoMatchingRecords is returned by GeneratePayRun when no record-set
	// overlaps the requested period and filter. It is an expected outcome of a
	// valid query, not a fault.
	ErrNoMatchingRecords = errors.New("no timesheets found for the specified period")

	// ErrMalformedTime is returned when a clock string is not 24-hour HH:MM.
	ErrMalformedTime = errors.New("malformed time of day")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	ErrEmployeeNotFound = errors.New("employee not found")
	ErrPayRunNotFound   = errors.New("pay run not found")
	ErrPayslipNotFound  = errors.New("payslip not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MalformedTimeError names the offending value.
type MalformedTimeError struct {
	Value string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("time must be in HH:MM format (e.g., 09:00), got %q", e.Value)
}

func (e *MalformedTimeError) Unwrap() error {
	return ErrMalformedTime
}

// NoMatchingRecordsError describes the query that matched nothing.
type NoMatchingRecordsError struct {
	Period      Period
	EmployeeIDs []string
}

func (e *NoMatchingRecordsError) Error() string {
	if len(e.EmployeeIDs) == 0 {
		return fmt.Sprintf("%v: %s", ErrNoMatchingRecords, e.Period)
	}
	return fmt.Sprintf("%v: %s (employees: %s)", ErrNoMatchingRecords, e.Period, strings.Join(e.EmployeeIDs, ", "))
}

func (e *NoMatchingRecordsError) Unwrap() error {
	return ErrNoMatchingRecords
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedTime) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates missing data. A pay-run
// query with no matching record-sets counts as not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoMatchingRecords) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrPayRunNotFound) ||
		errors.Is(err, ErrPayslipNotFound)
}
