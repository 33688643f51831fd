/*
store.go - Interface between the engine and whatever holds timesheets

PURPOSE:
  The pay-run aggregator needs the submitted record-sets (timesheets) that
  overlap a period. It does not care where they live: the SQLite store in
  store/sqlite implements RecordSetProvider for production, the Memory
  provider in payroll/store backs tests and local tools.

CONTRACT:
  RecordSetsOverlapping returns every stored record-set whose own period
  overlaps the query period. Returning extra sets is harmless (the aggregator
  re-applies the overlap test and the employee filter); omitting one is not.
  Providers own their own locking; the engine holds none.

SEE ALSO:
  - payrun.go: The consumer of this interface
  - store/sqlite/sqlite.go: Production implementation
  - payroll/store/memory.go: In-memory implementation
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// RecordSet is one employee's submitted attendance for one self-declared
// period, with its allowance total and the employee's current rates.
type RecordSet struct {
	ID         string
	EmployeeID string
	Period     Period
	Rates      PayRateProfile
	Allowances decimal.Decimal
	Records    []AttendanceRecord
}

// RecordSetProvider supplies record-sets to the pay-run aggregator.
type RecordSetProvider interface {
	RecordSetsOverlapping(ctx context.Context, period Period) ([]RecordSet, error)
}

// RecordSetProviderFunc adapts a function to RecordSetProvider.
type RecordSetProviderFunc func(ctx context.Context, period Period) ([]RecordSet, error)

func (f RecordSetProviderFunc) RecordSetsOverlapping(ctx context.Context, period Period) ([]RecordSet, error) {
	return f(ctx, period)
}
