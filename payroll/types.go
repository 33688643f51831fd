/*
Package payroll provides the pay calculation engine.

PURPOSE:
  Turns raw attendance records for a pay period into hours worked, gross
  pay, tax withheld, superannuation and net pay, and aggregates those
  figures across employees into a pay-run with period totals.

KEY CONCEPTS IN THIS FILE (types.go):
  - AttendanceRecord: one worked shift (date, start, end, unpaid break)
  - HoursBreakdown: normal / overtime / total hours for a set of records
  - PayRateProfile: the employee-owned rates the engine is given
  - PayCalculation: the per-employee result of one computation
  - PayRun: per-employee results plus period totals

DESIGN PRINCIPLES:
  1. Purity: nothing in this package performs I/O or keeps state between calls
  2. Precision: all hours and money use decimal.Decimal, rounded to cents
  3. Immutability: a PayRun is built once and never mutated
  4. Explicit rules: thresholds, multipliers and brackets live in values
     (HoursRules, TaxSchedule) held by a Calculator, never in globals

USAGE:
  calc := payroll.NewCalculator()
  result := calc.ComputePay(records, decimal.NewFromInt(30), payroll.PayRateProfile{
      BaseHourlyRate: decimal.NewFromInt(35),
      SuperRate:      decimal.RequireFromString("0.115"),
  })

SEE ALSO:
  - hours.go: Hours aggregation and the overtime threshold
  - tax.go: Progressive tax schedule
  - calculator.go: Orchestration of one employee's pay
  - payrun.go: Multi-employee aggregation
*/
package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// ATTENDANCE
// =============================================================================

// AttendanceRecord is a single worked shift. Start and End are wall-clock
// times on Date; ordering is not validated here.
type AttendanceRecord struct {
	Date            Date
	Start           Clock
	End             Clock
	UnpaidBreakMins int
}

// PaidMinutes returns (End - Start) - UnpaidBreakMins. The result is not
// clamped: a negative value means the caller supplied an invalid record and
// the downstream figures are undefined.
func (r AttendanceRecord) PaidMinutes() int {
	return r.End.Minutes() - r.Start.Minutes() - r.UnpaidBreakMins
}

// =============================================================================
// RESULTS
// =============================================================================

// HoursBreakdown splits paid hours at the weekly overtime threshold.
// Each field is rounded to 2 decimal places on its own.
type HoursBreakdown struct {
	NormalHours   decimal.Decimal
	OvertimeHours decimal.Decimal
	TotalHours    decimal.Decimal
}

// PayRateProfile is owned by the employee and passed in by value.
type PayRateProfile struct {
	BaseHourlyRate decimal.Decimal
	SuperRate      decimal.Decimal // fraction in [0, 1]
}

// PayCalculation is the outcome of computing one employee's pay.
type PayCalculation struct {
	NormalHours   decimal.Decimal
	OvertimeHours decimal.Decimal
	Gross         decimal.Decimal
	Tax           decimal.Decimal
	Super         decimal.Decimal
	Net           decimal.Decimal
}

// =============================================================================
// PAY RUN
// =============================================================================

// Payslip is one employee's line in a pay-run.
type Payslip struct {
	EmployeeID string
	PayCalculation
}

// PayRunTotals sums the already-rounded per-employee figures.
type PayRunTotals struct {
	Gross decimal.Decimal
	Tax   decimal.Decimal
	Super decimal.Decimal
	Net   decimal.Decimal
}

// Add returns the totals with calc folded in.
func (t PayRunTotals) Add(calc PayCalculation) PayRunTotals {
	return PayRunTotals{
		Gross: t.Gross.Add(calc.Gross),
		Tax:   t.Tax.Add(calc.Tax),
		Super: t.Super.Add(calc.Super),
		Net:   t.Net.Add(calc.Net),
	}
}

// PayRun is the immutable result of one GeneratePayRun call. Payslips are
// ordered by employee ID.
type PayRun struct {
	Period   Period
	Totals   PayRunTotals
	Payslips []Payslip
}

// Payslip returns the line for employeeID, if present.
func (pr *PayRun) Payslip(employeeID string) (Payslip, bool) {
	for _, p := range pr.Payslips {
		if p.EmployeeID == employeeID {
			return p, true
		}
	}
	return Payslip{}, false
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var minutesPerHour = decimal.NewFromInt(60)

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
