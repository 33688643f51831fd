/*
calculator.go - Per-employee pay orchestration

PIPELINE:
  records ──► HoursRules.Breakdown ──► HoursRules.GrossPay ──┬─► TaxSchedule.Tax ──┐
                                                              └─► SuperContribution  ├─► NetPay
                                                                                     │
  Tax and super are independent of each other; net only needs gross and tax.

The package-level ComputeHours / ComputeTax / ComputePay / GeneratePayRun
functions use a Calculator with the default rules. Construct your own
Calculator to substitute a different threshold or schedule.
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// Calculator bundles the immutable rules the engine runs with. Zero fields
// fall back to the defaults, so Calculator{} behaves like NewCalculator().
type Calculator struct {
	// Hours zero threshold or multiplier means the DefaultHoursRules value.
	Hours HoursRules
	// Tax with no brackets means DefaultTaxSchedule.
	Tax TaxSchedule

	// Workers bounds concurrent per-employee computations in a pay-run.
	// Zero or negative means DefaultWorkers.
	Workers int
}

const DefaultWorkers = 8

// NewCalculator returns a Calculator with the default 38-hour rules and
// withholding schedule.
func NewCalculator() *Calculator {
	return &Calculator{
		Hours:   DefaultHoursRules(),
		Tax:     DefaultTaxSchedule(),
		Workers: DefaultWorkers,
	}
}

var defaultCalculator = NewCalculator()

// ComputeHours computes the hours breakdown with the default rules.
func ComputeHours(records []AttendanceRecord) HoursBreakdown {
	return defaultCalculator.ComputeHours(records)
}

// ComputeTax applies the default withholding schedule.
func ComputeTax(gross decimal.Decimal) decimal.Decimal {
	return defaultCalculator.taxSchedule().Tax(gross)
}

// ComputePay runs the full pipeline with the default rules.
func ComputePay(records []AttendanceRecord, allowances decimal.Decimal, rates PayRateProfile) PayCalculation {
	return defaultCalculator.ComputePay(records, allowances, rates)
}

// GeneratePayRun aggregates a pay-run with the default rules.
func GeneratePayRun(ctx context.Context, period Period, employeeIDs []string, provider RecordSetProvider) (*PayRun, error) {
	return defaultCalculator.GeneratePayRun(ctx, period, employeeIDs, provider)
}

func (c *Calculator) ComputeHours(records []AttendanceRecord) HoursBreakdown {
	return c.hoursRules().Breakdown(records)
}

// GrossPay prices an hours breakdown at baseRate, overtime at the
// configured multiplier, plus allowances.
func (c *Calculator) GrossPay(hours HoursBreakdown, baseRate, allowances decimal.Decimal) decimal.Decimal {
	return c.hoursRules().GrossPay(hours, baseRate, allowances)
}

// ComputePay computes one employee's pay for one merged set of records.
func (c *Calculator) ComputePay(records []AttendanceRecord, allowances decimal.Decimal, rates PayRateProfile) PayCalculation {
	hours := c.ComputeHours(records)
	gross := c.GrossPay(hours, rates.BaseHourlyRate, allowances)
	tax := c.taxSchedule().Tax(gross)
	super := SuperContribution(gross, rates.SuperRate)

	return PayCalculation{
		NormalHours:   hours.NormalHours,
		OvertimeHours: hours.OvertimeHours,
		Gross:         gross,
		Tax:           tax,
		Super:         super,
		Net:           NetPay(gross, tax),
	}
}

// SuperContribution is round2(gross * superRate). It is paid on top of gross
// and never deducted from net.
func SuperContribution(gross, superRate decimal.Decimal) decimal.Decimal {
	return Round2(gross.Mul(superRate))
}

// NetPay is round2(gross - tax).
func NetPay(gross, tax decimal.Decimal) decimal.Decimal {
	return Round2(gross.Sub(tax))
}

func (c *Calculator) hoursRules() HoursRules {
	rules := c.Hours
	defaults := DefaultHoursRules()
	if rules.WeeklyThreshold.IsZero() {
		rules.WeeklyThreshold = defaults.WeeklyThreshold
	}
	if rules.OvertimeMultiplier.IsZero() {
		rules.OvertimeMultiplier = defaults.OvertimeMultiplier
	}
	return rules
}

func (c *Calculator) taxSchedule() TaxSchedule {
	if len(c.Tax.Brackets) == 0 {
		return DefaultTaxSchedule()
	}
	return c.Tax
}

func (c *Calculator) workers() int {
	if c.Workers <= 0 {
		return DefaultWorkers
	}
	return c.Workers
}
