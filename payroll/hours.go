package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// HOURS RULES - Overtime threshold and multiplier
// =============================================================================

// HoursRules fixes how paid hours are split and priced. A Calculator holds
// one by value; the engine never reads these from package state.
type HoursRules struct {
	// WeeklyThreshold is the number of paid hours paid at the base rate.
	WeeklyThreshold decimal.Decimal

	// OvertimeMultiplier applies to every hour beyond the threshold.
	OvertimeMultiplier decimal.Decimal
}

// DefaultHoursRules returns the 38-hour week with time-and-a-half overtime.
func DefaultHoursRules() HoursRules {
	return HoursRules{
		WeeklyThreshold:    decimal.NewFromInt(38),
		OvertimeMultiplier: decimal.RequireFromString("1.5"),
	}
}

// =============================================================================
// HOURS AGGREGATION
// =============================================================================

// Breakdown sums paid time across records and splits it at the threshold.
//
// normal and overtime are derived from the unrounded total; each of the
// three figures is then rounded to 2dp independently. Paid minutes are summed
// as integers and converted to hours once, which is the same sum as adding
// per-record hours but without accumulating division error.
func (r HoursRules) Breakdown(records []AttendanceRecord) HoursBreakdown {
	paid := 0
	for _, rec := range records {
		paid += rec.PaidMinutes()
	}

	total := decimal.NewFromInt(int64(paid)).Div(minutesPerHour)
	normal := decimal.Min(total, r.WeeklyThreshold)
	overtime := decimal.Max(decimal.Zero, total.Sub(r.WeeklyThreshold))

	return HoursBreakdown{
		NormalHours:   Round2(normal),
		OvertimeHours: Round2(overtime),
		TotalHours:    Round2(total),
	}
}

// GrossPay prices a breakdown:
//
//	round2(normal*rate + overtime*rate*multiplier + allowances)
//
// allowances is a flat, already-summed amount and may be zero.
func (r HoursRules) GrossPay(hours HoursBreakdown, baseHourlyRate, allowances decimal.Decimal) decimal.Decimal {
	normalPay := hours.NormalHours.Mul(baseHourlyRate)
	overtimePay := hours.OvertimeHours.Mul(baseHourlyRate).Mul(r.OvertimeMultiplier)
	return Round2(normalPay.Add(overtimePay).Add(allowances))
}
