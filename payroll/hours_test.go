package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/payroll-engine/payroll"
)

func TestComputeHours_UnderThreshold(t *testing.T) {
	// GIVEN: Alice's reference week
	// 3 x (8.5h - 0.5h) + (6h - 0.5h) + (8h - 0.5h) = 24 + 5.5 + 7.5 = 37h

	hours := payroll.ComputeHours(aliceRecords())

	assertDecimal(t, "37", hours.NormalHours)
	assertDecimal(t, "0", hours.OvertimeHours)
	assertDecimal(t, "37", hours.TotalHours)
}

func TestComputeHours_OverThreshold(t *testing.T) {
	// GIVEN: Bob's reference week, 5 x (10h - 1h) = 45h
	hours := payroll.ComputeHours(bobRecords())

	assertDecimal(t, "38", hours.NormalHours)
	assertDecimal(t, "7", hours.OvertimeHours)
	assertDecimal(t, "45", hours.TotalHours)
}

func TestComputeHours_ExactlyAtThreshold(t *testing.T) {
	records := []payroll.AttendanceRecord{
		shift(11, "08:00", "16:00", 24), // 7.6h
		shift(12, "08:00", "16:00", 24),
		shift(13, "08:00", "16:00", 24),
		shift(14, "08:00", "16:00", 24),
		shift(15, "08:00", "16:00", 24),
	}

	hours := payroll.ComputeHours(records)

	assertDecimal(t, "38", hours.NormalHours)
	assertDecimal(t, "0", hours.OvertimeHours)
	assertDecimal(t, "38", hours.TotalHours)
}

func TestComputeHours_RoundsEachFieldIndependently(t *testing.T) {
	// GIVEN: 38h20m of paid time
	// THEN: overtime is 0.33 and total 38.33; normal stays exactly 38
	records := []payroll.AttendanceRecord{
		shift(11, "06:00", "20:00", 0), // 14h
		shift(12, "06:00", "20:00", 0), // 14h
		shift(13, "06:00", "16:20", 0), // 10h20m
	}

	hours := payroll.ComputeHours(records)

	assertDecimal(t, "38", hours.NormalHours)
	assertDecimal(t, "0.33", hours.OvertimeHours)
	assertDecimal(t, "38.33", hours.TotalHours)
}

func TestComputeHours_EmptyRecords(t *testing.T) {
	hours := payroll.ComputeHours(nil)

	assertDecimal(t, "0", hours.NormalHours)
	assertDecimal(t, "0", hours.OvertimeHours)
	assertDecimal(t, "0", hours.TotalHours)
}

func TestComputeHours_SplitInvariants(t *testing.T) {
	// normal + overtime stays within a cent of total, and normal never
	// exceeds the threshold, across a sweep of shift lengths.
	threshold := dec("38")
	for days := 1; days <= 7; days++ {
		for _, end := range []string{"12:07", "15:59", "17:31", "19:45", "23:59"} {
			records := make([]payroll.AttendanceRecord, 0, days)
			for d := 0; d < days; d++ {
				records = append(records, shift(11+d, "06:03", end, 13))
			}

			hours := payroll.ComputeHours(records)

			sum := hours.NormalHours.Add(hours.OvertimeHours)
			assert.True(t, sum.Sub(hours.TotalHours).Abs().LessThanOrEqual(dec("0.01")),
				"days=%d end=%s: %s + %s vs %s", days, end, hours.NormalHours, hours.OvertimeHours, hours.TotalHours)
			assert.True(t, hours.NormalHours.LessThanOrEqual(threshold))
			assert.False(t, hours.OvertimeHours.IsNegative())
		}
	}
}

func TestComputeHours_OrderIndependent(t *testing.T) {
	records := bobRecords()
	reversed := make([]payroll.AttendanceRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}

	a := payroll.ComputeHours(records)
	b := payroll.ComputeHours(reversed)

	assert.Equal(t, a.TotalHours.String(), b.TotalHours.String())
	assert.Equal(t, a.OvertimeHours.String(), b.OvertimeHours.String())
}

func TestComputeHours_CustomThreshold(t *testing.T) {
	calc := payroll.NewCalculator()
	calc.Hours.WeeklyThreshold = decimal.NewFromInt(40)

	hours := calc.ComputeHours(bobRecords())

	assertDecimal(t, "40", hours.NormalHours)
	assertDecimal(t, "5", hours.OvertimeHours)
	assertDecimal(t, "45", hours.TotalHours)

	// The package default is untouched.
	assertDecimal(t, "38", payroll.ComputeHours(bobRecords()).NormalHours)
}

func TestPaidMinutes_NotClamped(t *testing.T) {
	// A break longer than the shift yields negative paid time; the engine
	// passes it through rather than hiding the bad input.
	r := shift(11, "09:00", "09:30", 45)

	assert.Equal(t, -15, r.PaidMinutes())
	assertDecimal(t, "-0.25", payroll.ComputeHours([]payroll.AttendanceRecord{r}).TotalHours)
}
