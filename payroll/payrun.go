/*
payrun.go - Multi-employee pay-run aggregation

PURPOSE:
  Builds a PayRun for a period: selects the record-sets that overlap it,
  merges them per employee, computes each employee's pay once, and sums the
  results into period totals.

KEY INSIGHT:
  The overtime threshold is evaluated ONCE per employee per pay-run, against
  the combined hours of all their selected record-sets. An employee who
  submitted two 30-hour timesheets that both overlap the window is paid
  38 normal + 22 overtime hours, not 60 normal hours.

SELECTION:
  A record-set is selected when
    rs.Start <= period.End AND rs.End >= period.Start
  and, if a filter is given, its employee is in the filter. Filter IDs with
  no matching record-sets contribute nothing.

CONCURRENCY:
  Per-employee computations are independent and run on an errgroup bounded
  by Calculator.Workers. Each goroutine writes only its own slot; totals are
  summed afterwards in employee-ID order, so output is reproducible.

SEE ALSO:
  - calculator.go: ComputePay, invoked once per employee
  - store.go: RecordSetProvider
*/
package payroll

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// employeeInput is one employee's merged input to ComputePay.
type employeeInput struct {
	employeeID string
	rates      PayRateProfile
	allowances decimal.Decimal
	records    []AttendanceRecord
}

// GeneratePayRun aggregates a pay-run for period. employeeIDs restricts the
// run to those employees; nil or empty means everyone. When nothing is
// selected the error wraps ErrNoMatchingRecords.
func (c *Calculator) GeneratePayRun(ctx context.Context, period Period, employeeIDs []string, provider RecordSetProvider) (*PayRun, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	sets, err := provider.RecordSetsOverlapping(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("load record sets for %s: %w", period, err)
	}

	inputs := groupByEmployee(selectRecordSets(sets, period, employeeIDs))
	if len(inputs) == 0 {
		return nil, &NoMatchingRecordsError{Period: period, EmployeeIDs: employeeIDs}
	}

	payslips := make([]Payslip, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			payslips[i] = Payslip{
				EmployeeID:     in.employeeID,
				PayCalculation: c.ComputePay(in.records, in.allowances, in.rates),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := PayRunTotals{
		Gross: decimal.Zero,
		Tax:   decimal.Zero,
		Super: decimal.Zero,
		Net:   decimal.Zero,
	}
	for _, p := range payslips {
		totals = totals.Add(p.PayCalculation)
	}

	return &PayRun{
		Period:   period,
		Totals:   totals,
		Payslips: payslips,
	}, nil
}

// selectRecordSets applies the overlap test and the employee filter.
func selectRecordSets(sets []RecordSet, period Period, employeeIDs []string) []RecordSet {
	var allowed map[string]bool
	if len(employeeIDs) > 0 {
		allowed = make(map[string]bool, len(employeeIDs))
		for _, id := range employeeIDs {
			allowed[id] = true
		}
	}

	var selected []RecordSet
	for _, rs := range sets {
		if !rs.Period.Overlaps(period) {
			continue
		}
		if allowed != nil && !allowed[rs.EmployeeID] {
			continue
		}
		selected = append(selected, rs)
	}
	return selected
}

// groupByEmployee concatenates records and sums allowances per employee,
// returning the groups sorted by employee ID. Rates come from the first
// record-set seen for the employee.
func groupByEmployee(sets []RecordSet) []employeeInput {
	byEmployee := make(map[string]*employeeInput)
	for _, rs := range sets {
		in, ok := byEmployee[rs.EmployeeID]
		if !ok {
			in = &employeeInput{
				employeeID: rs.EmployeeID,
				rates:      rs.Rates,
				allowances: decimal.Zero,
			}
			byEmployee[rs.EmployeeID] = in
		}
		in.records = append(in.records, rs.Records...)
		in.allowances = in.allowances.Add(rs.Allowances)
	}

	inputs := make([]employeeInput, 0, len(byEmployee))
	for _, in := range byEmployee {
		inputs = append(inputs, *in)
	}
	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].employeeID < inputs[j].employeeID
	})
	return inputs
}
