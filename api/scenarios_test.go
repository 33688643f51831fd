/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Employees are created with their rates
	- Timesheets are stored
	- A pay-run over the scenario week produces the documented figures

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func builtinScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenarios, err := BuiltinScenarios()
	require.NoError(t, err)
	for _, sc := range scenarios {
		if sc.Name == name {
			return sc
		}
	}
	t.Fatalf("scenario %q not found", name)
	return nil
}

func referenceWeek() payroll.Period {
	return payroll.Period{
		Start: payroll.NewDate(2025, 8, 11),
		End:   payroll.NewDate(2025, 8, 17),
	}
}

func TestBuiltinScenarios_SortedByName(t *testing.T) {
	scenarios, err := BuiltinScenarios()
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	assert.Equal(t, "overlapping-timesheets", scenarios[0].Name)
	assert.Equal(t, "reference-week", scenarios[1].Name)
	for _, sc := range scenarios {
		assert.NotEmpty(t, sc.Description, sc.Name)
	}
}

func TestScenario_ReferenceWeek(t *testing.T) {
	// GIVEN: The reference-week scenario
	// WHEN: Loading it and running payroll for the week
	// THEN: Alice and Bob are paid the documented amounts

	h := setupTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.applyScenario(ctx, builtinScenario(t, "reference-week")))

	employees, err := h.Store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "e-alice", employees[0].ID)
	assert.Equal(t, "35", employees[0].BaseHourlyRate.String())
	assert.Equal(t, "0.115", employees[0].SuperRate.String())
	assert.Equal(t, "12345678", employees[0].Bank.Account)

	run, err := h.Calculator.GeneratePayRun(ctx, referenceWeek(), nil, h.Store)
	require.NoError(t, err)

	assert.Equal(t, "3653.00", run.Totals.Gross.StringFixed(2))
	assert.Equal(t, "569.85", run.Totals.Tax.StringFixed(2))
	assert.Equal(t, "420.10", run.Totals.Super.StringFixed(2))
	assert.Equal(t, "3083.15", run.Totals.Net.StringFixed(2))

	bob, ok := run.Payslip("e-bob")
	require.True(t, ok)
	assert.Equal(t, "38.00", bob.NormalHours.StringFixed(2))
	assert.Equal(t, "7.00", bob.OvertimeHours.StringFixed(2))
	assert.Equal(t, "436.10", bob.Tax.StringFixed(2))

	assert.Equal(t, "reference-week", h.currentScenario.Name)
}

func TestScenario_OverlappingTimesheets(t *testing.T) {
	// GIVEN: Carol with two timesheets overlapping the reference week
	// WHEN: Running payroll for the week
	// THEN: Both timesheets are merged, so 50h splits into 38h normal and 12h overtime

	h := setupTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.applyScenario(ctx, builtinScenario(t, "overlapping-timesheets")))

	timesheets, err := h.Store.ListTimesheets(ctx, "e-carol")
	require.NoError(t, err)
	assert.Len(t, timesheets, 2)

	run, err := h.Calculator.GeneratePayRun(ctx, referenceWeek(), nil, h.Store)
	require.NoError(t, err)
	require.Len(t, run.Payslips, 1)

	carol := run.Payslips[0]
	assert.Equal(t, "38.00", carol.NormalHours.StringFixed(2))
	assert.Equal(t, "12.00", carol.OvertimeHours.StringFixed(2))
	assert.Equal(t, "2255.00", carol.Gross.StringFixed(2))
	assert.Equal(t, "412.38", carol.Tax.StringFixed(2))
	assert.Equal(t, "225.50", carol.Super.StringFixed(2))
	assert.Equal(t, "1842.62", carol.Net.StringFixed(2))
}

func TestScenario_LoadReplacesPreviousData(t *testing.T) {
	h := setupTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.applyScenario(ctx, builtinScenario(t, "reference-week")))
	require.NoError(t, h.applyScenario(ctx, builtinScenario(t, "overlapping-timesheets")))

	employees, err := h.Store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "e-carol", employees[0].ID)
}

func TestScenario_InvalidDocumentLeavesStoreUntouched(t *testing.T) {
	// GIVEN: A loaded scenario and a second one with a malformed clock time
	// WHEN: Applying the bad one
	// THEN: It fails validation before the reset, so the first stays loaded

	h := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, h.applyScenario(ctx, builtinScenario(t, "reference-week")))

	bad, err := ParseScenario([]byte(`
name: broken
employees:
  - id: e-x
    first_name: X
    last_name: Y
    base_hourly_rate: "30"
    super_rate: "0.1"
timesheets:
  - employee_id: e-x
    period_start: "2025-08-11"
    period_end: "2025-08-17"
    entries:
      - {date: "2025-08-11", start: "9am", end: "17:00", unpaid_break_mins: 0}
`))
	require.NoError(t, err)

	err = ApplyScenario(ctx, h.Store, bad)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "entries[0].start", verr.Fields[0].Field)

	employees, err := h.Store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 2)
}

func TestScenario_TimesheetForUnlistedEmployeeIsRejected(t *testing.T) {
	// GIVEN: The reference week is loaded
	// WHEN: Applying a scenario whose timesheet names an employee it does not define
	// THEN: It is a validation error and Alice and Bob are still there

	h := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, h.applyScenario(ctx, builtinScenario(t, "reference-week")))

	bad, err := ParseScenario([]byte(`
name: dangling
employees:
  - id: e-x
    first_name: X
    last_name: Y
    base_hourly_rate: "30"
    super_rate: "0.1"
timesheets:
  - employee_id: e-missing
    period_start: "2025-08-11"
    period_end: "2025-08-17"
    entries:
      - {date: "2025-08-11", start: "09:00", end: "17:00", unpaid_break_mins: 0}
`))
	require.NoError(t, err)

	err = h.applyScenario(ctx, bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "timesheets[0].employee_id", verr.Fields[0].Field)

	employees, err := h.Store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "e-alice", employees[0].ID)
	assert.Equal(t, "e-bob", employees[1].ID)
	assert.Equal(t, "reference-week", h.currentScenario.Name)
}

func TestParseScenario_RequiresName(t *testing.T) {
	_, err := ParseScenario([]byte("description: nameless\n"))
	assert.Error(t, err)

	_, err = ParseScenario([]byte("name: [unclosed\n"))
	assert.Error(t, err)
}

func TestLoadScenarioFile(t *testing.T) {
	// GIVEN: A seed file on disk with the same shape as the built-ins
	data, err := scenarioFiles.ReadFile("scenarios/reference-week.yaml")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	// WHEN: Loading it
	sc, err := LoadScenarioFile(path)

	// THEN: It parses to the same scenario
	require.NoError(t, err)
	assert.Equal(t, "reference-week", sc.Name)
	assert.Len(t, sc.Employees, 2)
	assert.Len(t, sc.Timesheets, 2)

	_, err = LoadScenarioFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
