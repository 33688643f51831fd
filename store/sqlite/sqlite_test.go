package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func period(t *testing.T, start, end string) payroll.Period {
	t.Helper()
	p, err := payroll.ParsePeriod(start, end)
	require.NoError(t, err)
	return p
}

func entry(day int, start, end string, breakMins int) payroll.AttendanceRecord {
	return payroll.AttendanceRecord{
		Date:            payroll.NewDate(2025, time.August, day),
		Start:           payroll.MustParseClock(start),
		End:             payroll.MustParseClock(end),
		UnpaidBreakMins: breakMins,
	}
}

func seedReferenceWeek(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, sqlite.Employee{
		ID: "e-alice", FirstName: "Alice", LastName: "Chen",
		BaseHourlyRate: dec("35"), SuperRate: dec("0.115"),
		Bank: sqlite.BankAccount{BSB: "083-123", Account: "12345678"},
	}))
	require.NoError(t, store.SaveEmployee(ctx, sqlite.Employee{
		ID: "e-bob", FirstName: "Bob", LastName: "Singh",
		BaseHourlyRate: dec("48"), SuperRate: dec("0.115"),
		Bank: sqlite.BankAccount{BSB: "062-000", Account: "98765432"},
	}))

	week := period(t, "2025-08-11", "2025-08-17")
	_, err := store.UpsertTimesheet(ctx, sqlite.Timesheet{
		EmployeeID: "e-alice", Period: week, Allowances: dec("30"),
		Entries: []payroll.AttendanceRecord{
			entry(11, "09:00", "17:30", 30),
			entry(12, "09:00", "17:30", 30),
			entry(13, "09:00", "17:30", 30),
			entry(14, "09:00", "15:00", 30),
			entry(15, "10:00", "18:00", 30),
		},
	})
	require.NoError(t, err)

	bob := make([]payroll.AttendanceRecord, 0, 5)
	for d := 11; d <= 15; d++ {
		bob = append(bob, entry(d, "08:00", "18:00", 60))
	}
	_, err = store.UpsertTimesheet(ctx, sqlite.Timesheet{
		EmployeeID: "e-bob", Period: week, Allowances: decimal.Zero, Entries: bob,
	})
	require.NoError(t, err)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_SaveGetList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	emp, err := store.GetEmployee(ctx, "e-alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice Chen", emp.FullName())
	assert.Equal(t, "hourly", emp.Type)
	assert.True(t, emp.BaseHourlyRate.Equal(dec("35")))
	assert.True(t, emp.Rates().SuperRate.Equal(dec("0.115")))
	assert.Equal(t, "083-123", emp.Bank.BSB)

	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "e-alice", all[0].ID)
	assert.Equal(t, "e-bob", all[1].ID)
}

func TestEmployees_UpsertUpdatesRates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	require.NoError(t, store.SaveEmployee(ctx, sqlite.Employee{
		ID: "e-bob", FirstName: "Bob", LastName: "Singh",
		BaseHourlyRate: dec("50"), SuperRate: dec("0.12"),
	}))

	emp, err := store.GetEmployee(ctx, "e-bob")
	require.NoError(t, err)
	assert.True(t, emp.BaseHourlyRate.Equal(dec("50")))

	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEmployees_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetEmployee(context.Background(), "e-ghost")
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
	assert.True(t, payroll.IsNotFound(err))
}

// =============================================================================
// TIMESHEETS
// =============================================================================

func TestUpsertTimesheet_UnknownEmployee(t *testing.T) {
	store := newStore(t)

	_, err := store.UpsertTimesheet(context.Background(), sqlite.Timesheet{
		EmployeeID: "e-ghost",
		Period:     period(t, "2025-08-11", "2025-08-17"),
		Entries:    []payroll.AttendanceRecord{entry(11, "09:00", "17:00", 0)},
	})
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestUpsertTimesheet_ReplacesSamePeriod(t *testing.T) {
	// GIVEN: Alice resubmits her reference-week timesheet with one shift
	// THEN: the earlier timesheet is replaced, keeping its ID

	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	before, err := store.ListTimesheets(ctx, "e-alice")
	require.NoError(t, err)
	require.Len(t, before, 1)
	require.Len(t, before[0].Entries, 5)

	after, err := store.UpsertTimesheet(ctx, sqlite.Timesheet{
		EmployeeID: "e-alice",
		Period:     period(t, "2025-08-11", "2025-08-17"),
		Allowances: dec("12.5"),
		Entries:    []payroll.AttendanceRecord{entry(11, "09:00", "13:00", 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, before[0].ID, after.ID)

	stored, err := store.ListTimesheets(ctx, "e-alice")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Allowances.Equal(dec("12.5")))
	require.Len(t, stored[0].Entries, 1)
	assert.Equal(t, "13:00", stored[0].Entries[0].End.String())
}

func TestUpsertTimesheet_DifferentPeriodIsKept(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	_, err := store.UpsertTimesheet(ctx, sqlite.Timesheet{
		EmployeeID: "e-alice",
		Period:     period(t, "2025-08-18", "2025-08-24"),
		Entries:    []payroll.AttendanceRecord{entry(18, "09:00", "17:00", 30)},
	})
	require.NoError(t, err)

	stored, err := store.ListTimesheets(ctx, "e-alice")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "2025-08-18", stored[0].Period.Start.String(), "newest first")
}

func TestUpsertTimesheet_PreservesEntryOrderAndClocks(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	stored, err := store.ListTimesheets(ctx, "e-alice")
	require.NoError(t, err)
	require.Len(t, stored, 1)

	entries := stored[0].Entries
	require.Len(t, entries, 5)
	assert.Equal(t, "2025-08-11", entries[0].Date.String())
	assert.Equal(t, "09:00", entries[0].Start.String())
	assert.Equal(t, "17:30", entries[0].End.String())
	assert.Equal(t, 30, entries[0].UnpaidBreakMins)
	assert.Equal(t, "10:00", entries[4].Start.String())
}

// =============================================================================
// RECORD-SET PROVIDER
// =============================================================================

func TestRecordSetsOverlapping_JoinsRates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	sets, err := store.RecordSetsOverlapping(ctx, period(t, "2025-08-17", "2025-08-23"))
	require.NoError(t, err)

	require.Len(t, sets, 2)
	assert.Equal(t, "e-alice", sets[0].EmployeeID)
	assert.True(t, sets[0].Rates.BaseHourlyRate.Equal(dec("35")))
	assert.True(t, sets[0].Allowances.Equal(dec("30")))
	assert.Len(t, sets[0].Records, 5)
	assert.True(t, sets[1].Rates.BaseHourlyRate.Equal(dec("48")))
}

func TestRecordSetsOverlapping_ExcludesDisjoint(t *testing.T) {
	store := newStore(t)
	seedReferenceWeek(t, store)

	sets, err := store.RecordSetsOverlapping(context.Background(), period(t, "2025-08-18", "2025-08-24"))
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestGeneratePayRun_FromStore(t *testing.T) {
	// GIVEN: the reference week persisted in SQLite
	// WHEN: the engine reads it through the store
	// THEN: the reference totals come back

	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	run, err := payroll.GeneratePayRun(ctx, period(t, "2025-08-11", "2025-08-17"), nil, store)
	require.NoError(t, err)

	assert.True(t, run.Totals.Gross.Equal(dec("3653")))
	assert.True(t, run.Totals.Tax.Equal(dec("569.85")))
	assert.True(t, run.Totals.Super.Equal(dec("420.10")))
	assert.True(t, run.Totals.Net.Equal(dec("3083.15")))
}

// =============================================================================
// PAY-RUNS
// =============================================================================

func TestPayRuns_SaveGetList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	week := period(t, "2025-08-11", "2025-08-17")
	run, err := payroll.GeneratePayRun(ctx, week, nil, store)
	require.NoError(t, err)

	first, err := store.SavePayRun(ctx, run)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	onlyBob, err := payroll.GeneratePayRun(ctx, week, []string{"e-bob"}, store)
	require.NoError(t, err)
	second, err := store.SavePayRun(ctx, onlyBob)
	require.NoError(t, err)

	got, err := store.GetPayRun(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, week, got.Period)
	assert.True(t, got.Totals.Net.Equal(dec("3083.15")))
	require.Len(t, got.Payslips, 2)
	assert.Equal(t, "e-alice", got.Payslips[0].EmployeeID)
	assert.True(t, got.Payslips[0].Super.Equal(dec("152.38")))

	runs, err := store.ListPayRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")
	assert.Len(t, runs[0].Payslips, 1)
}

func TestPayRuns_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetPayRun(context.Background(), "nope")
	assert.ErrorIs(t, err, payroll.ErrPayRunNotFound)
}

func TestGetPayslip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	run, err := payroll.GeneratePayRun(ctx, period(t, "2025-08-11", "2025-08-17"), nil, store)
	require.NoError(t, err)
	saved, err := store.SavePayRun(ctx, run)
	require.NoError(t, err)

	slip, err := store.GetPayslip(ctx, "e-bob", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, slip.PayRunID)
	assert.Equal(t, "2025-08-11", slip.Period.Start.String())
	assert.True(t, slip.NormalHours.Equal(dec("38")))
	assert.True(t, slip.OvertimeHours.Equal(dec("7")))
	assert.True(t, slip.Gross.Equal(dec("2328")))
	assert.True(t, slip.Tax.Equal(dec("436.1")))
	assert.True(t, slip.Net.Equal(dec("1891.9")))

	_, err = store.GetPayslip(ctx, "e-ghost", saved.ID)
	assert.ErrorIs(t, err, payroll.ErrPayslipNotFound)
}

func TestReset(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	require.NoError(t, store.Reset(ctx))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)

	sets, err := store.RecordSetsOverlapping(ctx, period(t, "2025-01-01", "2025-12-31"))
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestReplaceAll_SwapsContents(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	carol := sqlite.Employee{
		ID: "e-carol", FirstName: "Carol", LastName: "Okafor",
		BaseHourlyRate: dec("40"), SuperRate: dec("0.1"),
	}
	err := store.ReplaceAll(ctx, []sqlite.Employee{carol}, []sqlite.Timesheet{{
		EmployeeID: "e-carol", Period: period(t, "2025-08-11", "2025-08-17"), Allowances: decimal.Zero,
		Entries: []payroll.AttendanceRecord{entry(11, "09:00", "17:00", 0)},
	}})
	require.NoError(t, err)

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "e-carol", employees[0].ID)

	timesheets, err := store.ListTimesheets(ctx, "e-carol")
	require.NoError(t, err)
	require.Len(t, timesheets, 1)
	assert.Len(t, timesheets[0].Entries, 1)
}

func TestReplaceAll_FailureKeepsPreviousData(t *testing.T) {
	// GIVEN: The reference week in the store
	store := newStore(t)
	ctx := context.Background()
	seedReferenceWeek(t, store)

	// WHEN: Replacing it with a data set whose timesheet has no employee
	err := store.ReplaceAll(ctx,
		[]sqlite.Employee{{ID: "e-x", FirstName: "X", LastName: "Y", BaseHourlyRate: dec("30"), SuperRate: dec("0.1")}},
		[]sqlite.Timesheet{{
			EmployeeID: "e-missing", Period: period(t, "2025-08-11", "2025-08-17"), Allowances: decimal.Zero,
			Entries: []payroll.AttendanceRecord{entry(11, "09:00", "17:00", 0)},
		}},
	)

	// THEN: The load fails and nothing of it is visible
	require.ErrorIs(t, err, payroll.ErrEmployeeNotFound)

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "e-alice", employees[0].ID)
	assert.Equal(t, "e-bob", employees[1].ID)

	sets, err := store.RecordSetsOverlapping(ctx, period(t, "2025-08-11", "2025-08-17"))
	require.NoError(t, err)
	assert.Len(t, sets, 2)
}
