/*
Package sqlite provides a SQLite-backed store for employees, timesheets and
pay-runs.

PURPOSE:
  Persists everything the HTTP layer accepts and everything the engine
  produces, and serves timesheets back to the engine through
  payroll.RecordSetProvider. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  payroll.RecordSetProvider: Timesheets overlapping a period, joined with
                             the owning employee's current rates

KEY TABLES:
  employees:         Employee records with their pay rates and bank details
  timesheets:        One row per submitted timesheet (employee + period)
  timesheet_entries: The shifts of a timesheet, in submission order
  payruns:           Generated pay-runs with period totals
  payslips:          One row per employee per pay-run

TIMESHEET UPSERT:
  A timesheet for the same employee and the exact same period replaces the
  previous one. The row keeps its ID; its entries are deleted and
  re-inserted inside one transaction, so readers never see a half-written
  timesheet.

STORAGE FORMATS:
  - Money, rates and hours are TEXT holding decimal.Decimal strings
  - Dates are TEXT YYYY-MM-DD, so string comparison is date comparison
  - Clock times are TEXT HH:MM
  - Timestamps are TEXT RFC3339 UTC

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  run, err := calc.GeneratePayRun(ctx, period, nil, store)

MIGRATION:
  Versioned SQL files in migrations/ are embedded and applied with
  golang-migrate on New(). Add a new NNNN_name.up.sql/.down.sql pair for
  every schema change; never edit an applied one.

SEE ALSO:
  - payroll/store.go: RecordSetProvider
  - payroll/store/memory.go: In-memory provider for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// Store persists payroll data in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

//go:embed migrations/*.sql
var migrations embed.FS

// migrate applies any pending schema migrations. The migrate instance is
// not closed: its database driver would close s.db with it.
func (s *Store) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// BankAccount is where net pay is deposited.
type BankAccount struct {
	BSB     string
	Account string
}

// Employee is an employee record with the rates the engine is given.
type Employee struct {
	ID             string
	FirstName      string
	LastName       string
	Type           string
	BaseHourlyRate decimal.Decimal
	SuperRate      decimal.Decimal
	Bank           BankAccount
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Rates returns the pay-rate profile the engine consumes.
func (e Employee) Rates() payroll.PayRateProfile {
	return payroll.PayRateProfile{BaseHourlyRate: e.BaseHourlyRate, SuperRate: e.SuperRate}
}

// FullName returns "First Last".
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveEmployee(ctx, s.db, emp)
}

func saveEmployee(ctx context.Context, db execer, emp Employee) error {
	if emp.Type == "" {
		emp.Type = "hourly"
	}

	query := `
		INSERT INTO employees (id, first_name, last_name, type, base_hourly_rate, super_rate,
		                       bank_bsb, bank_account, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			type = excluded.type,
			base_hourly_rate = excluded.base_hourly_rate,
			super_rate = excluded.super_rate,
			bank_bsb = excluded.bank_bsb,
			bank_account = excluded.bank_account,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, query,
		emp.ID, emp.FirstName, emp.LastName, emp.Type,
		emp.BaseHourlyRate.String(), emp.SuperRate.String(),
		emp.Bank.BSB, emp.Bank.Account,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.ID, err)
	}
	return nil
}

const employeeColumns = `id, first_name, last_name, type, base_hourly_rate, super_rate,
	bank_bsb, bank_account, created_at, updated_at`

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns all employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (Employee, error) {
	var (
		emp                  Employee
		baseRate, superRate  string
		createdAt, updatedAt string
	)
	err := row.Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.Type, &baseRate, &superRate,
		&emp.Bank.BSB, &emp.Bank.Account, &createdAt, &updatedAt)
	if err != nil {
		return emp, err
	}

	if emp.BaseHourlyRate, err = parseDecimal("base_hourly_rate", baseRate); err != nil {
		return emp, err
	}
	if emp.SuperRate, err = parseDecimal("super_rate", superRate); err != nil {
		return emp, err
	}
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	emp.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return emp, nil
}

// =============================================================================
// TIMESHEET STORE
// =============================================================================

// Timesheet is one employee's submitted attendance for one period.
type Timesheet struct {
	ID         string
	EmployeeID string
	Period     payroll.Period
	Allowances decimal.Decimal
	Entries    []payroll.AttendanceRecord
	CreatedAt  time.Time
}

// UpsertTimesheet stores ts, replacing any timesheet the employee already
// submitted for exactly the same period. The stored timesheet is returned
// with its ID and creation time filled in. An unknown employee yields
// payroll.ErrEmployeeNotFound.
func (s *Store) UpsertTimesheet(ctx context.Context, ts Timesheet) (*Timesheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	saved, err := upsertTimesheet(ctx, sqlTx, ts)
	if err != nil {
		return nil, err
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit timesheet: %w", err)
	}
	return saved, nil
}

func upsertTimesheet(ctx context.Context, sqlTx *sql.Tx, ts Timesheet) (*Timesheet, error) {
	var exists int
	err := sqlTx.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees WHERE id = ?", ts.EmployeeID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check employee: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, ts.EmployeeID)
	}

	start, end := ts.Period.Start.String(), ts.Period.End.String()
	now := time.Now().UTC()

	var existingID, createdAt string
	err = sqlTx.QueryRowContext(ctx,
		"SELECT id, created_at FROM timesheets WHERE employee_id = ? AND period_start = ? AND period_end = ?",
		ts.EmployeeID, start, end,
	).Scan(&existingID, &createdAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if ts.ID == "" {
			ts.ID = uuid.NewString()
		}
		ts.CreatedAt = now
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO timesheets (id, employee_id, period_start, period_end, allowances, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			ts.ID, ts.EmployeeID, start, end, ts.Allowances.String(), now.Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert timesheet: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up timesheet: %w", err)
	default:
		ts.ID = existingID
		ts.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if _, err := sqlTx.ExecContext(ctx,
			"UPDATE timesheets SET allowances = ? WHERE id = ?", ts.Allowances.String(), ts.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to update timesheet: %w", err)
		}
		if _, err := sqlTx.ExecContext(ctx,
			"DELETE FROM timesheet_entries WHERE timesheet_id = ?", ts.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to clear timesheet entries: %w", err)
		}
	}

	if err := insertEntries(ctx, sqlTx, ts.ID, ts.Entries); err != nil {
		return nil, err
	}
	return &ts, nil
}

func insertEntries(ctx context.Context, db execer, timesheetID string, entries []payroll.AttendanceRecord) error {
	for i, e := range entries {
		_, err := db.ExecContext(ctx, `
			INSERT INTO timesheet_entries (timesheet_id, seq, date, start_time, end_time, unpaid_break_mins)
			VALUES (?, ?, ?, ?, ?, ?)`,
			timesheetID, i, e.Date.String(), e.Start.String(), e.End.String(), e.UnpaidBreakMins,
		)
		if err != nil {
			return fmt.Errorf("failed to insert timesheet entry %d: %w", i, err)
		}
	}
	return nil
}

// ListTimesheets returns an employee's timesheets, newest period first.
func (s *Store) ListTimesheets(ctx context.Context, employeeID string) ([]Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, period_start, period_end, allowances, created_at
		FROM timesheets
		WHERE employee_id = ?
		ORDER BY period_start DESC, period_end DESC, id DESC`,
		employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheets: %w", err)
	}

	var timesheets []Timesheet
	for rows.Next() {
		var (
			ts                           Timesheet
			start, end, allow, createdAt string
		)
		if err := rows.Scan(&ts.ID, &ts.EmployeeID, &start, &end, &allow, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan timesheet: %w", err)
		}
		if ts.Period, err = parsePeriod(start, end); err != nil {
			rows.Close()
			return nil, err
		}
		if ts.Allowances, err = parseDecimal("allowances", allow); err != nil {
			rows.Close()
			return nil, err
		}
		ts.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		timesheets = append(timesheets, ts)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(timesheets))
	for i, ts := range timesheets {
		ids[i] = ts.ID
	}
	entries, err := s.loadEntries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range timesheets {
		timesheets[i].Entries = entries[timesheets[i].ID]
	}
	return timesheets, nil
}

// RecordSetsOverlapping implements payroll.RecordSetProvider. Each record-set
// carries the owning employee's current rates. Results are ordered by period
// start, then employee ID.
func (s *Store) RecordSetsOverlapping(ctx context.Context, period payroll.Period) ([]payroll.RecordSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.employee_id, t.period_start, t.period_end, t.allowances,
		       e.base_hourly_rate, e.super_rate
		FROM timesheets t
		JOIN employees e ON e.id = t.employee_id
		WHERE t.period_start <= ? AND t.period_end >= ?
		ORDER BY t.period_start, t.period_end, t.employee_id, t.id`,
		period.End.String(), period.Start.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheets: %w", err)
	}

	var sets []payroll.RecordSet
	for rows.Next() {
		rs, err := scanRecordSet(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sets = append(sets, rs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(sets))
	for i, rs := range sets {
		ids[i] = rs.ID
	}
	entries, err := s.loadEntries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sets {
		sets[i].Records = entries[sets[i].ID]
	}
	return sets, nil
}

func scanRecordSet(rows *sql.Rows) (payroll.RecordSet, error) {
	var (
		rs                  payroll.RecordSet
		start, end, allow   string
		baseRate, superRate string
	)
	if err := rows.Scan(&rs.ID, &rs.EmployeeID, &start, &end, &allow, &baseRate, &superRate); err != nil {
		return rs, fmt.Errorf("failed to scan timesheet: %w", err)
	}

	var err error
	if rs.Period, err = parsePeriod(start, end); err != nil {
		return rs, err
	}
	if rs.Allowances, err = parseDecimal("allowances", allow); err != nil {
		return rs, err
	}
	if rs.Rates.BaseHourlyRate, err = parseDecimal("base_hourly_rate", baseRate); err != nil {
		return rs, err
	}
	if rs.Rates.SuperRate, err = parseDecimal("super_rate", superRate); err != nil {
		return rs, err
	}
	return rs, nil
}

// loadEntries fetches the entries of the given timesheets, keyed by
// timesheet ID and in submission order. Callers hold the read lock.
func (s *Store) loadEntries(ctx context.Context, timesheetIDs []string) (map[string][]payroll.AttendanceRecord, error) {
	result := make(map[string][]payroll.AttendanceRecord, len(timesheetIDs))
	if len(timesheetIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(timesheetIDs)), ",")
	args := make([]any, len(timesheetIDs))
	for i, id := range timesheetIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT timesheet_id, date, start_time, end_time, unpaid_break_mins
		FROM timesheet_entries
		WHERE timesheet_id IN (`+placeholders+`)
		ORDER BY timesheet_id, seq`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheet entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			timesheetID, date, startTime, endTime string
			rec                                   payroll.AttendanceRecord
		)
		if err := rows.Scan(&timesheetID, &date, &startTime, &endTime, &rec.UnpaidBreakMins); err != nil {
			return nil, fmt.Errorf("failed to scan timesheet entry: %w", err)
		}
		if rec.Date, err = payroll.ParseDate(date); err != nil {
			return nil, err
		}
		if rec.Start, err = payroll.ParseClock(startTime); err != nil {
			return nil, err
		}
		if rec.End, err = payroll.ParseClock(endTime); err != nil {
			return nil, err
		}
		result[timesheetID] = append(result[timesheetID], rec)
	}
	return result, rows.Err()
}

// =============================================================================
// PAY-RUN STORE
// =============================================================================

// PayRunRecord is a persisted pay-run.
type PayRunRecord struct {
	ID        string
	CreatedAt time.Time
	payroll.PayRun
}

// PayslipRecord is one employee's payslip within a persisted pay-run.
type PayslipRecord struct {
	PayRunID  string
	Period    payroll.Period
	CreatedAt time.Time
	payroll.Payslip
}

// SavePayRun persists a generated pay-run under a new ID.
func (s *Store) SavePayRun(ctx context.Context, run *payroll.PayRun) (*PayRunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &PayRunRecord{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		PayRun:    *run,
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO payruns (id, period_start, period_end, total_gross, total_tax, total_super, total_net, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, run.Period.Start.String(), run.Period.End.String(),
		run.Totals.Gross.String(), run.Totals.Tax.String(), run.Totals.Super.String(), run.Totals.Net.String(),
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert pay run: %w", err)
	}

	for _, p := range run.Payslips {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO payslips (payrun_id, employee_id, normal_hours, overtime_hours, gross, tax, super, net)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, p.EmployeeID, p.NormalHours.String(), p.OvertimeHours.String(),
			p.Gross.String(), p.Tax.String(), p.Super.String(), p.Net.String(),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return nil, fmt.Errorf("duplicate payslip for employee %s in pay run", p.EmployeeID)
			}
			return nil, fmt.Errorf("failed to insert payslip: %w", err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pay run: %w", err)
	}
	return rec, nil
}

const payRunColumns = `id, period_start, period_end, total_gross, total_tax, total_super, total_net, created_at`

// GetPayRun retrieves a pay-run and its payslips.
func (s *Store) GetPayRun(ctx context.Context, id string) (*PayRunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+payRunColumns+" FROM payruns WHERE id = ?", id)
	rec, err := scanPayRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", payroll.ErrPayRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	payslips, err := s.loadPayslips(ctx, []string{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Payslips = payslips[rec.ID]
	return &rec, nil
}

// ListPayRuns returns all pay-runs with their payslips, newest first.
func (s *Store) ListPayRuns(ctx context.Context) ([]PayRunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+payRunColumns+" FROM payruns ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query pay runs: %w", err)
	}

	var runs []PayRunRecord
	for rows.Next() {
		rec, err := scanPayRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	payslips, err := s.loadPayslips(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		runs[i].Payslips = payslips[runs[i].ID]
	}
	return runs, nil
}

// GetPayslip retrieves one employee's payslip from a pay-run.
func (s *Store) GetPayslip(ctx context.Context, employeeID, payRunID string) (*PayslipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec                               PayslipRecord
		start, end, createdAt             string
		normal, overtime, gross, tax, sup string
		net                               string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.period_start, r.period_end, r.created_at,
		       p.employee_id, p.normal_hours, p.overtime_hours, p.gross, p.tax, p.super, p.net
		FROM payslips p
		JOIN payruns r ON r.id = p.payrun_id
		WHERE p.payrun_id = ? AND p.employee_id = ?`,
		payRunID, employeeID,
	).Scan(&rec.PayRunID, &start, &end, &createdAt,
		&rec.EmployeeID, &normal, &overtime, &gross, &tax, &sup, &net)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: employee %s in pay run %s", payroll.ErrPayslipNotFound, employeeID, payRunID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payslip: %w", err)
	}

	if rec.Period, err = parsePeriod(start, end); err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if rec.PayCalculation, err = parseCalculation(normal, overtime, gross, tax, sup, net); err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanPayRun(row scanner) (PayRunRecord, error) {
	var (
		rec                    PayRunRecord
		start, end, createdAt  string
		gross, tax, super, net string
	)
	if err := row.Scan(&rec.ID, &start, &end, &gross, &tax, &super, &net, &createdAt); err != nil {
		return rec, err
	}

	var err error
	if rec.Period, err = parsePeriod(start, end); err != nil {
		return rec, err
	}
	totals := make([]decimal.Decimal, 4)
	for i, v := range []string{gross, tax, super, net} {
		if totals[i], err = parseDecimal("payrun total", v); err != nil {
			return rec, err
		}
	}
	rec.Totals = payroll.PayRunTotals{Gross: totals[0], Tax: totals[1], Super: totals[2], Net: totals[3]}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return rec, nil
}

// loadPayslips fetches the payslips of the given pay-runs ordered by
// employee ID. Callers hold the read lock.
func (s *Store) loadPayslips(ctx context.Context, payRunIDs []string) (map[string][]payroll.Payslip, error) {
	result := make(map[string][]payroll.Payslip, len(payRunIDs))
	if len(payRunIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(payRunIDs)), ",")
	args := make([]any, len(payRunIDs))
	for i, id := range payRunIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payrun_id, employee_id, normal_hours, overtime_hours, gross, tax, super, net
		FROM payslips
		WHERE payrun_id IN (`+placeholders+`)
		ORDER BY payrun_id, employee_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query payslips: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			payRunID                          string
			p                                 payroll.Payslip
			normal, overtime, gross, tax, sup string
			net                               string
		)
		if err := rows.Scan(&payRunID, &p.EmployeeID, &normal, &overtime, &gross, &tax, &sup, &net); err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		if p.PayCalculation, err = parseCalculation(normal, overtime, gross, tax, sup, net); err != nil {
			return nil, err
		}
		result[payRunID] = append(result[payRunID], p)
	}
	return result, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return reset(ctx, s.db)
}

func reset(ctx context.Context, db execer) error {
	tables := []string{"payslips", "payruns", "timesheet_entries", "timesheets", "employees"}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAll clears all data and loads the given employees and timesheets
// in one transaction. On any error the previous contents are kept.
func (s *Store) ReplaceAll(ctx context.Context, employees []Employee, timesheets []Timesheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := reset(ctx, sqlTx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	for _, emp := range employees {
		if err := saveEmployee(ctx, sqlTx, emp); err != nil {
			return err
		}
	}
	for _, ts := range timesheets {
		if _, err := upsertTimesheet(ctx, sqlTx, ts); err != nil {
			return fmt.Errorf("timesheet for %s %s: %w", ts.EmployeeID, ts.Period, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit data set: %w", err)
	}
	return nil
}

// Helper functions

func parseDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt %s value %q: %w", column, value, err)
	}
	return d, nil
}

func parsePeriod(start, end string) (payroll.Period, error) {
	p, err := payroll.ParsePeriod(start, end)
	if err != nil {
		return payroll.Period{}, fmt.Errorf("corrupt period %s..%s: %w", start, end, err)
	}
	return p, nil
}

func parseCalculation(normal, overtime, gross, tax, super, net string) (payroll.PayCalculation, error) {
	values := []string{normal, overtime, gross, tax, super, net}
	parsed := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := parseDecimal("payslip", v)
		if err != nil {
			return payroll.PayCalculation{}, err
		}
		parsed[i] = d
	}
	return payroll.PayCalculation{
		NormalHours:   parsed[0],
		OvertimeHours: parsed[1],
		Gross:         parsed[2],
		Tax:           parsed[3],
		Super:         parsed[4],
		Net:           parsed[5],
	}, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
