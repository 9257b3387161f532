/*
Package sqlite provides a SQLite-backed implementation of the record store.

PURPOSE:
  Persists the employee roster, the time-off history, the shift schedule
  and the maintenance list in one SQLite file.

INTERFACES IMPLEMENTED:
  timeoff.TxStore:   Employees + time-off requests, transactional
  schedule.Store:    Shifts
  maintenance.Store: Maintenance requests

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on time_off_requests
  - No DELETE statements on time_off_requests
  Employees are upserted (ledger) or replaced wholesale (roster sync).

KEY TABLES:
  employees:            Roster with remaining balances
  time_off_requests:    Immutable decided requests
  shifts:               Weekly schedule
  maintenance_requests: Open maintenance items

ENCODING:
  Hours are stored as decimal TEXT so that 0.1 + 0.2 stays 0.3.
  Instants are stored as RFC3339Nano in UTC so a round-trip reproduces the
  same time.Time. Insertion order is rowid order.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, which also
  keeps ":memory:" databases alive and shared across calls.

USAGE:
  store, err := sqlite.New("./data/marina.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/maintenance"
	"github.com/marinaops/staffdesk/schedule"
	"github.com/marinaops/staffdesk/timeoff"
)

// Store implements the record store interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

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

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		pto_hours TEXT NOT NULL DEFAULT '0',
		psl_hours TEXT NOT NULL DEFAULT '0'
	);

	-- Time-off requests (append-only)
	CREATE TABLE IF NOT EXISTS time_off_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		hours TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		verification_needed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON time_off_requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_employee_kind_start
		ON time_off_requests(employee_id, kind, start_at);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_name_date
		ON shifts(name, date);

	CREATE TABLE IF NOT EXISTS maintenance_requests (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		priority TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) ListEmployees(ctx context.Context) ([]timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEmployees(ctx, s.db)
}

func (s *Store) GetEmployee(ctx context.Context, id generic.EntityID) (timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, id)
}

func (s *Store) SaveEmployee(ctx context.Context, emp timeoff.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, emp)
}

// ReplaceEmployees swaps the roster in one transaction.
func (s *Store) ReplaceEmployees(ctx context.Context, emps []timeoff.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := replaceEmployees(ctx, sqlTx, emps); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func listEmployees(ctx context.Context, q querier) ([]timeoff.Employee, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, position, color, pto_hours, psl_hours FROM employees ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []timeoff.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func getEmployee(ctx context.Context, q querier, id generic.EntityID) (timeoff.Employee, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, name, position, color, pto_hours, psl_hours FROM employees WHERE id = ?",
		string(id),
	)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return timeoff.Employee{}, fmt.Errorf("employee %s: %w", id, generic.ErrNotFound)
	}
	return emp, err
}

func saveEmployee(ctx context.Context, q querier, emp timeoff.Employee) error {
	query := `
		INSERT INTO employees (id, name, position, color, pto_hours, psl_hours)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = excluded.position,
			color = excluded.color,
			pto_hours = excluded.pto_hours,
			psl_hours = excluded.psl_hours
	`
	_, err := q.ExecContext(ctx, query,
		string(emp.ID), emp.Name, emp.Position, emp.Color,
		emp.PTOHours.String(), emp.PSLHours.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.ID, err)
	}
	return nil
}

func replaceEmployees(ctx context.Context, q querier, emps []timeoff.Employee) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM employees"); err != nil {
		return fmt.Errorf("failed to clear employees: %w", err)
	}
	for _, emp := range emps {
		if err := saveEmployee(ctx, q, emp); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(sc scanner) (timeoff.Employee, error) {
	var emp timeoff.Employee
	var id, pto, psl string
	if err := sc.Scan(&id, &emp.Name, &emp.Position, &emp.Color, &pto, &psl); err != nil {
		return timeoff.Employee{}, err
	}
	emp.ID = generic.EntityID(id)

	var err error
	if emp.PTOHours, err = decimal.NewFromString(pto); err != nil {
		return timeoff.Employee{}, fmt.Errorf("employee %s pto_hours %q: %w", id, pto, err)
	}
	if emp.PSLHours, err = decimal.NewFromString(psl); err != nil {
		return timeoff.Employee{}, fmt.Errorf("employee %s psl_hours %q: %w", id, psl, err)
	}
	return emp, nil
}

// =============================================================================
// TIME-OFF REQUESTS (append-only)
// =============================================================================

// AppendRequest stores a decided request.
func (s *Store) AppendRequest(ctx context.Context, req timeoff.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendRequest(ctx, s.db, req)
}

func (s *Store) ListRequests(ctx context.Context) ([]timeoff.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(ctx, s.db)
}

func appendRequest(ctx context.Context, q querier, req timeoff.Request) error {
	query := `
		INSERT INTO time_off_requests
		(id, employee_id, kind, start_at, end_at, hours, notes, status, created_at, verification_needed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		req.ID,
		string(req.EmployeeID),
		string(req.Kind),
		formatTime(req.Start),
		formatTime(req.End),
		req.Hours.String(),
		req.Notes,
		string(req.Status),
		formatTime(req.CreatedAt),
		req.VerificationNeeded,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("request %s: %w", req.ID, generic.ErrDuplicateID)
		}
		return fmt.Errorf("failed to append request: %w", err)
	}
	return nil
}

func listRequests(ctx context.Context, q querier) ([]timeoff.Request, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_id, kind, start_at, end_at, hours, notes, status, created_at, verification_needed
		FROM time_off_requests ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []timeoff.Request
	for rows.Next() {
		var r timeoff.Request
		var employeeID, kind, start, end, hours, status, created string
		if err := rows.Scan(&r.ID, &employeeID, &kind, &start, &end, &hours,
			&r.Notes, &status, &created, &r.VerificationNeeded); err != nil {
			return nil, err
		}
		r.EmployeeID = generic.EntityID(employeeID)
		r.Kind = timeoff.Kind(kind)
		r.Status = timeoff.Status(status)

		if r.Start, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("request %s start_at: %w", r.ID, err)
		}
		if r.End, err = parseTime(end); err != nil {
			return nil, fmt.Errorf("request %s end_at: %w", r.ID, err)
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("request %s created_at: %w", r.ID, err)
		}
		if r.Hours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("request %s hours %q: %w", r.ID, hours, err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// =============================================================================
// TRANSACTION SUPPORT
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store timeoff.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]timeoff.Employee, error) {
	return listEmployees(ctx, ts.tx)
}

func (ts *txStore) GetEmployee(ctx context.Context, id generic.EntityID) (timeoff.Employee, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) SaveEmployee(ctx context.Context, emp timeoff.Employee) error {
	return saveEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) ReplaceEmployees(ctx context.Context, emps []timeoff.Employee) error {
	return replaceEmployees(ctx, ts.tx, emps)
}

func (ts *txStore) AppendRequest(ctx context.Context, req timeoff.Request) error {
	return appendRequest(ctx, ts.tx, req)
}

func (ts *txStore) ListRequests(ctx context.Context) ([]timeoff.Request, error) {
	return listRequests(ctx, ts.tx)
}

// =============================================================================
// SHIFTS (schedule.Store interface)
// =============================================================================

func (s *Store) ListShifts(ctx context.Context) ([]schedule.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, date, start_time, end_time, notes FROM shifts ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []schedule.Shift
	for rows.Next() {
		var sh schedule.Shift
		var date, start, end string
		if err := rows.Scan(&sh.ID, &sh.Name, &date, &start, &end, &sh.Notes); err != nil {
			return nil, err
		}
		if sh.Date, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("shift %s: %w", sh.ID, err)
		}
		if sh.StartTime, err = generic.ParseClock(start); err != nil {
			return nil, fmt.Errorf("shift %s: %w", sh.ID, err)
		}
		if sh.EndTime, err = generic.ParseClock(end); err != nil {
			return nil, fmt.Errorf("shift %s: %w", sh.ID, err)
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

func (s *Store) AddShift(ctx context.Context, sh schedule.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO shifts (id, name, date, start_time, end_time, notes) VALUES (?, ?, ?, ?, ?, ?)",
		sh.ID, sh.Name, sh.Date.String(), sh.StartTime.String(), sh.EndTime.String(), sh.Notes,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("shift %s: %w", sh.ID, generic.ErrDuplicateID)
		}
		return fmt.Errorf("failed to add shift: %w", err)
	}
	return nil
}

func (s *Store) DeleteShift(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteByID(ctx, s.db, "shifts", id)
}

// =============================================================================
// MAINTENANCE (maintenance.Store interface)
// =============================================================================

func (s *Store) ListMaintenance(ctx context.Context) ([]maintenance.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, description, priority FROM maintenance_requests ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance requests: %w", err)
	}
	defer rows.Close()

	var list []maintenance.Request
	for rows.Next() {
		var r maintenance.Request
		var date, priority string
		if err := rows.Scan(&r.ID, &date, &r.Description, &priority); err != nil {
			return nil, err
		}
		if r.Date, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("maintenance request %s: %w", r.ID, err)
		}
		r.Priority = maintenance.Priority(priority)
		list = append(list, r)
	}
	return list, rows.Err()
}

func (s *Store) AddMaintenance(ctx context.Context, r maintenance.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO maintenance_requests (id, date, description, priority) VALUES (?, ?, ?, ?)",
		r.ID, r.Date.String(), r.Description, string(r.Priority),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("maintenance request %s: %w", r.ID, generic.ErrDuplicateID)
		}
		return fmt.Errorf("failed to add maintenance request: %w", err)
	}
	return nil
}

func (s *Store) DeleteMaintenance(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteByID(ctx, s.db, "maintenance_requests", id)
}

// =============================================================================
// UTILITY
// =============================================================================

// Reset clears all data (for testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"employees", "time_off_requests", "shifts", "maintenance_requests"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// deleteByID removes one row. table is never user input.
func deleteByID(ctx context.Context, q querier, table, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, generic.ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

var (
	_ timeoff.TxStore   = (*Store)(nil)
	_ schedule.Store    = (*Store)(nil)
	_ maintenance.Store = (*Store)(nil)
)
