/*
Package jsonfile keeps the whole record store in one JSON document.

PURPOSE:
  The document has the keys the browser build kept in local storage, so an
  exported browser state can be dropped in as the data file:

    {
      "employees":           [...],
      "timeOffRequests":     [...],
      "employeeSchedules":   [...],
      "maintenanceRequests": [...]
    }

PERSISTENCE:
  The document is read once by Open and rewritten after every write with a
  temp file + rename, so a crash never leaves a half-written file.
  WithTx rewrites the file once, after fn succeeds.

  A file that does not parse is moved aside to <path>.corrupt and Open fails.
*/
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/maintenance"
	"github.com/marinaops/staffdesk/schedule"
	"github.com/marinaops/staffdesk/timeoff"
)

// Document is the persisted shape.
type Document struct {
	Employees           []timeoff.Employee    `json:"employees"`
	TimeOffRequests     []timeoff.Request     `json:"timeOffRequests"`
	EmployeeSchedules   []schedule.Shift      `json:"employeeSchedules"`
	MaintenanceRequests []maintenance.Request `json:"maintenanceRequests"`
}

func (d Document) clone() Document {
	return Document{
		Employees:           append([]timeoff.Employee(nil), d.Employees...),
		TimeOffRequests:     append([]timeoff.Request(nil), d.TimeOffRequests...),
		EmployeeSchedules:   append([]schedule.Shift(nil), d.EmployeeSchedules...),
		MaintenanceRequests: append([]maintenance.Request(nil), d.MaintenanceRequests...),
	}
}

type Store struct {
	path string
	mu   sync.RWMutex
	doc  Document
}

// Open loads path, or starts an empty document if the file does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return nil, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Snapshot returns a copy of the current document.
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.clone()
}

// save atomically writes the document. Caller holds the write lock.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// mutate applies fn and persists, restoring the previous document if either
// step fails.
func (s *Store) mutate(fn func(d *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.doc.clone()
	if err := fn(&s.doc); err != nil {
		s.doc = prev
		return err
	}
	if err := s.save(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

// =============================================================================
// timeoff.Store
// =============================================================================

func (s *Store) ListEmployees(_ context.Context) ([]timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]timeoff.Employee(nil), s.doc.Employees...), nil
}

func (s *Store) GetEmployee(_ context.Context, id generic.EntityID) (timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(&s.doc, id)
}

func (s *Store) SaveEmployee(_ context.Context, emp timeoff.Employee) error {
	return s.mutate(func(d *Document) error { saveEmployee(d, emp); return nil })
}

func (s *Store) ReplaceEmployees(_ context.Context, emps []timeoff.Employee) error {
	return s.mutate(func(d *Document) error {
		d.Employees = append([]timeoff.Employee(nil), emps...)
		return nil
	})
}

func (s *Store) AppendRequest(_ context.Context, req timeoff.Request) error {
	return s.mutate(func(d *Document) error { return appendRequest(d, req) })
}

func (s *Store) ListRequests(_ context.Context) ([]timeoff.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]timeoff.Request(nil), s.doc.TimeOffRequests...), nil
}

// WithTx runs fn against the in-memory document and writes the file once if
// fn succeeds. On error the document is restored and nothing is written.
func (s *Store) WithTx(_ context.Context, fn func(timeoff.Store) error) error {
	return s.mutate(func(d *Document) error { return fn(&txView{doc: d}) })
}

type txView struct {
	doc *Document
}

func (v *txView) ListEmployees(_ context.Context) ([]timeoff.Employee, error) {
	return append([]timeoff.Employee(nil), v.doc.Employees...), nil
}

func (v *txView) GetEmployee(_ context.Context, id generic.EntityID) (timeoff.Employee, error) {
	return getEmployee(v.doc, id)
}

func (v *txView) SaveEmployee(_ context.Context, emp timeoff.Employee) error {
	saveEmployee(v.doc, emp)
	return nil
}

func (v *txView) ReplaceEmployees(_ context.Context, emps []timeoff.Employee) error {
	v.doc.Employees = append([]timeoff.Employee(nil), emps...)
	return nil
}

func (v *txView) AppendRequest(_ context.Context, req timeoff.Request) error {
	return appendRequest(v.doc, req)
}

func (v *txView) ListRequests(_ context.Context) ([]timeoff.Request, error) {
	return append([]timeoff.Request(nil), v.doc.TimeOffRequests...), nil
}

func getEmployee(d *Document, id generic.EntityID) (timeoff.Employee, error) {
	for _, e := range d.Employees {
		if e.ID == id {
			return e, nil
		}
	}
	return timeoff.Employee{}, fmt.Errorf("employee %s: %w", id, generic.ErrNotFound)
}

func saveEmployee(d *Document, emp timeoff.Employee) {
	for i := range d.Employees {
		if d.Employees[i].ID == emp.ID {
			d.Employees[i] = emp
			return
		}
	}
	d.Employees = append(d.Employees, emp)
}

func appendRequest(d *Document, req timeoff.Request) error {
	for _, r := range d.TimeOffRequests {
		if r.ID == req.ID {
			return fmt.Errorf("request %s: %w", req.ID, generic.ErrDuplicateID)
		}
	}
	d.TimeOffRequests = append(d.TimeOffRequests, req)
	return nil
}

// =============================================================================
// schedule.Store & maintenance.Store
// =============================================================================

func (s *Store) ListShifts(_ context.Context) ([]schedule.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schedule.Shift(nil), s.doc.EmployeeSchedules...), nil
}

func (s *Store) AddShift(_ context.Context, sh schedule.Shift) error {
	return s.mutate(func(d *Document) error {
		d.EmployeeSchedules = append(d.EmployeeSchedules, sh)
		return nil
	})
}

func (s *Store) DeleteShift(_ context.Context, id string) error {
	return s.mutate(func(d *Document) error {
		for i, sh := range d.EmployeeSchedules {
			if sh.ID == id {
				d.EmployeeSchedules = append(d.EmployeeSchedules[:i:i], d.EmployeeSchedules[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("shift %s: %w", id, generic.ErrNotFound)
	})
}

func (s *Store) ListMaintenance(_ context.Context) ([]maintenance.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]maintenance.Request(nil), s.doc.MaintenanceRequests...), nil
}

func (s *Store) AddMaintenance(_ context.Context, r maintenance.Request) error {
	return s.mutate(func(d *Document) error {
		d.MaintenanceRequests = append(d.MaintenanceRequests, r)
		return nil
	})
}

func (s *Store) DeleteMaintenance(_ context.Context, id string) error {
	return s.mutate(func(d *Document) error {
		for i, r := range d.MaintenanceRequests {
			if r.ID == id {
				d.MaintenanceRequests = append(d.MaintenanceRequests[:i:i], d.MaintenanceRequests[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("maintenance request %s: %w", id, generic.ErrNotFound)
	})
}

var (
	_ timeoff.TxStore   = (*Store)(nil)
	_ schedule.Store    = (*Store)(nil)
	_ maintenance.Store = (*Store)(nil)
)
