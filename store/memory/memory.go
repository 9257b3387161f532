// Package memory provides an in-memory record store (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/maintenance"
	"github.com/marinaops/staffdesk/schedule"
	"github.com/marinaops/staffdesk/timeoff"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store implements timeoff.TxStore, schedule.Store and maintenance.Store.
type Store struct {
	mu    sync.RWMutex
	state state
}

type state struct {
	employees   []timeoff.Employee
	requests    []timeoff.Request
	requestIDs  map[string]bool
	shifts      []schedule.Shift
	maintenance []maintenance.Request
}

func New() *Store {
	return &Store{state: state{requestIDs: make(map[string]bool)}}
}

// Seed returns a store preloaded with employees.
func Seed(emps ...timeoff.Employee) *Store {
	s := New()
	s.state.employees = append(s.state.employees, emps...)
	return s
}

func (s *Store) ListEmployees(_ context.Context) ([]timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listEmployees(), nil
}

func (s *Store) GetEmployee(_ context.Context, id generic.EntityID) (timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getEmployee(id)
}

func (s *Store) SaveEmployee(_ context.Context, emp timeoff.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.saveEmployee(emp)
	return nil
}

func (s *Store) ReplaceEmployees(_ context.Context, emps []timeoff.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.employees = append([]timeoff.Employee(nil), emps...)
	return nil
}

func (s *Store) AppendRequest(_ context.Context, req timeoff.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.appendRequest(req)
}

func (s *Store) ListRequests(_ context.Context) ([]timeoff.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listRequests(), nil
}

// =============================================================================
// SHIFTS & MAINTENANCE
// =============================================================================

func (s *Store) ListShifts(_ context.Context) ([]schedule.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schedule.Shift(nil), s.state.shifts...), nil
}

func (s *Store) AddShift(_ context.Context, sh schedule.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.shifts = append(s.state.shifts, sh)
	return nil
}

func (s *Store) DeleteShift(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sh := range s.state.shifts {
		if sh.ID == id {
			s.state.shifts = append(s.state.shifts[:i:i], s.state.shifts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("shift %s: %w", id, generic.ErrNotFound)
}

func (s *Store) ListMaintenance(_ context.Context) ([]maintenance.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]maintenance.Request(nil), s.state.maintenance...), nil
}

func (s *Store) AddMaintenance(_ context.Context, r maintenance.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.maintenance = append(s.state.maintenance, r)
	return nil
}

func (s *Store) DeleteMaintenance(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.state.maintenance {
		if r.ID == id {
			s.state.maintenance = append(s.state.maintenance[:i:i], s.state.maintenance[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("maintenance request %s: %w", id, generic.ErrNotFound)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// Writers are serialized for the duration of fn.
func (s *Store) WithTx(_ context.Context, fn func(timeoff.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&txView{st: &s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// txView operates on state that the parent already holds locked.
type txView struct {
	st *state
}

func (v *txView) ListEmployees(_ context.Context) ([]timeoff.Employee, error) {
	return v.st.listEmployees(), nil
}

func (v *txView) GetEmployee(_ context.Context, id generic.EntityID) (timeoff.Employee, error) {
	return v.st.getEmployee(id)
}

func (v *txView) SaveEmployee(_ context.Context, emp timeoff.Employee) error {
	v.st.saveEmployee(emp)
	return nil
}

func (v *txView) ReplaceEmployees(_ context.Context, emps []timeoff.Employee) error {
	v.st.employees = append([]timeoff.Employee(nil), emps...)
	return nil
}

func (v *txView) AppendRequest(_ context.Context, req timeoff.Request) error {
	return v.st.appendRequest(req)
}

func (v *txView) ListRequests(_ context.Context) ([]timeoff.Request, error) {
	return v.st.listRequests(), nil
}

// =============================================================================
// STATE HELPERS (caller holds the lock)
// =============================================================================

func (st *state) listEmployees() []timeoff.Employee {
	return append([]timeoff.Employee(nil), st.employees...)
}

func (st *state) getEmployee(id generic.EntityID) (timeoff.Employee, error) {
	for _, e := range st.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return timeoff.Employee{}, fmt.Errorf("employee %s: %w", id, generic.ErrNotFound)
}

func (st *state) saveEmployee(emp timeoff.Employee) {
	for i := range st.employees {
		if st.employees[i].ID == emp.ID {
			st.employees[i] = emp
			return
		}
	}
	st.employees = append(st.employees, emp)
}

func (st *state) appendRequest(req timeoff.Request) error {
	if st.requestIDs == nil {
		st.requestIDs = make(map[string]bool)
	}
	if st.requestIDs[req.ID] {
		return fmt.Errorf("request %s: %w", req.ID, generic.ErrDuplicateID)
	}
	st.requests = append(st.requests, req)
	st.requestIDs[req.ID] = true
	return nil
}

func (st *state) listRequests() []timeoff.Request {
	return append([]timeoff.Request(nil), st.requests...)
}

func (st *state) clone() state {
	ids := make(map[string]bool, len(st.requestIDs))
	for k, v := range st.requestIDs {
		ids[k] = v
	}
	return state{
		employees:   append([]timeoff.Employee(nil), st.employees...),
		requests:    append([]timeoff.Request(nil), st.requests...),
		requestIDs:  ids,
		shifts:      append([]schedule.Shift(nil), st.shifts...),
		maintenance: append([]maintenance.Request(nil), st.maintenance...),
	}
}

var (
	_ timeoff.TxStore   = (*Store)(nil)
	_ schedule.Store    = (*Store)(nil)
	_ maintenance.Store = (*Store)(nil)
)
