// Package storetest is the behavior every record store driver must share.
// Driver packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/maintenance"
	"github.com/marinaops/staffdesk/schedule"
	"github.com/marinaops/staffdesk/timeoff"
)

// Store is the full driver surface.
type Store interface {
	timeoff.TxStore
	schedule.Store
	maintenance.Store
}

// Run executes the shared suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("employees", func(t *testing.T) { testEmployees(t, newStore(t)) })
	t.Run("requests", func(t *testing.T) { testRequests(t, newStore(t)) })
	t.Run("tx commit", func(t *testing.T) { testTxCommit(t, newStore(t)) })
	t.Run("tx rollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
	t.Run("shifts", func(t *testing.T) { testShifts(t, newStore(t)) })
	t.Run("maintenance", func(t *testing.T) { testMaintenance(t, newStore(t)) })
}

func employee(id, name string, pto, psl string) timeoff.Employee {
	return timeoff.Employee{
		ID:       generic.EntityID(id),
		Name:     name,
		Position: "Dockhand",
		Color:    "#336699",
		PTOHours: decimal.RequireFromString(pto),
		PSLHours: decimal.RequireFromString(psl),
	}
}

func request(id string, emp generic.EntityID) timeoff.Request {
	start := time.Date(2025, 7, 10, 8, 0, 0, 0, time.UTC)
	return timeoff.Request{
		ID:                 id,
		EmployeeID:         emp,
		Kind:               timeoff.KindSick,
		Start:              start,
		End:                start.Add(4*time.Hour + 30*time.Minute),
		Hours:              decimal.RequireFromString("4.5"),
		Notes:              "dentist, then \"errands\"",
		Status:             timeoff.StatusApproved,
		CreatedAt:          time.Date(2025, 6, 20, 9, 15, 30, 0, time.UTC),
		VerificationNeeded: true,
	}
}

func assertEmployee(t *testing.T, want, got timeoff.Employee) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Position, got.Position)
	assert.Equal(t, want.Color, got.Color)
	assert.True(t, want.PTOHours.Equal(got.PTOHours), "pto want %s got %s", want.PTOHours, got.PTOHours)
	assert.True(t, want.PSLHours.Equal(got.PSLHours), "psl want %s got %s", want.PSLHours, got.PSLHours)
}

func testEmployees(t *testing.T, s Store) {
	ctx := context.Background()

	emps, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, emps)

	// GIVEN: a roster of two
	a := employee("1", "Ella Harbor", "40", "16")
	b := employee("2", "Haak Wagner", "80.25", "0")
	require.NoError(t, s.ReplaceEmployees(ctx, []timeoff.Employee{a, b}))

	// WHEN: one balance changes and a new employee is saved
	a.PTOHours = decimal.NewFromInt(32)
	require.NoError(t, s.SaveEmployee(ctx, a))
	c := employee("3", "Dana Pier", "8", "8")
	require.NoError(t, s.SaveEmployee(ctx, c))

	// THEN: order is preserved and values round-trip
	emps, err = s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, emps, 3)
	assertEmployee(t, a, emps[0])
	assertEmployee(t, b, emps[1])
	assertEmployee(t, c, emps[2])

	got, err := s.GetEmployee(ctx, "2")
	require.NoError(t, err)
	assertEmployee(t, b, got)

	_, err = s.GetEmployee(ctx, "missing")
	assert.True(t, generic.IsNotFound(err), "got %v", err)

	// replace drops everyone not in the new roster
	require.NoError(t, s.ReplaceEmployees(ctx, []timeoff.Employee{c}))
	emps, err = s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, emps, 1)
	assert.Equal(t, generic.EntityID("3"), emps[0].ID)
}

func testRequests(t *testing.T, s Store) {
	ctx := context.Background()

	first := request("r1", "1")
	second := request("r2", "2")
	second.Kind = timeoff.KindPFML
	second.Status = timeoff.StatusPending
	second.VerificationNeeded = false
	second.Notes = ""

	require.NoError(t, s.AppendRequest(ctx, first))
	require.NoError(t, s.AppendRequest(ctx, second))

	err := s.AppendRequest(ctx, first)
	assert.True(t, errors.Is(err, generic.ErrDuplicateID), "got %v", err)

	reqs, err := s.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	got := reqs[0]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.EmployeeID, got.EmployeeID)
	assert.Equal(t, first.Kind, got.Kind)
	assert.True(t, first.Start.Equal(got.Start))
	assert.True(t, first.End.Equal(got.End))
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, first.Hours.Equal(got.Hours))
	assert.Equal(t, first.Notes, got.Notes)
	assert.Equal(t, first.Status, got.Status)
	assert.True(t, got.VerificationNeeded)

	assert.Equal(t, "r2", reqs[1].ID)
	assert.Equal(t, timeoff.StatusPending, reqs[1].Status)
}

func testTxCommit(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.ReplaceEmployees(ctx, []timeoff.Employee{employee("1", "Ella Harbor", "40", "16")}))

	err := s.WithTx(ctx, func(tx timeoff.Store) error {
		if err := tx.AppendRequest(ctx, request("r1", "1")); err != nil {
			return err
		}
		emp, err := tx.GetEmployee(ctx, "1")
		if err != nil {
			return err
		}
		emp.PSLHours = emp.PSLHours.Sub(decimal.RequireFromString("4.5"))
		return tx.SaveEmployee(ctx, emp)
	})
	require.NoError(t, err)

	emp, err := s.GetEmployee(ctx, "1")
	require.NoError(t, err)
	assert.True(t, emp.PSLHours.Equal(decimal.RequireFromString("11.5")))
	reqs, err := s.ListRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func testTxRollback(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.ReplaceEmployees(ctx, []timeoff.Employee{employee("1", "Ella Harbor", "40", "16")}))
	boom := errors.New("boom")

	// WHEN: the transaction writes, reads its own write, then fails
	err := s.WithTx(ctx, func(tx timeoff.Store) error {
		if err := tx.AppendRequest(ctx, request("r1", "1")); err != nil {
			return err
		}
		reqs, err := tx.ListRequests(ctx)
		if err != nil {
			return err
		}
		if len(reqs) != 1 {
			return errors.New("transaction does not see its own write")
		}
		if err := tx.SaveEmployee(ctx, employee("1", "Ella Harbor", "0", "0")); err != nil {
			return err
		}
		return boom
	})

	// THEN: nothing sticks
	require.ErrorIs(t, err, boom)
	reqs, err := s.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs)
	emp, err := s.GetEmployee(ctx, "1")
	require.NoError(t, err)
	assert.True(t, emp.PTOHours.Equal(decimal.NewFromInt(40)))

	// and the id is free again
	assert.NoError(t, s.AppendRequest(ctx, request("r1", "1")))
}

func testShifts(t *testing.T, s Store) {
	ctx := context.Background()
	sh := schedule.Shift{
		ID:        "s1",
		Name:      "Ella Harbor",
		Date:      generic.NewDate(2025, time.July, 1),
		StartTime: generic.NewClock(8, 0),
		EndTime:   generic.NewClock(12, 30),
		Notes:     "fuel dock",
	}
	require.NoError(t, s.AddShift(ctx, sh))

	list, err := s.ListShifts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sh.ID, list[0].ID)
	assert.True(t, sh.Date.Equal(list[0].Date))
	assert.Equal(t, sh.StartTime, list[0].StartTime)
	assert.Equal(t, sh.EndTime, list[0].EndTime)
	assert.Equal(t, sh.Notes, list[0].Notes)

	require.NoError(t, s.DeleteShift(ctx, "s1"))
	assert.True(t, generic.IsNotFound(s.DeleteShift(ctx, "s1")))

	list, err = s.ListShifts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testMaintenance(t *testing.T, s Store) {
	ctx := context.Background()
	r := maintenance.Request{
		ID:          "m1",
		Date:        generic.NewDate(2025, time.June, 2),
		Description: "Replace cleat on B-12",
		Priority:    maintenance.PriorityHigh,
	}
	require.NoError(t, s.AddMaintenance(ctx, r))

	list, err := s.ListMaintenance(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)
	assert.True(t, r.Date.Equal(list[0].Date))
	assert.Equal(t, r.Description, list[0].Description)
	assert.Equal(t, r.Priority, list[0].Priority)

	require.NoError(t, s.DeleteMaintenance(ctx, "m1"))
	assert.True(t, generic.IsNotFound(s.DeleteMaintenance(ctx, "m1")))
}
