package schedule_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/schedule"
	"github.com/marinaops/staffdesk/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *schedule.Service {
	svc := schedule.NewService(memory.New())
	n := 0
	svc.NewID = func() string {
		n++
		return fmt.Sprintf("shift-%d", n)
	}
	return svc
}

func mustShift(t *testing.T, name, date, start, end string) schedule.Shift {
	t.Helper()
	s, err := schedule.Parse(name, date, start, end, "")
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	s, err := schedule.Parse("  Ella Harbor ", "2025-06-20", "08:00", "16:30", " dock ")
	require.NoError(t, err)
	assert.Equal(t, "Ella Harbor", s.Name)
	assert.Equal(t, "dock", s.Notes)
	assert.Equal(t, 8*60, s.StartTime.Minutes())
	assert.Equal(t, 16*60+30, s.EndTime.Minutes())

	tests := []struct {
		name              string
		date, start, end  string
		wantMissingFields bool
	}{
		{"no date", "", "08:00", "16:00", true},
		{"no start", "2025-06-20", " ", "16:00", true},
		{"no end", "2025-06-20", "08:00", "", true},
		{"bad date", "2025-13-40", "08:00", "16:00", false},
		{"bad start", "2025-06-20", "8am", "16:00", false},
		{"bad end", "2025-06-20", "08:00", "25:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schedule.Parse("Ella", tt.date, tt.start, tt.end, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, generic.ErrInvalidInput))
			assert.Equal(t, tt.wantMissingFields, errors.Is(err, schedule.ErrMissingFields))
		})
	}
}

func TestOverlaps(t *testing.T) {
	base := mustShift(t, "Ella", "2025-06-20", "08:00", "12:00")

	assert.True(t, base.Overlaps(mustShift(t, "Ella", "2025-06-20", "11:00", "14:00")))
	assert.True(t, base.Overlaps(mustShift(t, "Ella", "2025-06-20", "09:00", "10:00")))
	assert.False(t, base.Overlaps(mustShift(t, "Ella", "2025-06-20", "12:00", "14:00")), "touching shifts")
	assert.False(t, base.Overlaps(mustShift(t, "Dana", "2025-06-20", "08:00", "12:00")), "other person")
	assert.False(t, base.Overlaps(mustShift(t, "Ella", "2025-06-21", "08:00", "12:00")), "other date")
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	// GIVEN a morning shift
	first, err := svc.Add(ctx, mustShift(t, "Ella", "2025-06-20", "08:00", "12:00"))
	require.NoError(t, err)
	assert.Equal(t, "shift-1", first.ID)

	// WHEN the afternoon shift starts as the morning one ends
	_, err = svc.Add(ctx, mustShift(t, "Ella", "2025-06-20", "12:00", "16:00"))

	// THEN it is accepted
	require.NoError(t, err)

	// WHEN a third shift overlaps the morning
	_, err = svc.Add(ctx, mustShift(t, "Ella", "2025-06-20", "10:00", "11:00"))

	// THEN it is a conflict
	assert.ErrorIs(t, err, schedule.ErrOverlap)
	assert.ErrorIs(t, err, generic.ErrConflict)

	shifts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, shifts, 2)
}

func TestService_Add_Invalid(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.Add(ctx, schedule.Shift{Name: "Ella"})
	assert.ErrorIs(t, err, schedule.ErrMissingFields)

	_, err = svc.Add(ctx, mustShift(t, "Ella", "2025-06-20", "12:00", "12:00"))
	assert.ErrorIs(t, err, schedule.ErrEndNotAfter)

	_, err = svc.Add(ctx, mustShift(t, "Ella", "2025-06-20", "14:00", "09:00"))
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestService_ListOrder(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	for _, s := range []schedule.Shift{
		mustShift(t, "Zed", "2025-06-21", "08:00", "10:00"),
		mustShift(t, "Zed", "2025-06-20", "13:00", "15:00"),
		mustShift(t, "Bea", "2025-06-20", "13:00", "15:00"),
		mustShift(t, "Ann", "2025-06-20", "07:00", "09:00"),
	} {
		_, err := svc.Add(ctx, s)
		require.NoError(t, err)
	}

	shifts, err := svc.List(ctx)
	require.NoError(t, err)

	var got []string
	for _, s := range shifts {
		got = append(got, s.Date.String()+" "+s.StartTime.String()+" "+s.Name)
	}
	assert.Equal(t, []string{
		"2025-06-20 07:00 Ann",
		"2025-06-20 13:00 Bea",
		"2025-06-20 13:00 Zed",
		"2025-06-21 08:00 Zed",
	}, got)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	s, err := svc.Add(ctx, mustShift(t, "Ella", "2025-06-20", "08:00", "12:00"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, s.ID))
	assert.ErrorIs(t, svc.Delete(ctx, s.ID), generic.ErrNotFound)

	shifts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, shifts)
}
