/*
schedule.go - Staff shift schedule

PURPOSE:
  Keeps the weekly shift list the office works from. A shift is one named
  person working one date between two wall-clock times.

RULES:
  - Date, start time and end time are required.
  - End must be after start on the same date.
  - A shift may not overlap another shift of the same person on the same
    date. Touching shifts (one ends when the next begins) are allowed.

  Names are free text, matched after trimming. A shift does not need to
  belong to a roster employee.

SEE ALSO:
  - store/memory, store/sqlite, store/jsonfile: Store implementations
*/
package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/marinaops/staffdesk/generic"
)

var (
	ErrMissingFields = fmt.Errorf("date, start time and end time are required: %w", generic.ErrInvalidInput)
	ErrEndNotAfter   = fmt.Errorf("end time must be after start time: %w", generic.ErrInvalidPeriod)
	ErrOverlap       = fmt.Errorf("shift overlaps an existing shift for this employee: %w", generic.ErrConflict)
)

// Shift is one scheduled working block.
type Shift struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Date      generic.Date      `json:"date"`
	StartTime generic.ClockTime `json:"startTime"`
	EndTime   generic.ClockTime `json:"endTime"`
	Notes     string            `json:"notes"`
}

// Overlaps reports whether s and other share any minute. Both must be on the
// same date and belong to the same name.
func (s Shift) Overlaps(other Shift) bool {
	if s.Name != other.Name || !s.Date.Equal(other.Date) {
		return false
	}
	return s.StartTime.Minutes() < other.EndTime.Minutes() &&
		s.EndTime.Minutes() > other.StartTime.Minutes()
}

// Parse builds a shift from form values. Empty date or times yield
// ErrMissingFields.
func Parse(name, date, start, end, notes string) (Shift, error) {
	date, start, end = strings.TrimSpace(date), strings.TrimSpace(start), strings.TrimSpace(end)
	if date == "" || start == "" || end == "" {
		return Shift{}, ErrMissingFields
	}
	d, err := generic.ParseDate(date)
	if err != nil {
		return Shift{}, fmt.Errorf("date %q: %w", date, generic.ErrInvalidInput)
	}
	st, err := generic.ParseClock(start)
	if err != nil {
		return Shift{}, fmt.Errorf("start time %q: %w", start, generic.ErrInvalidInput)
	}
	et, err := generic.ParseClock(end)
	if err != nil {
		return Shift{}, fmt.Errorf("end time %q: %w", end, generic.ErrInvalidInput)
	}
	return Shift{Name: strings.TrimSpace(name), Date: d, StartTime: st, EndTime: et, Notes: strings.TrimSpace(notes)}, nil
}

// Store persists shifts.
type Store interface {
	ListShifts(ctx context.Context) ([]Shift, error)
	AddShift(ctx context.Context, s Shift) error

	// DeleteShift returns generic.ErrNotFound for unknown ids.
	DeleteShift(ctx context.Context, id string) error
}

// Service validates shifts before they reach the store.
type Service struct {
	Store Store
	NewID func() string
}

func NewService(store Store) *Service {
	return &Service{Store: store, NewID: uuid.NewString}
}

// Add validates s, assigns an id and stores it.
func (svc *Service) Add(ctx context.Context, s Shift) (Shift, error) {
	s.Name = strings.TrimSpace(s.Name)
	s.Notes = strings.TrimSpace(s.Notes)

	if s.Date.IsZero() {
		return Shift{}, ErrMissingFields
	}
	if s.EndTime.Minutes() <= s.StartTime.Minutes() {
		return Shift{}, ErrEndNotAfter
	}

	existing, err := svc.Store.ListShifts(ctx)
	if err != nil {
		return Shift{}, fmt.Errorf("list shifts: %w", err)
	}
	for _, other := range existing {
		if s.Overlaps(other) {
			return Shift{}, ErrOverlap
		}
	}

	s.ID = svc.newID()
	if err := svc.Store.AddShift(ctx, s); err != nil {
		return Shift{}, fmt.Errorf("add shift: %w", err)
	}
	return s, nil
}

// List returns every shift ordered by date, start time, then name.
func (svc *Service) List(ctx context.Context) ([]Shift, error) {
	shifts, err := svc.Store.ListShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	sort.SliceStable(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime.Minutes() < b.StartTime.Minutes()
		}
		return a.Name < b.Name
	})
	return shifts, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.Store.DeleteShift(ctx, id)
}

func (svc *Service) newID() string {
	if svc.NewID == nil {
		return uuid.NewString()
	}
	return svc.NewID()
}
