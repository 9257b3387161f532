// Package maintenance keeps the marina's open maintenance requests: a date, a
// description and a priority. Requests are added and removed once resolved;
// there is no edit.
package maintenance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/marinaops/staffdesk/generic"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts any casing. Empty input means medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("unknown priority %q: %w", s, generic.ErrInvalidInput)
	}
}

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Request is one open maintenance item.
type Request struct {
	ID          string       `json:"id"`
	Date        generic.Date `json:"date"`
	Description string       `json:"description"`
	Priority    Priority     `json:"priority"`
}

var ErrMissingFields = fmt.Errorf("date and description are required: %w", generic.ErrInvalidInput)

type Store interface {
	ListMaintenance(ctx context.Context) ([]Request, error)
	AddMaintenance(ctx context.Context, r Request) error

	// DeleteMaintenance returns generic.ErrNotFound for unknown ids.
	DeleteMaintenance(ctx context.Context, id string) error
}

type Service struct {
	Store Store
	NewID func() string
}

func NewService(store Store) *Service {
	return &Service{Store: store, NewID: uuid.NewString}
}

// Add validates r, assigns an id and stores it.
func (svc *Service) Add(ctx context.Context, r Request) (Request, error) {
	r.Description = strings.TrimSpace(r.Description)
	if r.Date.IsZero() || r.Description == "" {
		return Request{}, ErrMissingFields
	}
	p, err := ParsePriority(string(r.Priority))
	if err != nil {
		return Request{}, err
	}
	r.Priority = p
	if svc.NewID != nil {
		r.ID = svc.NewID()
	} else {
		r.ID = uuid.NewString()
	}
	if err := svc.Store.AddMaintenance(ctx, r); err != nil {
		return Request{}, fmt.Errorf("add maintenance request: %w", err)
	}
	return r, nil
}

// List returns open requests, highest priority first, then by date.
func (svc *Service) List(ctx context.Context) ([]Request, error) {
	list, err := svc.Store.ListMaintenance(ctx)
	if err != nil {
		return nil, fmt.Errorf("list maintenance requests: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority.rank() != list[j].Priority.rank() {
			return list[i].Priority.rank() < list[j].Priority.rank()
		}
		return list[i].Date.Before(list[j].Date)
	})
	return list, nil
}

// Delete removes a resolved request.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.Store.DeleteMaintenance(ctx, id)
}
