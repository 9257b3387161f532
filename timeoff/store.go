/*
store.go - Persistence interface for the two record collections

PURPOSE:
  Defines the boundary between the engine and wherever records live. The
  Record Store owns two collections: employees and time-off requests.

KEY INTERFACES:
  Store:   Reads plus the three writes the system needs
  TxStore: Store with an all-or-nothing WithTx

APPEND-ONLY CONTRACT:
  Requests are append-only:
  - AppendRequest(): the only request write
  - NO update or delete for requests
  Employees are written two ways only: wholesale by ReplaceEmployees
  (roster sync) and per employee by SaveEmployee (balance ledger).

IMPLEMENTATIONS:
  - store/memory:   In-memory, for tests and the demo binary
  - store/sqlite:   SQLite via go-sqlite3
  - store/jsonfile: One JSON document on disk, the browser storage shape

SEE ALSO:
  - request.go: Uses TxStore to append and update balances together
*/
package timeoff

import (
	"context"

	"github.com/marinaops/staffdesk/generic"
)

// Store handles persistence of employees and requests.
type Store interface {
	// ListEmployees returns every employee in insertion order.
	ListEmployees(ctx context.Context) ([]Employee, error)

	// GetEmployee returns generic.ErrNotFound when id is unknown.
	GetEmployee(ctx context.Context, id generic.EntityID) (Employee, error)

	// SaveEmployee inserts or replaces a single employee.
	SaveEmployee(ctx context.Context, emp Employee) error

	// ReplaceEmployees overwrites the whole employee collection.
	ReplaceEmployees(ctx context.Context, emps []Employee) error

	// AppendRequest persists a new record. Returns generic.ErrDuplicateID if
	// the id already exists.
	AppendRequest(ctx context.Context, req Request) error

	// ListRequests returns the full history in append order.
	ListRequests(ctx context.Context) ([]Request, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the passed Store is
	// rolled back. Otherwise all of them are committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
