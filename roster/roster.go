/*
roster.go - Pulls the employee roster into the record store

PURPOSE:
  The roster (names, positions, balances) is owned by an outside file or
  endpoint. Sync fetches it and replaces the employee collection wholesale.

FAILURE MODEL:
  Any failure leaves the store untouched:
  - network error or non-2xx status
  - undecodable body
  - an empty list (an empty roster is never a valid replacement)
  The failure is logged as a warning and returned. SyncOnStartup only logs.
*/
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/marinaops/staffdesk/timeoff"
)

var (
	ErrEmptyRoster = errors.New("roster is empty")
	ErrFetch       = errors.New("roster fetch failed")
)

// SyncRecorder receives the outcome of every sync attempt.
type SyncRecorder interface {
	RosterSynced(n int, err error)
}

type Syncer struct {
	// Source is an http(s) URL or a local file path.
	Source string
	Client *http.Client
	Store  timeoff.Store
	Logger *slog.Logger

	Metrics SyncRecorder // optional
}

// NewSyncer builds a Syncer with an http client bounded by timeout.
func NewSyncer(source string, timeout time.Duration, store timeoff.Store, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Syncer{
		Source: source,
		Client: &http.Client{Timeout: timeout},
		Store:  store,
		Logger: logger,
	}
}

// Sync fetches the roster and replaces the stored employees. Returns the
// number of employees written.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	emps, err := s.Fetch(ctx)
	if err == nil {
		err = s.Store.ReplaceEmployees(ctx, emps)
		if err != nil {
			err = fmt.Errorf("replace employees: %w", err)
		}
	}
	if s.Metrics != nil {
		s.Metrics.RosterSynced(len(emps), err)
	}
	if err != nil {
		s.logger().WarnContext(ctx, "roster not available",
			slog.String("source", s.Source),
			slog.Any("error", err))
		return 0, err
	}

	s.logger().InfoContext(ctx, "roster synced",
		slog.String("source", s.Source),
		slog.Int("employees", len(emps)))
	return len(emps), nil
}

// SyncOnStartup runs Sync and swallows its error. The store keeps whatever
// roster it had.
func (s *Syncer) SyncOnStartup(ctx context.Context) {
	_, _ = s.Sync(ctx)
}

// Fetch reads and decodes the roster without touching the store.
func (s *Syncer) Fetch(ctx context.Context) ([]timeoff.Employee, error) {
	body, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var emps []timeoff.Employee
	if err := json.NewDecoder(body).Decode(&emps); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	if len(emps) == 0 {
		return nil, ErrEmptyRoster
	}
	return emps, nil
}

func (s *Syncer) open(ctx context.Context) (io.ReadCloser, error) {
	if !isURL(s.Source) {
		f, err := os.Open(s.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *Syncer) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
