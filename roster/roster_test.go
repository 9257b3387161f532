package roster_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/roster"
	"github.com/marinaops/staffdesk/store/memory"
	"github.com/marinaops/staffdesk/timeoff"
)

const rosterJSON = `[
  {"id": 1, "name": "Haak Wagner", "position": "Harbormaster", "color": "#1f77b4", "ptoHours": 80, "pslHours": 24},
  {"id": "e2", "name": "Dana Pier", "position": "Dockhand"}
]`

type syncCount struct {
	n   int
	err error
}

func (s *syncCount) RosterSynced(n int, err error) {
	s.n = n
	s.err = err
}

func seeded() *memory.Store {
	return memory.Seed(timeoff.Employee{ID: "old", Name: "Previous Person", PTOHours: decimal.NewFromInt(8)})
}

func TestSync_FromHTTP_ReplacesEmployees(t *testing.T) {
	// GIVEN: a roster endpoint
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "no-store", r.Header.Get("Cache-Control"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rosterJSON))
	}))
	defer srv.Close()

	store := seeded()
	rec := &syncCount{}
	s := roster.NewSyncer(srv.URL, time.Second, store, nil)
	s.Metrics = rec

	// WHEN: syncing
	n, err := s.Sync(context.Background())

	// THEN: the collection is replaced wholesale
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, rec.n)
	assert.NoError(t, rec.err)

	emps, err := store.ListEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, emps, 2)
	assert.Equal(t, generic.EntityID("1"), emps[0].ID)
	assert.True(t, emps[0].PTOHours.Equal(decimal.NewFromInt(80)))
	assert.True(t, emps[1].PTOHours.IsZero(), "missing balances decode as zero")

	_, err = store.GetEmployee(context.Background(), "old")
	assert.True(t, generic.IsNotFound(err))
}

func TestSync_FromFile(t *testing.T) {
	// GIVEN: a roster file on disk
	path := filepath.Join(t.TempDir(), "employees.json")
	require.NoError(t, os.WriteFile(path, []byte(rosterJSON), 0o600))
	store := seeded()

	// WHEN: syncing from the path
	n, err := roster.NewSyncer(path, time.Second, store, nil).Sync(context.Background())

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSync_FailureKeepsState(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: roster.ErrFetch,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: roster.ErrFetch,
		},
		{
			name: "empty list",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			},
			wantErr: roster.ErrEmptyRoster,
		},
		{
			name: "null body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`null`))
			},
			wantErr: roster.ErrEmptyRoster,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: a failing source
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			store := seeded()
			rec := &syncCount{}
			s := roster.NewSyncer(srv.URL, time.Second, store, nil)
			s.Metrics = rec

			// WHEN
			_, err := s.Sync(context.Background())

			// THEN: the error is returned and the old roster survives
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Error(t, rec.err)

			emps, err := store.ListEmployees(context.Background())
			require.NoError(t, err)
			require.Len(t, emps, 1)
			assert.Equal(t, generic.EntityID("old"), emps[0].ID)
		})
	}
}

func TestSync_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	defer srv.Close()
	store := seeded()

	_, err := roster.NewSyncer(srv.URL, time.Second, store, nil).Sync(context.Background())

	require.Error(t, err)
	emps, _ := store.ListEmployees(context.Background())
	assert.Len(t, emps, 1)
}

func TestSyncOnStartup_MissingFileIsNotFatal(t *testing.T) {
	// GIVEN: a source that does not exist
	store := seeded()
	s := roster.NewSyncer(filepath.Join(t.TempDir(), "nope.json"), time.Second, store, nil)

	// WHEN / THEN: nothing panics and state is untouched
	s.SyncOnStartup(context.Background())

	emps, _ := store.ListEmployees(context.Background())
	assert.Len(t, emps, 1)
}

func TestScheduler_RefreshesUntilStopped(t *testing.T) {
	// GIVEN: an endpoint that counts hits
	hits := make(chan struct{}, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		select {
		case hits <- struct{}{}:
		default:
		}
		_, _ = w.Write([]byte(rosterJSON))
	}))
	defer srv.Close()

	store := seeded()
	sched := roster.NewScheduler(roster.NewSyncer(srv.URL, time.Second, store, nil), 10*time.Millisecond)

	// WHEN: started and left running for a few ticks
	sched.Start(context.Background())
	for i := 0; i < 3; i++ {
		select {
		case <-hits:
		case <-time.After(2 * time.Second):
			t.Fatal("roster was not refreshed")
		}
	}
	sched.Stop()
	sched.Stop()

	// THEN: the roster was replaced
	emps, err := store.ListEmployees(context.Background())
	require.NoError(t, err)
	assert.Len(t, emps, 2)
}

func TestScheduler_ZeroIntervalSyncsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.json")
	require.NoError(t, os.WriteFile(path, []byte(rosterJSON), 0o600))
	store := seeded()

	sched := roster.NewScheduler(roster.NewSyncer(path, time.Second, store, nil), 0)
	sched.Start(context.Background())

	assert.Eventually(t, func() bool {
		emps, _ := store.ListEmployees(context.Background())
		return len(emps) == 2
	}, 2*time.Second, 5*time.Millisecond)
	sched.Stop()
}
