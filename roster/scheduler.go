/*
scheduler.go - Periodic roster refresh

PURPOSE:
  Re-runs Sync on a fixed interval so balance edits made in the roster
  source reach the store without a restart.

DESIGN:
  - One background goroutine driven by a time.Ticker
  - Syncs once immediately on Start
  - A failed tick is logged by Sync and the previous roster stays in place
  - Stop is idempotent and waits for the goroutine to exit

USAGE:
  sched := roster.NewScheduler(syncer, 15*time.Minute)
  sched.Start(ctx)
  defer sched.Stop()
*/
package roster

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler keeps the roster fresh in the background.
type Scheduler struct {
	Syncer   *Syncer
	Interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler(syncer *Syncer, interval time.Duration) *Scheduler {
	return &Scheduler{Syncer: syncer, Interval: interval}
}

// Start begins refreshing. A non-positive interval only runs the initial sync.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)

	s.Syncer.logger().InfoContext(ctx, "roster scheduler started",
		slog.Duration("interval", s.Interval))
}

// Stop halts the scheduler and waits for an in-flight sync to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.Syncer.SyncOnStartup(ctx)
	if s.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Syncer.SyncOnStartup(ctx)
		case <-ctx.Done():
			return
		}
	}
}
