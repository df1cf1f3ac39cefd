// Package scheduler wires up the cron job that periodically triggers scan
// cycles.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/Can0Ngu1/bot-web/internal/model"
)

// CycleRunner is the scan pipeline entry point. It owns the process-wide
// no-overlap gate, so the scheduler can fire ticks and manual triggers
// without coordinating with anyone else.
type CycleRunner interface {
	TryRun(ctx context.Context) (model.CycleResult, bool)
}

// Scheduler wraps robfig/cron behind four controls: Start, Stop, TriggerNow
// and IsRunning. A fresh cron instance is built per Start, so Stop followed
// by Start with a new interval reschedules cleanly; Start never fires an
// immediate cycle — the first tick lands one full interval later.
//
// Safe for concurrent use: the health endpoint reads state while the
// config watcher restarts the schedule.
type Scheduler struct {
	runner CycleRunner

	mu       sync.Mutex
	cron     *cron.Cron
	interval int
	running  bool
}

// New creates a stopped Scheduler.
func New(runner CycleRunner) *Scheduler {
	return &Scheduler{runner: runner}
}

// Start begins ticking every intervalMinutes minutes. Starting a running
// scheduler is an error; Stop first to reschedule.
func (s *Scheduler) Start(ctx context.Context, intervalMinutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if intervalMinutes < 1 {
		return fmt.Errorf("interval must be at least 1 minute, got %d", intervalMinutes)
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %dm", intervalMinutes)
	if _, err := c.AddFunc(spec, func() {
		s.runner.TryRun(ctx)
	}); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	c.Start()
	s.cron = c
	s.interval = intervalMinutes
	s.running = true
	log.Printf("[scheduler] Started — spec: %s", spec)
	return nil
}

// Stop cancels future ticks and waits for a tick already in flight to
// finish. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	// Done fires once cron-launched jobs have returned.
	<-c.Stop().Done()
	log.Printf("[scheduler] Stopped")
}

// TriggerNow runs one out-of-band cycle regardless of scheduler state. It
// reports false when a cycle was already in flight and the trigger was
// dropped.
func (s *Scheduler) TriggerNow(ctx context.Context) (model.CycleResult, bool) {
	log.Printf("[scheduler] Manual trigger")
	return s.runner.TryRun(ctx)
}

// IsRunning reports whether periodic ticks are scheduled.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interval returns the active tick interval in minutes, or 0 when stopped.
func (s *Scheduler) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return s.interval
}
