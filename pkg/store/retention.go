package store

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/tevino/abool/v2"
)

// Retention periodically prunes evaluations older than a fixed window.
type Retention struct {
	backend   Backend
	window    time.Duration
	interval  time.Duration
	running   *abool.AtomicBool
	scheduler gocron.Scheduler
	now       func() time.Time
}

// NewRetention creates a pruner that keeps window worth of history and runs
// every interval once started.
func NewRetention(b Backend, window, interval time.Duration) *Retention {
	return &Retention{
		backend:  b,
		window:   window,
		interval: interval,
		running:  abool.NewBool(false),
		now:      time.Now,
	}
}

// Start schedules the prune job.
func (r *Retention) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating retention scheduler: %w", err)
	}
	if _, err := s.NewJob(gocron.DurationJob(r.interval), gocron.NewTask(r.task)); err != nil {
		return fmt.Errorf("scheduling retention job: %w", err)
	}
	s.Start()
	r.scheduler = s
	return nil
}

// Stop shuts the scheduler down. It is safe to call on a nil Retention or
// without Start.
func (r *Retention) Stop() error {
	if r == nil || r.scheduler == nil {
		return nil
	}
	return r.scheduler.Shutdown()
}

// RunOnce prunes immediately. If a prune is already in progress it returns
// (0, nil) without doing anything.
func (r *Retention) RunOnce() (int, error) {
	if !r.running.SetToIf(false, true) {
		return 0, nil
	}
	defer r.running.UnSet()

	return r.backend.Prune(r.now().Add(-r.window))
}

func (r *Retention) task() {
	n, err := r.RunOnce()
	if err != nil {
		log.Printf("Warning: history prune failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Pruned %d evaluation(s) older than %s", n, r.window)
	}
}
