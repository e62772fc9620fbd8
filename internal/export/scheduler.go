package export

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the daily export on a cron schedule.
type Scheduler struct {
	exporter *Exporter
	schedule string
	cron     *cron.Cron
	now      func() time.Time
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	lastRun time.Time
	lastErr error
}

// NewScheduler creates a scheduler that exports the current day whenever the
// standard five-field cron expression fires.
func NewScheduler(exporter *Exporter, schedule string, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		exporter: exporter,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(exporter.ledger.Location())),
		now:      time.Now,
		logger:   logger,
	}
}

// Start validates the schedule and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("export scheduler is already running")
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Run(context.Background()) }); err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Printf("[Export] Scheduled daily export with schedule: %s", s.schedule)
	return nil
}

// Stop stops the cron loop and waits up to timeout for a running export.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Println("[Export] Scheduler stopped")
	case <-time.After(timeout):
		s.logger.Println("[Export] Scheduler stop timed out")
	}
}

// Run exports the current day once.
func (s *Scheduler) Run(ctx context.Context) {
	start := s.now()
	path, err := s.exporter.ExportToday(ctx, start)

	s.mu.Lock()
	s.lastRun = start
	s.lastErr = err
	s.mu.Unlock()

	switch {
	case err != nil:
		s.logger.Printf("[Export] Daily export failed: %v", err)
	case path == "":
		s.logger.Printf("[Export] No attendance for %s, nothing exported", s.exporter.ledger.DateOf(start))
	default:
		s.logger.Printf("[Export] Wrote %s", path)
	}
}

// LastRun returns when the export last ran and its error.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}
