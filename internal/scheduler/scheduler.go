package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nbadata/ingestion/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is one named step of a scheduled sync
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config configures a Scheduler
type Config struct {
	// Spec is a standard five-field cron expression
	Spec         string
	RunOnStartup bool
}

// Scheduler runs the configured jobs in order on a cron schedule.
// A tick or startup run that begins while another run is in progress is skipped.
type Scheduler struct {
	cfg      Config
	jobs     []Job
	cron     *cron.Cron
	mu       sync.Mutex // held for the duration of a scheduled run
	running  sync.WaitGroup
	stopOnce sync.Once
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, jobs ...Job) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cfg:  cfg,
		jobs: jobs,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start schedules the jobs and, when configured, runs them once immediately
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.Spec, func() { s.runExclusive(ctx, "schedule") }); err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.Spec).
		Int("jobs", len(s.jobs)).
		Msg("Sync scheduled")

	if s.cfg.RunOnStartup {
		s.running.Add(1)
		go func() {
			defer s.running.Done()
			s.runExclusive(ctx, "startup")
		}()
	}

	return nil
}

// Stop stops the scheduler and waits for a running sync to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		log.Info().Msg("Stopping scheduler...")
		<-s.cron.Stop().Done()
		s.running.Wait()
		log.Info().Msg("Scheduler stopped")
	})
}

// runExclusive runs the jobs unless another scheduled run holds the lock
func (s *Scheduler) runExclusive(ctx context.Context, trigger string) {
	if !s.mu.TryLock() {
		log.Warn().Str("trigger", trigger).Msg("Previous sync still running, skipping")
		return
	}
	defer s.mu.Unlock()
	s.RunOnce(ctx)
}

// RunOnce runs every job in order. A failing job is logged and the
// remaining jobs still run. It returns the number of failed jobs.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	start := time.Now()
	defer func() { metrics.RecordWorkerIteration(time.Since(start).Seconds()) }()

	failed := 0
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			log.Info().Str("job", job.Name).Msg("Context cancelled, skipping job")
			failed++
			continue
		}

		jobStart := time.Now()
		if err := job.Run(ctx); err != nil {
			failed++
			log.Error().
				Err(err).
				Str("job", job.Name).
				Dur("duration", time.Since(jobStart)).
				Msg("Scheduled job failed")
			continue
		}
		log.Info().
			Str("job", job.Name).
			Dur("duration", time.Since(jobStart)).
			Msg("Scheduled job complete")
	}

	log.Info().
		Int("jobs", len(s.jobs)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Scheduled sync complete")

	return failed
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
