// Package scheduler runs the periodic background jobs (pending invoice sync,
// marketplace order import).
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config holds scheduler configuration
type Config struct {
	JobTimeout time.Duration
	MaxHistory int
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout: 10 * time.Minute,
		MaxHistory: 100,
	}
}

type entry struct {
	job     Job
	running atomic.Bool
}

// Scheduler runs registered jobs on their intervals. A job never overlaps
// itself: a tick that arrives while the previous run is in flight is skipped.
type Scheduler struct {
	config Config
	logger *zap.Logger

	jobs []*entry

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	historyMu sync.RWMutex
	history   []Run
}

// New creates a scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if config.MaxHistory <= 0 {
		config.MaxHistory = DefaultConfig().MaxHistory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config: config,
		logger: logger,
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Interval <= 0 || job.Run == nil {
		return fmt.Errorf("%w: job needs a name, a positive interval and a run function", ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	for _, e := range s.jobs {
		if e.job.Name == job.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
		}
	}
	s.jobs = append(s.jobs, &entry{job: job})
	return nil
}

// Start starts one ticker goroutine per job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	jobs := s.jobs
	s.mu.Unlock()

	for _, e := range jobs {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(jobs)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for them to return, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler has been started
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Trigger runs a registered job immediately, outside its schedule
func (s *Scheduler) Trigger(ctx context.Context, name string) (Run, error) {
	s.mu.Lock()
	var target *entry
	for _, e := range s.jobs {
		if e.job.Name == name {
			target = e
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return Run{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, target), nil
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	if e.job.RunOnStart {
		s.execute(ctx, e)
	}

	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Job loop stopping", zap.String("job", e.job.Name))
			return
		case <-ticker.C:
			s.execute(ctx, e)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, e *entry) Run {
	run := Run{JobName: e.job.Name, StartedAt: time.Now()}

	if !e.running.CompareAndSwap(false, true) {
		now := time.Now()
		run.Status = RunStatusSkipped
		run.CompletedAt = &now
		s.logger.Warn("Job still running, skipping tick", zap.String("job", e.job.Name))
		s.addToHistory(run)
		return run
	}
	defer e.running.Store(false)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	s.logger.Debug("Job started", zap.String("job", e.job.Name))
	err := e.job.Run(jobCtx)

	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
		s.logger.Error("Job failed",
			zap.String("job", e.job.Name),
			zap.Duration("duration", run.Duration()),
			zap.Error(err),
		)
	} else {
		run.Status = RunStatusSuccess
		s.logger.Info("Job completed",
			zap.String("job", e.job.Name),
			zap.Duration("duration", run.Duration()),
		)
	}
	s.addToHistory(run)
	return run
}

func (s *Scheduler) addToHistory(run Run) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]Run{run}, s.history...)
	if len(s.history) > s.config.MaxHistory {
		s.history = s.history[:s.config.MaxHistory]
	}
}

// History returns the most recent runs, newest first
func (s *Scheduler) History(limit int) []Run {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]Run, limit)
	copy(out, s.history[:limit])
	return out
}
