package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs database maintenance in the background.
// Implements cartridge.BackgroundWorker.
type Scheduler struct {
	logger   *slog.Logger
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc

	mu        sync.Mutex
	isRunning bool
	wg        sync.WaitGroup

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	checkpointJob *CheckpointJob
}

// NewScheduler creates a scheduler that checkpoints db every interval.
// A non-positive interval disables the scheduler.
func NewScheduler(db Checkpointer, logger *slog.Logger, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:        logger,
		interval:      interval,
		ctx:           ctx,
		cancel:        cancel,
		checkpointJob: NewCheckpointJob(db, logger),
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval <= 0 {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.isRunning = true
	s.logger.Info("Starting WAL checkpoint job", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.executeJobSafely("wal_checkpoint", s.checkpointJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("WAL checkpoint job stopped")
				return
			}
		}
	}()

	return nil
}

// Stop halts all background jobs and waits for the running one to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunNow triggers a checkpoint outside the schedule
func (s *Scheduler) RunNow() {
	s.executeJobSafely("wal_checkpoint", s.checkpointJob.Run)
}
