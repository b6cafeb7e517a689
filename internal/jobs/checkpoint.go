package jobs

import (
	"log/slog"
)

// Checkpointer flushes the SQLite write-ahead log into the main database file
type Checkpointer interface {
	CheckpointWAL(mode string) error
}

// CheckpointJob keeps the WAL file from growing unbounded under steady
// visit ingestion. PASSIVE never blocks readers or writers.
type CheckpointJob struct {
	db     Checkpointer
	logger *slog.Logger
	mode   string
}

func NewCheckpointJob(db Checkpointer, logger *slog.Logger) *CheckpointJob {
	return &CheckpointJob{
		db:     db,
		logger: logger,
		mode:   "PASSIVE",
	}
}

// Run performs a single checkpoint
func (j *CheckpointJob) Run() error {
	if err := j.db.CheckpointWAL(j.mode); err != nil {
		return err
	}
	j.logger.Debug("WAL checkpoint completed", slog.String("mode", j.mode))
	return nil
}
