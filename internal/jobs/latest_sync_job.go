package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LatestSyncJobName is the name of the latest copy repair job
const LatestSyncJobName = "latest-sync"

// LatestCopySyncer restores missing latest/ objects from their versioned source
type LatestCopySyncer interface {
	SyncLatestCopies(ctx context.Context) (synced int, failed int, err error)
}

// LatestSyncJob repairs latest/ objects whose write failed during an upload
type LatestSyncJob struct {
	syncer  LatestCopySyncer
	timeout time.Duration
	logger  *zap.Logger
}

func NewLatestSyncJob(syncer LatestCopySyncer, timeout time.Duration, logger *zap.Logger) *LatestSyncJob {
	return &LatestSyncJob{syncer: syncer, timeout: timeout, logger: logger}
}

// Run is called by the scheduler
func (j *LatestSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	synced, failed, err := j.syncer.SyncLatestCopies(ctx)
	if err != nil {
		j.logger.Error("latest sync failed",
			zap.Error(err),
			zap.Int("synced", synced),
			zap.Int("failed", failed),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if synced > 0 || failed > 0 {
		j.logger.Info("latest sync completed",
			zap.Int("synced", synced),
			zap.Int("failed", failed),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterLatestSyncJob adds the latest sync job to the scheduler
func RegisterLatestSyncJob(scheduler *Scheduler, syncer LatestCopySyncer, timeout time.Duration, cronExpr string, logger *zap.Logger) error {
	job := NewLatestSyncJob(syncer, timeout, logger)
	return scheduler.AddJob(LatestSyncJobName, cronExpr, job.Run)
}
