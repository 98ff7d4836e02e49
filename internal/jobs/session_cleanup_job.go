package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionCleanupJobName is the name of the session cleanup job
const SessionCleanupJobName = "session-cleanup"

// StaleSessionDeleter removes sessions that expired or were revoked before cutoff
type StaleSessionDeleter interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionCleanupJob deletes old sessions once they are past the retention window
type SessionCleanupJob struct {
	sessions  StaleSessionDeleter
	retention time.Duration
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewSessionCleanupJob(sessions StaleSessionDeleter, retention, timeout time.Duration, logger *zap.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{
		sessions:  sessions,
		retention: retention,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Run is called by the scheduler
func (j *SessionCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.Error("session cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.logger.Info("session cleanup completed", zap.Int64("deleted", deleted))
	}
}

// RunOnce deletes every session that ended more than the retention window ago
func (j *SessionCleanupJob) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention).UTC()
	return j.sessions.DeleteStale(ctx, cutoff)
}

// RegisterSessionCleanupJob adds the session cleanup job to the scheduler
func RegisterSessionCleanupJob(scheduler *Scheduler, sessions StaleSessionDeleter, retention, timeout time.Duration, cronExpr string, logger *zap.Logger) error {
	job := NewSessionCleanupJob(sessions, retention, timeout, logger)
	return scheduler.AddJob(SessionCleanupJobName, cronExpr, job.Run)
}
