package queue

import (
  "context"
  "fmt"
  "time"

  "github.com/hibiken/asynq"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/logger"
)

// Enqueuer is the part of *asynq.Client the scheduler needs.
type Enqueuer interface {
  EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewClient(cfg config.RedisConfig) *asynq.Client {
  return asynq.NewClient(redisOpt(cfg.Address(), cfg.Password, cfg.DB))
}

// CleanupScheduler enqueues a delayed delete-unverified task per issued code.
type CleanupScheduler struct {
  log         *logger.Logger
  enqueuer    Enqueuer
  delay       time.Duration
  maxRetry    int
}

func NewCleanupScheduler(enqueuer Enqueuer, delay time.Duration, maxRetry int, log *logger.Logger) *CleanupScheduler {
  return &CleanupScheduler{
    log:      log.With("component", "CleanupScheduler"),
    enqueuer: enqueuer,
    delay:    delay,
    maxRetry: maxRetry,
  }
}

func (s *CleanupScheduler) ScheduleCleanup(ctx context.Context, email string) error {
  task, err := NewDeleteUnverifiedTask(email)
  if err != nil {
    return err
  }
  info, err := s.enqueuer.EnqueueContext(ctx, task,
    asynq.Queue(CleanupQueue),
    asynq.ProcessIn(s.delay),
    asynq.MaxRetry(s.maxRetry),
  )
  if err != nil {
    s.log.Warn("Failed to enqueue cleanup task", "error", err)
    return fmt.Errorf("enqueue %s: %w", TypeDeleteUnverified, err)
  }
  s.log.Info("Cleanup task scheduled", "task", info.ID, "processAt", info.NextProcessAt)
  return nil
}
