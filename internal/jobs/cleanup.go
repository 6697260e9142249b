package jobs

import (
  "context"
  "fmt"

  "github.com/hibiken/asynq"

  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/metrics"
  "github.com/sineva-org/sineva-backend/internal/queue"
  "github.com/sineva-org/sineva-backend/internal/repos"
)

// CleanupHandler removes a credential record that is still unverified when its
// delete-unverified task fires. Redelivery is harmless: the delete is
// conditional on is_verified=false, so a later run finds nothing to do.
type CleanupHandler struct {
  log           *logger.Logger
  authUserRepo  repos.AuthUserRepo
  metrics       *metrics.Metrics
}

func NewCleanupHandler(authUserRepo repos.AuthUserRepo, m *metrics.Metrics, log *logger.Logger) *CleanupHandler {
  return &CleanupHandler{
    log:          log.With("job", "CleanupHandler"),
    authUserRepo: authUserRepo,
    metrics:      m,
  }
}

func (h *CleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
  payload, err := queue.ParseCleanupPayload(t)
  if err != nil {
    h.log.Warn("Dropping malformed cleanup task", "error", err)
    h.metrics.CleanupTask(metrics.ResultError)
    return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
  }

  deleted, err := h.authUserRepo.DeleteUnverifiedByEmail(ctx, nil, payload.Email)
  if err != nil {
    h.log.Error("Cleanup delete failed, task will be retried", "email", payload.Email, "error", err)
    h.metrics.CleanupTask(metrics.ResultError)
    return err
  }
  if deleted == 0 {
    h.log.Debug("Nothing to clean up", "email", payload.Email)
    h.metrics.CleanupTask(metrics.ResultKept)
    return nil
  }
  h.log.Info("Deleted unverified user", "email", payload.Email)
  h.metrics.CleanupTask(metrics.ResultDeleted)
  return nil
}
