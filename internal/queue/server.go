package queue

import (
  "fmt"
  "time"

  "github.com/hibiken/asynq"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/logger"
)

// Worker consumes the cleanup queue with a single goroutine.
type Worker struct {
  log       *logger.Logger
  server    *asynq.Server
  mux       *asynq.ServeMux
}

type WorkerOption func(*asynq.Config)

// WithDelayedCheckInterval sets how often scheduled tasks are moved onto the
// cleanup queue once their delay has passed.
func WithDelayedCheckInterval(d time.Duration) WorkerOption {
  return func(c *asynq.Config) {
    c.DelayedTaskCheckInterval = d
  }
}

func NewWorker(cfg config.RedisConfig, log *logger.Logger, opts ...WorkerOption) *Worker {
  workerLog := log.With("component", "QueueWorker")
  srv := asynq.NewServer(redisOpt(cfg.Address(), cfg.Password, cfg.DB), workerConfig(workerLog, opts...))
  return &Worker{log: workerLog, server: srv, mux: asynq.NewServeMux()}
}

func workerConfig(log *logger.Logger, opts ...WorkerOption) asynq.Config {
  c := asynq.Config{
    Concurrency: 1,
    Queues:      map[string]int{CleanupQueue: 1},
    Logger:      &asynqLogger{log: log},
  }
  for _, opt := range opts {
    opt(&c)
  }
  return c
}

func (w *Worker) Handle(taskType string, h asynq.Handler) {
  w.mux.Handle(taskType, h)
}

func (w *Worker) Start() error {
  w.log.Info("Starting queue worker now...", "queue", CleanupQueue)
  if err := w.server.Start(w.mux); err != nil {
    return fmt.Errorf("start queue worker: %w", err)
  }
  return nil
}

// Shutdown waits for the in-flight task before returning.
func (w *Worker) Shutdown() {
  w.log.Info("Shutting down queue worker now...")
  w.server.Shutdown()
}

type asynqLogger struct {
  log *logger.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal(fmt.Sprint(args...)) }
