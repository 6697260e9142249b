package jobs

import (
  "context"
  "strings"
  "testing"
  "time"

  "github.com/alicebob/miniredis/v2"
  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/testutil"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/metrics"
  "github.com/sineva-org/sineva-backend/internal/queue"
)

func TestWorkerDeletesOnlyUnverifiedAfterDelay(t *testing.T) {
  ctx := context.Background()
  mr := miniredis.RunT(t)
  redisCfg := config.RedisConfig{Host: mr.Host(), Port: mr.Port()}
  log := logger.NewNop()
  repo := newRepo(t)
  reg := prometheus.NewRegistry()

  _, err := repo.UpsertOTP(ctx, nil, "late@b.com", "ct-late")
  require.NoError(t, err)
  quick, err := repo.UpsertOTP(ctx, nil, "quick@b.com", "ct-quick")
  require.NoError(t, err)

  client := queue.NewClient(redisCfg)
  t.Cleanup(func() { _ = client.Close() })
  scheduler := queue.NewCleanupScheduler(client, time.Second, 3, log)
  require.NoError(t, scheduler.ScheduleCleanup(ctx, "late@b.com"))
  require.NoError(t, scheduler.ScheduleCleanup(ctx, "quick@b.com"))

  // Verified inside the window, so its task must leave it alone.
  ok, err := repo.MarkVerified(ctx, nil, quick.ID, "ct-quick")
  require.NoError(t, err)
  require.True(t, ok)

  worker := queue.NewWorker(redisCfg, log, queue.WithDelayedCheckInterval(100*time.Millisecond))
  worker.Handle(queue.TypeDeleteUnverified, NewCleanupHandler(repo, metrics.New(reg), log))
  require.NoError(t, worker.Start())
  t.Cleanup(worker.Shutdown)

  expected := `
# HELP sineva_cleanup_tasks_total Processed delete-unverified tasks by outcome.
# TYPE sineva_cleanup_tasks_total counter
sineva_cleanup_tasks_total{result="deleted"} 1
sineva_cleanup_tasks_total{result="kept"} 1
`
  assert.Eventually(t, func() bool {
    return testutil.GatherAndCompare(reg, strings.NewReader(expected), "sineva_cleanup_tasks_total") == nil
  }, 15*time.Second, 100*time.Millisecond)

  late, err := repo.GetByEmail(ctx, nil, "late@b.com")
  require.NoError(t, err)
  assert.Nil(t, late)

  kept, err := repo.GetByEmail(ctx, nil, "quick@b.com")
  require.NoError(t, err)
  require.NotNil(t, kept)
  assert.True(t, kept.IsVerified)
}

func TestWorkerLeavesTaskScheduledUntilDelayPasses(t *testing.T) {
  ctx := context.Background()
  mr := miniredis.RunT(t)
  redisCfg := config.RedisConfig{Host: mr.Host(), Port: mr.Port()}
  log := logger.NewNop()
  repo := newRepo(t)

  _, err := repo.UpsertOTP(ctx, nil, "a@b.com", "ct")
  require.NoError(t, err)

  client := queue.NewClient(redisCfg)
  t.Cleanup(func() { _ = client.Close() })
  require.NoError(t, queue.NewCleanupScheduler(client, time.Hour, 3, log).ScheduleCleanup(ctx, "a@b.com"))

  worker := queue.NewWorker(redisCfg, log, queue.WithDelayedCheckInterval(100*time.Millisecond))
  worker.Handle(queue.TypeDeleteUnverified, NewCleanupHandler(repo, nil, log))
  require.NoError(t, worker.Start())
  t.Cleanup(worker.Shutdown)

  time.Sleep(time.Second)
  user, err := repo.GetByEmail(ctx, nil, "a@b.com")
  require.NoError(t, err)
  assert.NotNil(t, user)
}
