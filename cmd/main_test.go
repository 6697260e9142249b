package main

import (
  "testing"
  "time"

  "github.com/alicebob/miniredis/v2"
  "github.com/glebarez/sqlite"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/db"
  "github.com/sineva-org/sineva-backend/internal/logger"
)

type sqliteStore struct {
  db      *gorm.DB
  closed  bool
}

func (s *sqliteStore) AutoMigrateAll() error { return db.Migrate(s.db) }
func (s *sqliteStore) DB() *gorm.DB            { return s.db }
func (s *sqliteStore) Close() error {
  s.closed = true
  sqlDB, err := s.db.DB()
  if err != nil {
    return err
  }
  return sqlDB.Close()
}

func useSQLite(t *testing.T) *sqliteStore {
  t.Helper()
  gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
  require.NoError(t, err)
  sqlDB, err := gdb.DB()
  require.NoError(t, err)
  sqlDB.SetMaxOpenConns(1)
  store := &sqliteStore{db: gdb}

  prev := openPostgres
  openPostgres = func(cfg config.PostgresConfig, log *logger.Logger) (postgresStore, error) {
    return store, nil
  }
  t.Cleanup(func() { openPostgres = prev })
  return store
}

func TestRunReturnsConfigError(t *testing.T) {
  t.Setenv("JWT_SECRET", "")
  t.Setenv("OTP_SECRET", "")
  err := run()
  require.Error(t, err)
  assert.ErrorIs(t, err, config.ErrMissingSecret)
}

func TestRunReleasesConnectionsOnLateStartupFailure(t *testing.T) {
  mr := miniredis.RunT(t)
  store := useSQLite(t)

  t.Setenv("JWT_SECRET", "jwt-secret")
  t.Setenv("OTP_SECRET", "otp-secret")
  t.Setenv("REDIS_HOST", mr.Host())
  t.Setenv("REDIS_PORT", mr.Port())
  t.Setenv("SENDGRID_API_KEY", "")

  // Postgres, Redis, the queue client and the worker are all up by the time
  // the email service rejects the missing API key.
  err := run()
  require.Error(t, err)
  assert.Contains(t, err.Error(), "EmailService")

  assert.True(t, store.closed)
  assert.Eventually(t, func() bool {
    return mr.CurrentConnectionCount() == 0
  }, 5*time.Second, 50*time.Millisecond)
}
