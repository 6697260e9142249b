package db

import (
  "testing"

  "github.com/alicebob/miniredis/v2"
  "github.com/glebarez/sqlite"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/types"
)

func TestNewRedisClientPings(t *testing.T) {
  mr := miniredis.RunT(t)
  rdb, err := NewRedisClient(config.RedisConfig{Host: mr.Host(), Port: mr.Port()}, logger.NewNop())
  require.NoError(t, err)
  defer rdb.Close()
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
  mr := miniredis.RunT(t)
  host, port := mr.Host(), mr.Port()
  mr.Close()

  _, err := NewRedisClient(config.RedisConfig{Host: host, Port: port}, logger.NewNop())
  assert.Error(t, err)
}

func TestMigrateCreatesTables(t *testing.T) {
  gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
  require.NoError(t, err)
  sqlDB, err := gdb.DB()
  require.NoError(t, err)
  sqlDB.SetMaxOpenConns(1)

  require.NoError(t, Migrate(gdb))
  assert.True(t, gdb.Migrator().HasTable(&types.AuthUser{}))
  assert.True(t, gdb.Migrator().HasTable(&types.Image{}))
  assert.True(t, gdb.Migrator().HasIndex(&types.AuthUser{}, "idx_auth_user_email"))

  // Running twice is a no-op.
  require.NoError(t, Migrate(gdb))
}
