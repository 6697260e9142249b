package db

import (
  "context"
  "fmt"
  "time"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  gormlogger "gorm.io/gorm/logger"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/types"
)

type PostgresService struct {
  db *gorm.DB
  log *logger.Logger
}

func NewPostgresService(cfg config.PostgresConfig, log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")
  serviceLog.Debug("Postgres settings loaded", "host", cfg.Host, "port", cfg.Port, "user", cfg.User, "dbname", cfg.Name)

  //1) Attempt DB Connection
  serviceLog.Info("Attempting to connect to Postgres DB now...")
  db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
    Logger: gormlogger.Default.LogMode(gormlogger.Warn),
  })
  if err != nil {
    serviceLog.Error("Failed to connect to Postgres DB", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres DB: %w", err)
  }

  //2) Pool Settings
  sqlDB, err := db.DB()
  if err != nil {
    return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
  }
  sqlDB.SetMaxOpenConns(20)
  sqlDB.SetMaxIdleConns(5)
  sqlDB.SetConnMaxLifetime(30 * time.Minute)

  //3) Ping
  pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := sqlDB.PingContext(pingCtx); err != nil {
    serviceLog.Error("Postgres ping failed :(", "error", err)
    return nil, fmt.Errorf("postgres ping failed: %w", err)
  }
  serviceLog.Info("Successfully Connected to Postgres DB :)")

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Starting AutoMigrateAll for all GORM models now...")
  if err := Migrate(s.db); err != nil {
    s.log.Error("AutoMigrateAll failed :(", "error", err)
    return err
  }
  s.log.Info("AutoMigrateAll completed successfully :)")
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}

func (s *PostgresService) Close() error {
  sqlDB, err := s.db.DB()
  if err != nil {
    return err
  }
  return sqlDB.Close()
}

// Migrate creates or updates every table. Image.user_id cascades on
// auth_user deletion.
func Migrate(db *gorm.DB) error {
  if err := db.AutoMigrate(
    &types.AuthUser{},
    &types.Image{},
  ); err != nil {
    return fmt.Errorf("auto migrate failed: %w", err)
  }
  return nil
}
