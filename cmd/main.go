package main

import (
  "context"
  "errors"
  "fmt"
  "net/http"
  "os"
  "os/signal"
  "syscall"
  "time"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/collectors"
  "gorm.io/gorm"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/db"
  "github.com/sineva-org/sineva-backend/internal/handlers"
  "github.com/sineva-org/sineva-backend/internal/jobs"
  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/metrics"
  "github.com/sineva-org/sineva-backend/internal/middleware"
  "github.com/sineva-org/sineva-backend/internal/queue"
  "github.com/sineva-org/sineva-backend/internal/repos"
  "github.com/sineva-org/sineva-backend/internal/server"
  "github.com/sineva-org/sineva-backend/internal/services"
  "github.com/sineva-org/sineva-backend/internal/utils"
)

type postgresStore interface {
  AutoMigrateAll() error
  DB() *gorm.DB
  Close() error
}

var openPostgres = func(cfg config.PostgresConfig, log *logger.Logger) (postgresStore, error) {
  ps, err := db.NewPostgresService(cfg, log)
  if err != nil {
    return nil, err
  }
  return ps, nil
}

func main() {
  if err := run(); err != nil {
    fmt.Fprintf(os.Stderr, "sineva: %v\n", err)
    os.Exit(1)
  }
}

// run wires every component and blocks until SIGINT/SIGTERM. Each startup
// failure returns through the deferred closes of what was already opened.
func run() error {
  // Config
  cfg, err := config.Load()
  if err != nil {
    return fmt.Errorf("load config: %w", err)
  }

  // Logger Setup
  log, err := logger.New(cfg.App.LogMode, cfg.App.LogFile)
  if err != nil {
    return fmt.Errorf("init logger: %w", err)
  }
  defer log.Sync()
  log.Info("Config loaded for Main :)", "port", cfg.App.Port, "logMode", cfg.App.LogMode)

  ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
  defer stop()

  // Postgres Setup
  log.Info("Setting Up Postgres from Main now...")
  postgresService, err := openPostgres(cfg.Postgres, log)
  if err != nil {
    log.Error("DB init failed", "error", err)
    return fmt.Errorf("postgres init failed: %w", err)
  }
  defer postgresService.Close()
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    return fmt.Errorf("postgres auto migration failed: %w", err)
  }
  thePG := postgresService.DB()
  log.Info("Postgres Setup From Main Successful :)")

  // Redis Setup
  log.Info("Setting Up Redis from Main now...")
  rdb, err := db.NewRedisClient(cfg.Redis, log)
  if err != nil {
    log.Error("Redis init failed", "error", err)
    return fmt.Errorf("redis init failed: %w", err)
  }
  defer rdb.Close()
  log.Info("Redis Setup From Main Successful :)")

  // Metrics
  registry := prometheus.NewRegistry()
  registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
  m := metrics.New(registry)

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  authUserRepo := repos.NewAuthUserRepo(thePG, log)
  imageRepo := repos.NewImageRepo(thePG, log)
  log.Info("Repositories Set Up From Main Successful :)")

  // Queue Setup
  log.Info("Setting Up Cleanup Queue from Main now...")
  queueClient := queue.NewClient(cfg.Redis)
  defer queueClient.Close()
  scheduler := queue.NewCleanupScheduler(queueClient, cfg.Auth.CleanupDelay, cfg.Auth.CleanupMaxRetry, log)
  worker := queue.NewWorker(cfg.Redis, log)
  worker.Handle(queue.TypeDeleteUnverified, jobs.NewCleanupHandler(authUserRepo, m, log))
  if err := worker.Start(); err != nil {
    log.Error("Cleanup worker failed to start", "error", err)
    return fmt.Errorf("cleanup worker failed to start: %w", err)
  }
  defer worker.Shutdown()
  log.Info("Cleanup Queue Set Up From Main Successful :)")

  // Services Setup
  log.Info("Setting up Services from Main now...")
  otpCipher, err := utils.NewOTPCipher(cfg.Auth.OTPSecret)
  if err != nil {
    log.Error("Could not init OTP cipher", "error", err)
    return fmt.Errorf("could not init OTP cipher: %w", err)
  }
  emailService, err := services.NewEmailService(cfg.SendGrid, int(cfg.Auth.CleanupDelay/time.Minute), log)
  if err != nil {
    log.Error("Could not init EmailService", "error", err)
    return fmt.Errorf("could not init EmailService: %w", err)
  }
  bucketService, err := services.NewBucketService(ctx, cfg.Storage, log)
  if err != nil {
    log.Error("Could not init BucketService", "error", err)
    return fmt.Errorf("could not init BucketService: %w", err)
  }
  defer bucketService.Close()
  geminiService, err := services.NewGeminiService(cfg.Gemini, log)
  if err != nil {
    log.Error("Could not init GeminiService", "error", err)
    return fmt.Errorf("could not init GeminiService: %w", err)
  }
  authService := services.NewAuthService(log, authUserRepo, otpCipher, scheduler, emailService, m, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
  imageService := services.NewImageService(log, imageRepo, geminiService, bucketService, m, cfg.App.UploadMaxBytes)
  log.Info("Services Set Up From Main Successful :)")

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(log, authService)
  imageHandler := handlers.NewImageHandler(log, imageService, cfg.App.UploadMaxBytes)
  uploadHandler := handlers.NewUploadHandler(log, imageService, cfg.App.UploadMaxBytes)
  healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
    "postgres": func(ctx context.Context) error {
      sqlDB, err := thePG.DB()
      if err != nil {
        return err
      }
      return sqlDB.PingContext(ctx)
    },
    "redis": func(ctx context.Context) error {
      return rdb.Ping(ctx).Err()
    },
  })
  log.Info("Handlers Set Up From Main Successful :)")

  // MiddleWare Setup
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router Setup
  log.Info("Setting Up Router from Main now...")
  router := server.NewRouter(server.RouterConfig{
    Log:                  log,
    AllowedOrigins:       cfg.App.AllowedOrigins,
    MaxMultipartMemory:   cfg.App.UploadMaxBytes,
    Gatherer:             registry,
    AuthHandler:          authHandler,
    AuthMiddleware:       authMiddleware,
    ImageHandler:         imageHandler,
    UploadHandler:        uploadHandler,
    HealthHandler:        healthHandler,
  })
  log.Info("Router Set Up From Main Successful :)")

  srv := &http.Server{
    Addr:               ":" + cfg.App.Port,
    Handler:            router,
    ReadHeaderTimeout:  10 * time.Second,
  }
  go func() {
    log.Info("Server listening", "address", srv.Addr)
    if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
      log.Error("Server failed", "error", err)
      stop()
    }
  }()

  <-ctx.Done()

  // On Shutdown
  log.Info("Shutting down now...")
  shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
  defer cancel()
  if err := srv.Shutdown(shutdownCtx); err != nil {
    log.Warn("HTTP server shutdown failed", "error", err)
  }
  log.Info("HTTP server stopped, releasing connections :)")
  return nil
}
