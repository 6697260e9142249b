package config

import (
  "errors"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/spf13/viper"
)

type Config struct {
  App           AppConfig
  Postgres      PostgresConfig
  Redis         RedisConfig
  Auth          AuthConfig
  SendGrid      SendGridConfig
  Gemini        GeminiConfig
  Storage       StorageConfig
}

type AppConfig struct {
  Port              string
  LogMode           string
  LogFile           string
  AllowedOrigins    []string
  UploadMaxBytes    int64
}

type PostgresConfig struct {
  Host          string
  Port          string
  User          string
  Password      string
  Name          string
  SSLMode       string
}

func (p PostgresConfig) DSN() string {
  return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
}

type RedisConfig struct {
  Host          string
  Port          string
  Password      string
  DB            int
}

func (r RedisConfig) Address() string {
  return r.Host + ":" + r.Port
}

type AuthConfig struct {
  JWTSecret         string
  TokenTTL          time.Duration
  OTPSecret         string
  CleanupDelay      time.Duration
  CleanupMaxRetry   int
}

type SendGridConfig struct {
  APIKey        string
  FromEmail     string
  FromName      string
}

type GeminiConfig struct {
  APIKey        string
  BaseURL       string
  ImageModel    string
  TextModel     string
  Timeout       time.Duration
}

type StorageConfig struct {
  Bucket            string
  CredentialsFile   string
  PublicBaseURL     string
}

var ErrMissingSecret = errors.New("required secret is not configured")

// Load reads configuration from the environment, with an optional .env file
// in the working directory. Signing and cipher secrets have no defaults.
func Load() (*Config, error) {
  v := viper.New()
  setDefaults(v)

  if _, err := os.Stat(".env"); err == nil {
    v.SetConfigFile(".env")
    v.SetConfigType("env")
    if err := v.ReadInConfig(); err != nil {
      return nil, fmt.Errorf("failed to read .env: %w", err)
    }
  }
  v.AutomaticEnv()

  cfg := &Config{
    App: AppConfig{
      Port:           v.GetString("PORT"),
      LogMode:        v.GetString("LOG_MODE"),
      LogFile:        v.GetString("LOG_FILE"),
      AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
      UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
    },
    Postgres: PostgresConfig{
      Host:     v.GetString("POSTGRES_HOST"),
      Port:     v.GetString("POSTGRES_PORT"),
      User:     v.GetString("POSTGRES_USER"),
      Password: v.GetString("POSTGRES_PASSWORD"),
      Name:     v.GetString("POSTGRES_NAME"),
      SSLMode:  v.GetString("POSTGRES_SSLMODE"),
    },
    Redis: RedisConfig{
      Host:     v.GetString("REDIS_HOST"),
      Port:     v.GetString("REDIS_PORT"),
      Password: v.GetString("REDIS_PASSWORD"),
      DB:       v.GetInt("REDIS_DB"),
    },
    Auth: AuthConfig{
      JWTSecret:       v.GetString("JWT_SECRET"),
      TokenTTL:        v.GetDuration("TOKEN_TTL"),
      OTPSecret:       v.GetString("OTP_SECRET"),
      CleanupDelay:    v.GetDuration("OTP_CLEANUP_DELAY"),
      CleanupMaxRetry: v.GetInt("CLEANUP_MAX_RETRY"),
    },
    SendGrid: SendGridConfig{
      APIKey:    v.GetString("SENDGRID_API_KEY"),
      FromEmail: v.GetString("SENDGRID_FROM_EMAIL"),
      FromName:  v.GetString("SENDGRID_FROM_NAME"),
    },
    Gemini: GeminiConfig{
      APIKey:     v.GetString("GEMINI_API_KEY"),
      BaseURL:    strings.TrimRight(v.GetString("GEMINI_BASE_URL"), "/"),
      ImageModel: v.GetString("GEMINI_IMAGE_MODEL"),
      TextModel:  v.GetString("GEMINI_TEXT_MODEL"),
      Timeout:    v.GetDuration("GEMINI_TIMEOUT"),
    },
    Storage: StorageConfig{
      Bucket:          v.GetString("GCS_BUCKET"),
      CredentialsFile: v.GetString("GCS_CREDENTIALS_FILE"),
      PublicBaseURL:   strings.TrimRight(v.GetString("GCS_PUBLIC_BASE_URL"), "/"),
    },
  }

  if err := cfg.Validate(); err != nil {
    return nil, err
  }
  return cfg, nil
}

func (c *Config) Validate() error {
  if strings.TrimSpace(c.Auth.JWTSecret) == "" {
    return fmt.Errorf("%w: JWT_SECRET", ErrMissingSecret)
  }
  if strings.TrimSpace(c.Auth.OTPSecret) == "" {
    return fmt.Errorf("%w: OTP_SECRET", ErrMissingSecret)
  }
  if c.Auth.TokenTTL <= 0 {
    return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
  }
  if c.Auth.CleanupDelay <= 0 {
    return fmt.Errorf("OTP_CLEANUP_DELAY must be positive, got %s", c.Auth.CleanupDelay)
  }
  return nil
}

func setDefaults(v *viper.Viper) {
  v.SetDefault("PORT", "8080")
  v.SetDefault("LOG_MODE", "development")
  v.SetDefault("LOG_FILE", "")
  v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
  v.SetDefault("UPLOAD_MAX_BYTES", 10<<20)

  v.SetDefault("POSTGRES_HOST", "localhost")
  v.SetDefault("POSTGRES_PORT", "5432")
  v.SetDefault("POSTGRES_USER", "postgres")
  v.SetDefault("POSTGRES_PASSWORD", "")
  v.SetDefault("POSTGRES_NAME", "sineva")
  v.SetDefault("POSTGRES_SSLMODE", "disable")

  v.SetDefault("REDIS_HOST", "localhost")
  v.SetDefault("REDIS_PORT", "6379")
  v.SetDefault("REDIS_PASSWORD", "")
  v.SetDefault("REDIS_DB", 0)

  v.SetDefault("TOKEN_TTL", 30*24*time.Hour)
  v.SetDefault("OTP_CLEANUP_DELAY", 10*time.Minute)
  v.SetDefault("CLEANUP_MAX_RETRY", 5)

  v.SetDefault("SENDGRID_FROM_EMAIL", "no-reply@sineva.ai")
  v.SetDefault("SENDGRID_FROM_NAME", "SINEVA")

  v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
  v.SetDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image")
  v.SetDefault("GEMINI_TEXT_MODEL", "gemini-2.5-flash")
  v.SetDefault("GEMINI_TIMEOUT", 60*time.Second)

  v.SetDefault("GCS_PUBLIC_BASE_URL", "https://storage.googleapis.com")
}

func splitList(raw string) []string {
  var out []string
  for _, part := range strings.Split(raw, ",") {
    if p := strings.TrimSpace(part); p != "" {
      out = append(out, p)
    }
  }
  return out
}
