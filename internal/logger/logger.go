package logger

import (
  "fmt"
  "os"
  "strings"

  "go.uber.org/zap"
  "go.uber.org/zap/zapcore"
  "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a key/value logger: log.Info("msg", "key", value, ...).
type Logger struct {
  sugar       *zap.SugaredLogger
}

// New builds a logger for the given mode ("development" or "production").
// When logFile is not empty every entry is also written to a rotating file.
func New(mode string, logFile string) (*Logger, error) {
  mode = strings.ToLower(strings.TrimSpace(mode))

  var encoderConfig zapcore.EncoderConfig
  var encoder zapcore.Encoder
  level := zap.InfoLevel
  switch mode {
  case "development", "dev", "":
    encoderConfig = zap.NewDevelopmentEncoderConfig()
    encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    encoder = zapcore.NewConsoleEncoder(encoderConfig)
    level = zap.DebugLevel
  case "production", "prod":
    encoderConfig = zap.NewProductionEncoderConfig()
    encoderConfig.TimeKey = "timestamp"
    encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    encoder = zapcore.NewJSONEncoder(encoderConfig)
  default:
    return nil, fmt.Errorf("unknown log mode %q, use 'development' or 'production'", mode)
  }

  cores := []zapcore.Core{
    zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
  }
  if logFile != "" {
    fileEncoderConfig := zap.NewProductionEncoderConfig()
    fileEncoderConfig.TimeKey = "timestamp"
    fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    fileWriter := zapcore.AddSync(&lumberjack.Logger{
      Filename:   logFile,
      MaxSize:    10, // MB
      MaxBackups: 7,
      MaxAge:     28, // days
      Compress:   true,
    })
    cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), fileWriter, level))
  }

  base := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
  return &Logger{sugar: base.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
  return &Logger{sugar: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger, mostly for tests using zaptest/observer.
func FromZap(z *zap.Logger) *Logger {
  return &Logger{sugar: z.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
  return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
  l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
  l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
  l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
  l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
  l.sugar.Fatalw(msg, keysAndValues...)
}

func (l *Logger) Sync() error {
  return l.sugar.Sync()
}
