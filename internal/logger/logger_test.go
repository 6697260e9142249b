package logger

import (
  "path/filepath"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "go.uber.org/zap"
  "go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownMode(t *testing.T) {
  _, err := New("verbose", "")
  require.Error(t, err)
}

func TestNewWithFileSink(t *testing.T) {
  log, err := New("production", filepath.Join(t.TempDir(), "sineva.log"))
  require.NoError(t, err)
  log.Info("hello", "k", "v")
}

func TestWithCarriesFields(t *testing.T) {
  core, logs := observer.New(zap.DebugLevel)
  log := FromZap(zap.New(core)).With("service", "AuthService")

  log.Warn("something odd", "email", "a@b.com")

  entries := logs.All()
  require.Len(t, entries, 1)
  assert.Equal(t, "something odd", entries[0].Message)
  fields := entries[0].ContextMap()
  assert.Equal(t, "AuthService", fields["service"])
  assert.Equal(t, "a@b.com", fields["email"])
}
