package metrics

import (
  "strings"
  "testing"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/testutil"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func TestCountersByResult(t *testing.T) {
  reg := prometheus.NewRegistry()
  m := New(reg)

  m.OTPRequest(ResultSent)
  m.OTPRequest(ResultSent)
  m.OTPVerification(ResultInvalid)
  m.CleanupTask(ResultDeleted)
  m.ImageGeneration(ResultTextOnly)

  assert.Equal(t, 2.0, testutil.ToFloat64(m.otpRequests.WithLabelValues(ResultSent)))
  assert.Equal(t, 1.0, testutil.ToFloat64(m.otpVerifications.WithLabelValues(ResultInvalid)))

  expected := `
# HELP sineva_cleanup_tasks_total Processed delete-unverified tasks by outcome.
# TYPE sineva_cleanup_tasks_total counter
sineva_cleanup_tasks_total{result="deleted"} 1
`
  require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "sineva_cleanup_tasks_total"))
}

func TestNilMetricsIsNoop(t *testing.T) {
  var m *Metrics
  assert.NotPanics(t, func() {
    m.OTPRequest(ResultSent)
    m.OTPVerification(ResultVerified)
    m.CleanupTask(ResultKept)
    m.ImageGeneration(ResultError)
  })
}
