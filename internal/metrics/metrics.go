package metrics

import (
  "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sineva"

// Result label values.
const (
  ResultSent      = "sent"
  ResultVerified  = "verified"
  ResultInvalid   = "invalid"
  ResultExpired   = "expired"
  ResultDeleted   = "deleted"
  ResultKept      = "kept"
  ResultSuccess   = "success"
  ResultTextOnly  = "text_only"
  ResultError     = "error"
)

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
  otpRequests       *prometheus.CounterVec
  otpVerifications  *prometheus.CounterVec
  cleanupTasks      *prometheus.CounterVec
  imageGenerations  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
  m := &Metrics{
    otpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
      Namespace: namespace,
      Name:      "otp_requests_total",
      Help:      "OTP issuance requests by outcome.",
    }, []string{"result"}),
    otpVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
      Namespace: namespace,
      Name:      "otp_verifications_total",
      Help:      "OTP verification attempts by outcome.",
    }, []string{"result"}),
    cleanupTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
      Namespace: namespace,
      Name:      "cleanup_tasks_total",
      Help:      "Processed delete-unverified tasks by outcome.",
    }, []string{"result"}),
    imageGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
      Namespace: namespace,
      Name:      "image_generations_total",
      Help:      "Image model calls by outcome.",
    }, []string{"result"}),
  }
  reg.MustRegister(m.otpRequests, m.otpVerifications, m.cleanupTasks, m.imageGenerations)
  return m
}

func (m *Metrics) OTPRequest(result string) {
  if m == nil {
    return
  }
  m.otpRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) OTPVerification(result string) {
  if m == nil {
    return
  }
  m.otpVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) CleanupTask(result string) {
  if m == nil {
    return
  }
  m.cleanupTasks.WithLabelValues(result).Inc()
}

func (m *Metrics) ImageGeneration(result string) {
  if m == nil {
    return
  }
  m.imageGenerations.WithLabelValues(result).Inc()
}
