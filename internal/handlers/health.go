package handlers

import (
  "context"
  "net/http"
  "time"

  "github.com/gin-gonic/gin"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
  checks      map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
  return &HealthHandler{checks: checks}
}

func (hh *HealthHandler) Healthz(c *gin.Context) {
  ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
  defer cancel()

  status := http.StatusOK
  results := gin.H{}
  for name, check := range hh.checks {
    if err := check(ctx); err != nil {
      status = http.StatusServiceUnavailable
      results[name] = err.Error()
      continue
    }
    results[name] = "ok"
  }
  state := "ok"
  if status != http.StatusOK {
    state = "degraded"
  }
  c.JSON(status, gin.H{"status": state, "checks": results})
}

func Root(c *gin.Context) {
  c.String(http.StatusOK, "running")
}

func APIWelcome(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{"message": "Welcome to the API!"})
}
