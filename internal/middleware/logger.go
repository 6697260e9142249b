package middleware

import (
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/sineva-org/sineva-backend/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger writes one access log line per request and echoes a request id.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
  accessLog := log.With("middleware", "RequestLogger")
  return func(c *gin.Context) {
    requestID := c.GetHeader(RequestIDHeader)
    if requestID == "" {
      requestID = uuid.NewString()
    }
    c.Set("request_id", requestID)
    c.Header(RequestIDHeader, requestID)

    start := time.Now()
    c.Next()

    accessLog.Info("Request completed",
      "request_id", requestID,
      "method", c.Request.Method,
      "path", c.Request.URL.Path,
      "status", c.Writer.Status(),
      "duration", time.Since(start),
      "size", c.Writer.Size(),
      "client_ip", c.ClientIP(),
      "user_agent", c.Request.UserAgent(),
    )
  }
}
