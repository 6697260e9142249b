package middleware

import (
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/requestdata"
  "github.com/sineva-org/sineva-backend/internal/services"
)

type AuthMiddleware struct {
  log               *logger.Logger
  authService       services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  middlewareLogger := log.With("middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// RequireAuth rejects requests without a session token (401) or with one that
// fails verification (403).
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractToken(c)
    if tokenString == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No token provided"})
      return
    }
    ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
    if err != nil {
      am.log.Debug("Rejected session token", "error", err)
      c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": services.ErrInvalidToken.Error()})
      return
    }
    rd := requestdata.GetRequestData(ctx)
    if rd == nil || rd.UserID == uuid.Nil {
      c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": services.ErrInvalidToken.Error()})
      return
    }
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}

// extractToken reads Authorization, falling back to the token header. A
// "Bearer " prefix is optional.
func extractToken(c *gin.Context) string {
  raw := c.GetHeader("Authorization")
  if raw == "" {
    raw = c.GetHeader("token")
  }
  raw = strings.TrimSpace(raw)
  if len(raw) > 7 && strings.EqualFold(raw[:7], "Bearer ") {
    raw = strings.TrimSpace(raw[7:])
  }
  return raw
}
