package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/services"
)

type AuthHandler struct {
  log             *logger.Logger
  authService     services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
  return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

func (ah *AuthHandler) SendOTP(c *gin.Context) {
  var req struct {
    Email           string          `json:"email" form:"email"`
  }
  if err := c.ShouldBind(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": services.ErrEmailRequired.Error()})
    return
  }
  if err := ah.authService.SendOTP(c.Request.Context(), req.Email); err != nil {
    respondError(c, ah.log, err, false)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent to your email"})
}

func (ah *AuthHandler) Validate(c *gin.Context) {
  var req struct {
    Email           string          `json:"email" form:"email"`
    OTP             string          `json:"otp" form:"otp"`
  }
  if err := c.ShouldBind(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": services.ErrOTPRequired.Error()})
    return
  }
  token, err := ah.authService.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
  if err != nil {
    respondError(c, ah.log, err, false)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP verified successfully", "token": token})
}
