package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/services"
)

const internalErrorMessage = "Internal server error"

var badRequestErrors = []error{
  services.ErrEmailRequired,
  services.ErrInvalidEmail,
  services.ErrOTPRequired,
  services.ErrOTPExpired,
  services.ErrInvalidOTP,
  services.ErrPromptOrImageRequired,
  services.ErrTextOrImageRequired,
  services.ErrDetailsRequired,
  services.ErrUnsupportedImage,
  services.ErrImageTooLarge,
}

// upstreamErrors keep a 500 status but carry their own message.
var upstreamErrors = []error{
  services.ErrNoCandidates,
  services.ErrNoImageInResponse,
  services.ErrNoTextInResponse,
}

func matchSentinel(err error, candidates []error) (error, bool) {
  for _, s := range candidates {
    if errors.Is(err, s) {
      return s, true
    }
  }
  return nil, false
}

// respondError writes the {success:false, message} envelope for err. With
// detail set, unexpected failures also carry an "error" field.
func respondError(c *gin.Context, log *logger.Logger, err error, detail bool) {
  if s, ok := matchSentinel(err, badRequestErrors); ok {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": s.Error()})
    return
  }
  if errors.Is(err, services.ErrImageNotFound) {
    c.JSON(http.StatusNotFound, gin.H{"success": false, "message": services.ErrImageNotFound.Error()})
    return
  }
  if s, ok := matchSentinel(err, upstreamErrors); ok {
    c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": s.Error()})
    return
  }

  log.Error("Request failed", "path", c.FullPath(), "error", err)
  body := gin.H{"success": false, "message": internalErrorMessage}
  if detail {
    if errors.Is(err, services.ErrImageURLFetch) {
      body["error"] = services.ErrImageURLFetch.Error()
    } else {
      body["error"] = err.Error()
    }
  }
  c.JSON(http.StatusInternalServerError, body)
}
