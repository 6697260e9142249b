package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/services"
)

type UploadHandler struct {
  log             *logger.Logger
  imageService    services.ImageService
  maxBytes        int64
}

func NewUploadHandler(log *logger.Logger, imageService services.ImageService, maxBytes int64) *UploadHandler {
  return &UploadHandler{log: log.With("handler", "UploadHandler"), imageService: imageService, maxBytes: maxBytes}
}

// Upload stores a multipart "image" under user_uploads.
func (uh *UploadHandler) Upload(c *gin.Context) {
  fh, err := c.FormFile("image")
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
    return
  }
  file, err := readUpload(fh, uh.maxBytes)
  if err == nil {
    var imageURL string
    imageURL, err = uh.imageService.UploadUserImage(c.Request.Context(), file)
    if err == nil {
      c.JSON(http.StatusCreated, gin.H{"imageUrl": imageURL})
      return
    }
  }
  if errors.Is(err, services.ErrUnsupportedImage) || errors.Is(err, services.ErrImageTooLarge) {
    c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
    return
  }
  uh.log.Error("Upload failed", "error", err)
  c.JSON(http.StatusInternalServerError, gin.H{"message": "Upload failed", "error": err.Error()})
}
