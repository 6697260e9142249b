package handlers

import (
  "errors"
  "fmt"
  "io"
  "mime/multipart"
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/requestdata"
  "github.com/sineva-org/sineva-backend/internal/services"
  "github.com/sineva-org/sineva-backend/internal/utils"
)

const textInsteadOfImageMessage = "The model returned text instead of an image. Try rephrasing your prompt."

type ImageHandler struct {
  log             *logger.Logger
  imageService    services.ImageService
  maxBytes        int64
}

func NewImageHandler(log *logger.Logger, imageService services.ImageService, maxBytes int64) *ImageHandler {
  return &ImageHandler{log: log.With("handler", "ImageHandler"), imageService: imageService, maxBytes: maxBytes}
}

type imageView struct {
  ID          uuid.UUID   `json:"id"`
  Prompt      string      `json:"prompt"`
  ImageURL    string      `json:"imageUrl"`
}

func (ih *ImageHandler) CreateImage(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    Prompt          string                  `json:"prompt" form:"prompt"`
    ImageURL        string                  `json:"imageUrl" form:"imageUrl"`
    File            *multipart.FileHeader   `json:"-" form:"file"`
  }
  if err := bindOptional(c, &req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": services.ErrPromptOrImageRequired.Error()})
    return
  }
  file, err := readUpload(req.File, ih.maxBytes)
  if err != nil {
    respondError(c, ih.log, err, true)
    return
  }

  res, err := ih.imageService.CreateImage(c.Request.Context(), rd.UserID, services.CreateImageInput{
    Prompt:   req.Prompt,
    ImageURL: req.ImageURL,
    File:     file,
  })
  if err != nil {
    respondError(c, ih.log, err, true)
    return
  }
  if res.Image == nil {
    c.JSON(http.StatusOK, gin.H{"success": false, "message": textInsteadOfImageMessage, "data": gin.H{"text": res.Text}})
    return
  }
  c.JSON(http.StatusCreated, gin.H{
    "success": true,
    "message": "Image saved successfully",
    "data":    imageView{ID: res.Image.ID, Prompt: res.Image.Prompt, ImageURL: res.Image.ImageURL},
  })
}

func (ih *ImageHandler) UpdateImage(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    Text            string                  `json:"text" form:"text"`
    ImageURL        string                  `json:"imageUrl" form:"imageUrl"`
    File            *multipart.FileHeader   `json:"-" form:"file"`
  }
  if err := bindOptional(c, &req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": services.ErrTextOrImageRequired.Error()})
    return
  }
  file, err := readUpload(req.File, ih.maxBytes)
  if err != nil {
    respondError(c, ih.log, err, true)
    return
  }
  input := services.UpdateImageInput{Text: req.Text, ImageURL: req.ImageURL, File: file}
  if input.Text == "" && input.ImageURL == "" && input.File == nil {
    respondError(c, ih.log, services.ErrTextOrImageRequired, true)
    return
  }

  imageID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    respondError(c, ih.log, services.ErrImageNotFound, true)
    return
  }
  updated, err := ih.imageService.UpdateImage(c.Request.Context(), rd.UserID, imageID, input)
  if err != nil {
    respondError(c, ih.log, err, true)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "message": "Image updated successfully", "data": updated})
}

func (ih *ImageHandler) GetImages(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  images, err := ih.imageService.ListUserImages(c.Request.Context(), rd.UserID)
  if err != nil {
    respondError(c, ih.log, err, true)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "message": "Images fetched successfully", "data": images})
}

func (ih *ImageHandler) GetImagesByUser(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  pageNum, limit := utils.ParsePageParams(c.Query("page"), c.Query("limit"))
  page, err := ih.imageService.ListUserImagesPage(c.Request.Context(), rd.UserID, pageNum, limit)
  if err != nil {
    respondError(c, ih.log, err, true)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "success": true,
    "message": "Images fetched successfully",
    "data":    page.Images,
    "pagination": gin.H{
      "total":       page.Total,
      "page":        page.Page,
      "limit":       page.Limit,
      "totalPages":  page.TotalPages(),
      "hasNextPage": int64(page.Page*page.Limit) < page.Total,
      "hasPrevPage": page.Page > 1,
    },
  })
}

func (ih *ImageHandler) GetAllImages(c *gin.Context) {
  pageNum, limit := utils.ParsePageParams(c.Query("page"), c.Query("limit"))
  page, err := ih.imageService.ListAllImagesPage(c.Request.Context(), pageNum, limit)
  if err != nil {
    respondError(c, ih.log, err, true)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "success": true,
    "message": "All images fetched successfully",
    "data":    page.Images,
    "pagination": gin.H{
      "totalItems": page.Total,
      "totalPages": page.TotalPages(),
      "page":       page.Page,
      "limit":      page.Limit,
    },
  })
}

func (ih *ImageHandler) GeneratePrompts(c *gin.Context) {
  var req struct {
    Details         string          `json:"details" form:"details"`
  }
  if err := bindOptional(c, &req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": services.ErrDetailsRequired.Error()})
    return
  }
  prompts, err := ih.imageService.GeneratePrompts(c.Request.Context(), req.Details)
  if err != nil {
    respondError(c, ih.log, err, true)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "message": "Prompts generated successfully", "data": prompts})
}

// bindOptional binds JSON, urlencoded or multipart bodies. An empty body is
// not an error.
func bindOptional(c *gin.Context, obj interface{}) error {
  if c.Request.ContentLength == 0 && c.ContentType() == "" {
    return nil
  }
  if err := c.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
    return err
  }
  return nil
}

// readUpload loads a multipart file into memory, capped at maxBytes.
func readUpload(fh *multipart.FileHeader, maxBytes int64) (*services.UploadedFile, error) {
  if fh == nil {
    return nil, nil
  }
  if maxBytes > 0 && fh.Size > maxBytes {
    return nil, services.ErrImageTooLarge
  }
  f, err := fh.Open()
  if err != nil {
    return nil, fmt.Errorf("open upload: %w", err)
  }
  defer f.Close()
  data, err := io.ReadAll(f)
  if err != nil {
    return nil, fmt.Errorf("read upload: %w", err)
  }
  contentType := fh.Header.Get("Content-Type")
  if contentType == "" {
    contentType = http.DetectContentType(data)
  }
  return &services.UploadedFile{Data: data, ContentType: strings.ToLower(contentType)}, nil
}
