package services

import (
  "bytes"
  "context"
  "encoding/base64"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "strings"
  "time"

  "github.com/disintegration/imaging"
  "github.com/google/uuid"
  _ "golang.org/x/image/webp"

  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/metrics"
  "github.com/sineva-org/sineva-backend/internal/repos"
  "github.com/sineva-org/sineva-backend/internal/types"
  "github.com/sineva-org/sineva-backend/internal/utils"
)

const (
  GeneratedImagesFolder = "ai_generated_images"
  UserUploadsFolder     = "user_uploads"

  maxImageDimension     = 2048
)

// UploadedFile is an image received from a client.
type UploadedFile struct {
  Data          []byte
  ContentType   string
}

type CreateImageInput struct {
  Prompt      string
  ImageURL    string
  File        *UploadedFile
}

// CreateImageResult holds either the saved image or, when the model answered
// with prose only, that text.
type CreateImageResult struct {
  Image       *types.Image
  Text        string
}

type UpdateImageInput struct {
  Text        string
  ImageURL    string
  File        *UploadedFile
}

type ImagePage struct {
  Images      []*types.Image
  Total       int64
  Page        int
  Limit       int
}

func (p ImagePage) TotalPages() int {
  return utils.TotalPages(p.Total, p.Limit)
}

type ImageService interface {
  CreateImage(ctx context.Context, userID uuid.UUID, in CreateImageInput) (*CreateImageResult, error)
  UpdateImage(ctx context.Context, userID, imageID uuid.UUID, in UpdateImageInput) (*types.Image, error)
  ListUserImages(ctx context.Context, userID uuid.UUID) ([]*types.Image, error)
  ListUserImagesPage(ctx context.Context, userID uuid.UUID, page, limit int) (*ImagePage, error)
  ListAllImagesPage(ctx context.Context, page, limit int) (*ImagePage, error)
  GeneratePrompts(ctx context.Context, details string) ([]string, error)
  UploadUserImage(ctx context.Context, file *UploadedFile) (string, error)
}

type imageService struct {
  log           *logger.Logger
  imageRepo     repos.ImageRepo
  gemini        GeminiService
  host          ImageHost
  metrics       *metrics.Metrics
  fetchClient   *http.Client
  maxBytes      int64
}

func NewImageService(
  log           *logger.Logger,
  imageRepo     repos.ImageRepo,
  gemini        GeminiService,
  host          ImageHost,
  m             *metrics.Metrics,
  maxBytes      int64,
) ImageService {
  serviceLog := log.With("service", "ImageService")
  return &imageService{
    log:         serviceLog,
    imageRepo:   imageRepo,
    gemini:      gemini,
    host:        host,
    metrics:     m,
    fetchClient: &http.Client{Timeout: 30 * time.Second},
    maxBytes:    maxBytes,
  }
}

//----------------------------------------------------------------------------------------------------------------------
// CreateImage
//----------------------------------------------------------------------------------------------------------------------

func (is *imageService) CreateImage(ctx context.Context, userID uuid.UUID, in CreateImageInput) (*CreateImageResult, error) {
  is.log.Info("Starting Create Image now...", "user", userID)

  prompt := strings.TrimSpace(in.Prompt)
  providedURL := strings.TrimSpace(in.ImageURL)
  if prompt == "" && in.File == nil && providedURL == "" {
    return nil, ErrPromptOrImageRequired
  }

  //1) Reference image, from the upload or the given URL
  var finalURL string
  var reference *InlineData
  if in.File != nil {
    normalized, err := is.normalize(in.File.Data)
    if err != nil {
      return nil, err
    }
    uploadedURL, err := is.host.Upload(ctx, GeneratedImagesFolder, normalized, "image/png")
    if err != nil {
      return nil, fmt.Errorf("Failure to upload reference image: %w", err)
    }
    finalURL = uploadedURL
    reference = &InlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString(normalized)}
  }
  if finalURL == "" && providedURL != "" {
    data, mimeType, err := is.fetch(ctx, providedURL)
    if err != nil {
      is.log.Warn("Failed to fetch reference image", "url", providedURL, "error", err)
      return nil, fmt.Errorf("%w: %v", ErrImageURLFetch, err)
    }
    finalURL = providedURL
    reference = &InlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}
  }

  promptInDb := prompt
  if finalURL != "" {
    promptInDb = strings.TrimSpace(finalURL + " " + prompt)
  }

  //2) Generate or edit when there is something to ask for
  if prompt != "" {
    parts := make([]Part, 0, 2)
    if reference != nil {
      parts = append(parts, Part{InlineData: reference})
    }
    parts = append(parts, Part{Text: prompt})

    resp, err := is.gemini.GenerateContent(ctx, is.gemini.ImageModel(), parts)
    if err != nil {
      is.metrics.ImageGeneration(metrics.ResultError)
      return nil, fmt.Errorf("Failure to call image model: %w", err)
    }
    if len(resp.Candidates) == 0 {
      is.metrics.ImageGeneration(metrics.ResultError)
      return nil, ErrNoCandidates
    }
    candidate := resp.Candidates[0]
    generated, hasImage := candidate.FirstImage()
    if !hasImage {
      if text, ok := candidate.FirstText(); ok {
        is.log.Info("Image model answered with text only", "user", userID)
        is.metrics.ImageGeneration(metrics.ResultTextOnly)
        return &CreateImageResult{Text: text}, nil
      }
      is.metrics.ImageGeneration(metrics.ResultError)
      return nil, ErrNoImageInResponse
    }
    raw, err := base64.StdEncoding.DecodeString(generated.Data)
    if err != nil {
      is.metrics.ImageGeneration(metrics.ResultError)
      return nil, fmt.Errorf("Failure to decode generated image: %w", err)
    }
    generatedURL, err := is.host.Upload(ctx, GeneratedImagesFolder, raw, "image/png")
    if err != nil {
      is.metrics.ImageGeneration(metrics.ResultError)
      return nil, fmt.Errorf("Failure to upload generated image: %w", err)
    }
    is.metrics.ImageGeneration(metrics.ResultSuccess)
    finalURL = generatedURL
  }

  //3) One record per (user, prompt); a repeat replaces the url
  existing, err := is.imageRepo.GetByUserAndPrompt(ctx, nil, userID, promptInDb)
  if err != nil {
    return nil, fmt.Errorf("Failure to look up image: %w", err)
  }
  if existing != nil {
    existing.ImageURL = finalURL
    saved, err := is.imageRepo.Update(ctx, nil, existing)
    if err != nil {
      return nil, fmt.Errorf("Failure to update image: %w", err)
    }
    return &CreateImageResult{Image: saved}, nil
  }
  saved, err := is.imageRepo.Create(ctx, nil, &types.Image{
    UserID:   userID,
    Prompt:   promptInDb,
    ImageURL: finalURL,
  })
  if err != nil {
    return nil, fmt.Errorf("Failure to create image: %w", err)
  }
  is.log.Info("Image saved :)", "id", saved.ID)
  return &CreateImageResult{Image: saved}, nil
}

//----------------------------------------------------------------------------------------------------------------------
// UpdateImage
//----------------------------------------------------------------------------------------------------------------------

func (is *imageService) UpdateImage(ctx context.Context, userID, imageID uuid.UUID, in UpdateImageInput) (*types.Image, error) {
  is.log.Info("Starting Update Image now...", "id", imageID)

  text := strings.TrimSpace(in.Text)
  providedURL := strings.TrimSpace(in.ImageURL)
  if text == "" && in.File == nil && providedURL == "" {
    return nil, ErrTextOrImageRequired
  }

  img, err := is.imageRepo.GetByIDForUser(ctx, nil, imageID, userID)
  if err != nil {
    return nil, fmt.Errorf("Failure to fetch image: %w", err)
  }
  if img == nil {
    return nil, ErrImageNotFound
  }

  var newURL string
  if in.File != nil {
    normalized, err := is.normalize(in.File.Data)
    if err != nil {
      return nil, err
    }
    newURL, err = is.host.Upload(ctx, GeneratedImagesFolder, normalized, "image/png")
    if err != nil {
      return nil, fmt.Errorf("Failure to upload image: %w", err)
    }
  }
  if providedURL != "" {
    newURL = providedURL
  }

  if text != "" {
    img.Prompt = text
  }
  if newURL != "" {
    img.ImageURL = newURL
  }
  updated, err := is.imageRepo.Update(ctx, nil, img)
  if err != nil {
    return nil, fmt.Errorf("Failure to update image: %w", err)
  }
  return updated, nil
}

//----------------------------------------------------------------------------------------------------------------------
// Listing
//----------------------------------------------------------------------------------------------------------------------

func (is *imageService) ListUserImages(ctx context.Context, userID uuid.UUID) ([]*types.Image, error) {
  return is.imageRepo.ListByUser(ctx, nil, userID, true, 0, 0)
}

func (is *imageService) ListUserImagesPage(ctx context.Context, userID uuid.UUID, page, limit int) (*ImagePage, error) {
  total, err := is.imageRepo.CountByUser(ctx, nil, userID)
  if err != nil {
    return nil, err
  }
  images, err := is.imageRepo.ListByUser(ctx, nil, userID, false, utils.Offset(page, limit), limit)
  if err != nil {
    return nil, err
  }
  return &ImagePage{Images: images, Total: total, Page: page, Limit: limit}, nil
}

func (is *imageService) ListAllImagesPage(ctx context.Context, page, limit int) (*ImagePage, error) {
  total, err := is.imageRepo.CountAll(ctx, nil)
  if err != nil {
    return nil, err
  }
  images, err := is.imageRepo.ListAll(ctx, nil, utils.Offset(page, limit), limit)
  if err != nil {
    return nil, err
  }
  return &ImagePage{Images: images, Total: total, Page: page, Limit: limit}, nil
}

//----------------------------------------------------------------------------------------------------------------------
// GeneratePrompts
//----------------------------------------------------------------------------------------------------------------------

const promptGeneratorTemplate = `You are an expert AI prompt generator.
Using the user's input: %q, generate EXACTLY 3 highly detailed image prompts.

Rules:
1. Output must be ONLY a valid JSON array of 3 strings.
2. No markdown, no labels, no explanations.
3. Each prompt should be 1-2 sentences.
4. Make prompts vivid, specific, and visually rich.
5. DO NOT include the user's raw text; reinterpret it creatively.

Example output format (structure only):
[
  "prompt 1...",
  "prompt 2...",
  "prompt 3..."
]

Now generate the 3 prompts.`

func (is *imageService) GeneratePrompts(ctx context.Context, details string) ([]string, error) {
  details = strings.TrimSpace(details)
  if details == "" {
    return nil, ErrDetailsRequired
  }

  resp, err := is.gemini.GenerateContent(ctx, is.gemini.TextModel(), []Part{{Text: fmt.Sprintf(promptGeneratorTemplate, details)}})
  if err != nil {
    return nil, fmt.Errorf("Failure to call text model: %w", err)
  }
  if len(resp.Candidates) == 0 {
    return nil, ErrNoTextInResponse
  }
  raw, ok := resp.Candidates[0].FirstText()
  if !ok {
    return nil, ErrNoTextInResponse
  }
  return ParsePromptList(raw), nil
}

// ParsePromptList reads a JSON array of strings, optionally wrapped in a
// markdown fence, and otherwise falls back to one prompt per non-empty line.
func ParsePromptList(raw string) []string {
  trimmed := strings.TrimSpace(raw)
  if strings.HasPrefix(trimmed, "```") {
    trimmed = strings.TrimPrefix(trimmed, "```json")
    trimmed = strings.TrimPrefix(trimmed, "```")
    trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
    trimmed = strings.TrimSpace(trimmed)
  }
  var prompts []string
  if err := json.Unmarshal([]byte(trimmed), &prompts); err == nil {
    return prompts
  }
  out := []string{}
  for _, line := range strings.Split(raw, "\n") {
    if l := strings.TrimSpace(line); l != "" {
      out = append(out, l)
    }
  }
  return out
}

//----------------------------------------------------------------------------------------------------------------------
// Uploads
//----------------------------------------------------------------------------------------------------------------------

func (is *imageService) UploadUserImage(ctx context.Context, file *UploadedFile) (string, error) {
  if file == nil {
    return "", ErrUnsupportedImage
  }
  normalized, err := is.normalize(file.Data)
  if err != nil {
    return "", err
  }
  imageURL, err := is.host.Upload(ctx, UserUploadsFolder, normalized, "image/png")
  if err != nil {
    return "", fmt.Errorf("Failure to upload image: %w", err)
  }
  return imageURL, nil
}

// normalize decodes any registered format, applies EXIF orientation, fits the
// image within maxImageDimension and re-encodes it as PNG.
func (is *imageService) normalize(data []byte) ([]byte, error) {
  if is.maxBytes > 0 && int64(len(data)) > is.maxBytes {
    return nil, ErrImageTooLarge
  }
  img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
  if err != nil {
    is.log.Warn("Rejected undecodable image", "error", err)
    return nil, ErrUnsupportedImage
  }
  b := img.Bounds()
  if b.Dx() > maxImageDimension || b.Dy() > maxImageDimension {
    img = imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)
  }
  var buf bytes.Buffer
  if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
    return nil, fmt.Errorf("Failure to encode image: %w", err)
  }
  return buf.Bytes(), nil
}

func (is *imageService) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
  req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
  if err != nil {
    return nil, "", err
  }
  resp, err := is.fetchClient.Do(req)
  if err != nil {
    return nil, "", err
  }
  defer resp.Body.Close()
  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    return nil, "", fmt.Errorf("HTTP %d", resp.StatusCode)
  }
  var reader io.Reader = resp.Body
  if is.maxBytes > 0 {
    reader = io.LimitReader(resp.Body, is.maxBytes+1)
  }
  data, err := io.ReadAll(reader)
  if err != nil {
    return nil, "", err
  }
  if is.maxBytes > 0 && int64(len(data)) > is.maxBytes {
    return nil, "", ErrImageTooLarge
  }
  mimeType := resp.Header.Get("Content-Type")
  if mimeType == "" {
    mimeType = "image/jpeg"
  }
  return data, mimeType, nil
}
