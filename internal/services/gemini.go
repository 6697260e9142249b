package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "net/url"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/logger"
)

type InlineData struct {
  MimeType    string      `json:"mimeType"`
  Data        string      `json:"data"`
}

// Part is either text or base64 inline data.
type Part struct {
  Text        string      `json:"text,omitempty"`
  InlineData  *InlineData `json:"inlineData,omitempty"`
}

type Content struct {
  Role        string      `json:"role,omitempty"`
  Parts       []Part      `json:"parts"`
}

type Candidate struct {
  Content       Content   `json:"content"`
  FinishReason  string    `json:"finishReason,omitempty"`
}

type GenerateResponse struct {
  Candidates  []Candidate `json:"candidates"`
}

type generateRequest struct {
  Contents    []Content   `json:"contents"`
}

// FirstImage returns the first inline data part carrying bytes.
func (c *Candidate) FirstImage() (*InlineData, bool) {
  for _, p := range c.Content.Parts {
    if p.InlineData != nil && p.InlineData.Data != "" {
      return p.InlineData, true
    }
  }
  return nil, false
}

func (c *Candidate) FirstText() (string, bool) {
  for _, p := range c.Content.Parts {
    if p.Text != "" {
      return p.Text, true
    }
  }
  return "", false
}

type GeminiService interface {
  GenerateContent(ctx context.Context, model string, parts []Part) (*GenerateResponse, error)
  ImageModel() string
  TextModel() string
}

type geminiService struct {
  log               *logger.Logger
  client            *http.Client
  baseURL           string
  apiKey            string
  imageModel        string
  textModel         string
}

func NewGeminiService(cfg config.GeminiConfig, log *logger.Logger) (GeminiService, error) {
  serviceLog := log.With("service", "GeminiService")
  if cfg.BaseURL == "" {
    return nil, fmt.Errorf("missing GEMINI_BASE_URL configuration")
  }
  if cfg.APIKey == "" {
    serviceLog.Warn("GEMINI_API_KEY not set; calls might fail or be unauthorized")
  }
  return &geminiService{
    log:        serviceLog,
    client:     &http.Client{Timeout: cfg.Timeout},
    baseURL:    cfg.BaseURL,
    apiKey:     cfg.APIKey,
    imageModel: cfg.ImageModel,
    textModel:  cfg.TextModel,
  }, nil
}

func (gs *geminiService) ImageModel() string { return gs.imageModel }
func (gs *geminiService) TextModel() string  { return gs.textModel }

func (gs *geminiService) GenerateContent(ctx context.Context, model string, parts []Part) (*GenerateResponse, error) {
  body, err := json.Marshal(generateRequest{Contents: []Content{{Parts: parts}}})
  if err != nil {
    return nil, fmt.Errorf("encode gemini request: %w", err)
  }

  reqURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", gs.baseURL, url.PathEscape(model))
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
  if err != nil {
    gs.log.Warn("failed to build new request", "error", err)
    return nil, err
  }
  req.Header.Set("Content-Type", "application/json")
  if gs.apiKey != "" {
    req.Header.Set("x-goog-api-key", gs.apiKey)
  }

  resp, err := gs.client.Do(req)
  if err != nil {
    gs.log.Warn("failed to call gemini", "model", model, "error", err)
    return nil, err
  }
  defer resp.Body.Close()

  bodyBytes, err := io.ReadAll(resp.Body)
  if err != nil {
    gs.log.Warn("failed to read gemini response body", "error", err)
    return nil, err
  }
  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    gs.log.Warn("gemini responded with non-2xx", "statusCode", resp.StatusCode, "body", string(bodyBytes))
    return nil, fmt.Errorf("gemini HTTP %d: %s", resp.StatusCode, string(bodyBytes))
  }

  var out GenerateResponse
  if err := json.Unmarshal(bodyBytes, &out); err != nil {
    gs.log.Warn("failed to decode gemini response", "error", err)
    return nil, fmt.Errorf("decode gemini response: %w", err)
  }
  gs.log.Info("Gemini call success", "model", model, "candidates", len(out.Candidates))
  return &out, nil
}
