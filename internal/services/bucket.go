package services

import (
  "bytes"
  "context"
  "fmt"
  "io"

  "cloud.google.com/go/storage"
  "github.com/google/uuid"
  "google.golang.org/api/option"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/logger"
)

// ImageHost stores bytes and hands back a public URL.
type ImageHost interface {
  Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error)
}

type BucketService interface {
  ImageHost
  UploadFile(ctx context.Context, key string, contentType string, r io.Reader) error
  GetPublicURL(key string) string
  Close() error
}

type objectWriterFunc func(ctx context.Context, key string, contentType string) io.WriteCloser

type bucketService struct {
  log             *logger.Logger
  client          *storage.Client
  bucket          string
  publicBaseURL   string
  newWriter       objectWriterFunc
}

func NewBucketService(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (BucketService, error) {
  serviceLog := log.With("service", "BucketService")
  if cfg.Bucket == "" {
    return nil, fmt.Errorf("Missing GCS_BUCKET configuration")
  }
  var opts []option.ClientOption
  if cfg.CredentialsFile != "" {
    opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
  }
  client, err := storage.NewClient(ctx, opts...)
  if err != nil {
    serviceLog.Error("Failed to create storage client", "error", err)
    return nil, fmt.Errorf("Failed to create storage client: %w", err)
  }
  bs := &bucketService{
    log:           serviceLog,
    client:        client,
    bucket:        cfg.Bucket,
    publicBaseURL: cfg.PublicBaseURL,
  }
  bs.newWriter = func(ctx context.Context, key string, contentType string) io.WriteCloser {
    w := client.Bucket(bs.bucket).Object(key).NewWriter(ctx)
    w.ContentType = contentType
    return w
  }
  serviceLog.Info("Storage client ready :)", "bucket", cfg.Bucket)
  return bs, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, contentType string, r io.Reader) error {
  w := bs.newWriter(ctx, key, contentType)
  if _, err := io.Copy(w, r); err != nil {
    _ = w.Close()
    bs.log.Warn("Failed to write object", "key", key, "error", err)
    return fmt.Errorf("write object %s: %w", key, err)
  }
  if err := w.Close(); err != nil {
    bs.log.Warn("Failed to finalize object", "key", key, "error", err)
    return fmt.Errorf("finalize object %s: %w", key, err)
  }
  bs.log.Debug("Object uploaded", "key", key, "contentType", contentType)
  return nil
}

func (bs *bucketService) GetPublicURL(key string) string {
  return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, bs.bucket, key)
}

// Upload writes data to folder/<uuid>.<ext> and returns its public URL.
func (bs *bucketService) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
  key := fmt.Sprintf("%s/%s.%s", folder, uuid.New().String(), extensionFor(contentType))
  if err := bs.UploadFile(ctx, key, contentType, bytes.NewReader(data)); err != nil {
    return "", err
  }
  return bs.GetPublicURL(key), nil
}

func (bs *bucketService) Close() error {
  if bs.client == nil {
    return nil
  }
  return bs.client.Close()
}

func extensionFor(contentType string) string {
  switch contentType {
  case "image/png":
    return "png"
  case "image/jpeg", "image/jpg":
    return "jpg"
  case "image/webp":
    return "webp"
  case "image/gif":
    return "gif"
  default:
    return "bin"
  }
}
