package services

import (
  "context"
  "fmt"
  "io"
  "os"

  "cloud.google.com/go/storage"
  "google.golang.org/api/option"
  "gorm.io/gorm"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
)

type BucketService interface {
  UploadFile(ctx context.Context, tx *gorm.DB, bucketKey string, body io.Reader) error
  GetPublicURL(bucketKey string) string
}

type bucketService struct {
  log        *logger.Logger
  client     *storage.Client
  bucketName string
}

func NewBucketService(ctx context.Context, log *logger.Logger) (BucketService, error) {
  serviceLog := log.With("service", "BucketService")
  bucketName := os.Getenv("GCS_BUCKET_NAME")
  if bucketName == "" {
    return nil, fmt.Errorf("Missing GCS_BUCKET_NAME environment variable")
  }
  var opts []option.ClientOption
  if credsPath := os.Getenv("GCS_CREDENTIALS_FILE"); credsPath != "" {
    opts = append(opts, option.WithCredentialsFile(credsPath))
  }
  client, err := storage.NewClient(ctx, opts...)
  if err != nil {
    return nil, fmt.Errorf("Failed to create GCS client: %w", err)
  }
  return &bucketService{
    log:        serviceLog,
    client:     client,
    bucketName: bucketName,
  }, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, tx *gorm.DB, bucketKey string, body io.Reader) error {
  w := bs.client.Bucket(bs.bucketName).Object(bucketKey).NewWriter(ctx)
  w.ContentType = "image/png"
  if _, err := io.Copy(w, body); err != nil {
    w.Close()
    bs.log.Warn("Failed to write object to bucket", "bucketKey", bucketKey, "error", err)
    return fmt.Errorf("Failed to write object '%s': %w", bucketKey, err)
  }
  if err := w.Close(); err != nil {
    bs.log.Warn("Failed to finalize object upload", "bucketKey", bucketKey, "error", err)
    return fmt.Errorf("Failed to finalize object '%s': %w", bucketKey, err)
  }
  return nil
}

func (bs *bucketService) GetPublicURL(bucketKey string) string {
  return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, bucketKey)
}
