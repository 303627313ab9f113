package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type APIKeyRepo interface {
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.APIKeyRecord, error)
  Upsert(ctx context.Context, tx *gorm.DB, record *types.APIKeyRecord) (*types.APIKeyRecord, error)
}

type apiKeyRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAPIKeyRepo(db *gorm.DB, baseLog *logger.Logger) APIKeyRepo {
  return &apiKeyRepo{
    db:  db,
    log: baseLog.With("repo", "APIKeyRepo"),
  }
}

// GetByUserID returns nil (not an error) when the user has no record yet.
func (akr *apiKeyRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.APIKeyRecord, error) {
  if tx == nil {
    tx = akr.db
  }
  var record types.APIKeyRecord
  err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    akr.log.Error("failed to get api key record", "userID", userID, "error", err)
    return nil, err
  }
  return &record, nil
}

func (akr *apiKeyRepo) Upsert(ctx context.Context, tx *gorm.DB, record *types.APIKeyRecord) (*types.APIKeyRecord, error) {
  if tx == nil {
    tx = akr.db
  }
  if record.ID == uuid.Nil {
    record.ID = uuid.New()
  }
  if err := tx.WithContext(ctx).Save(record).Error; err != nil {
    akr.log.Error("failed to upsert api key record", "userID", record.UserID, "error", err)
    return nil, err
  }
  return record, nil
}
