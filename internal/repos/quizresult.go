package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type QuizResultRepo interface {
  Create(ctx context.Context, tx *gorm.DB, result *types.QuizResult) (*types.QuizResult, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.QuizResult, error)
  GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, quizType string) ([]*types.QuizResult, error)
  BestPercentage(ctx context.Context, tx *gorm.DB, userID uuid.UUID, quizType string) (*int, error)
}

type quizResultRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuizResultRepo(db *gorm.DB, baseLog *logger.Logger) QuizResultRepo {
  return &quizResultRepo{
    db:  db,
    log: baseLog.With("repo", "QuizResultRepo"),
  }
}

func (qrr *quizResultRepo) Create(ctx context.Context, tx *gorm.DB, result *types.QuizResult) (*types.QuizResult, error) {
  if tx == nil {
    tx = qrr.db
  }
  if result.ID == uuid.Nil {
    result.ID = uuid.New()
  }
  if err := tx.WithContext(ctx).Create(result).Error; err != nil {
    qrr.log.Error("failed to create quiz result", "userID", result.UserID, "error", err)
    return nil, err
  }
  return result, nil
}

func (qrr *quizResultRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.QuizResult, error) {
  if tx == nil {
    tx = qrr.db
  }
  if limit <= 0 {
    limit = 50
  }
  var results []*types.QuizResult
  if err := tx.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("completed_at DESC").
    Limit(limit).
    Find(&results).Error; err != nil {
    qrr.log.Error("failed to get quiz results by user id", "error", err)
    return nil, err
  }
  return results, nil
}

func (qrr *quizResultRepo) GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, quizType string) ([]*types.QuizResult, error) {
  if tx == nil {
    tx = qrr.db
  }
  var results []*types.QuizResult
  if err := tx.WithContext(ctx).
    Where("user_id = ? AND quiz_type = ?", userID, quizType).
    Order("completed_at DESC").
    Find(&results).Error; err != nil {
    qrr.log.Error("failed to get quiz results by type", "quizType", quizType, "error", err)
    return nil, err
  }
  return results, nil
}

// BestPercentage returns nil when the user has no attempts for the type.
func (qrr *quizResultRepo) BestPercentage(ctx context.Context, tx *gorm.DB, userID uuid.UUID, quizType string) (*int, error) {
  if tx == nil {
    tx = qrr.db
  }
  var result types.QuizResult
  err := tx.WithContext(ctx).
    Where("user_id = ? AND quiz_type = ?", userID, quizType).
    Order("percentage DESC").
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    qrr.log.Error("failed to get best percentage", "quizType", quizType, "error", err)
    return nil, err
  }
  return &result.Percentage, nil
}
