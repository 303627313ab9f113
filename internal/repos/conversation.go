package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type ConversationRepo interface {
  Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error)
  UpdatePersona(ctx context.Context, tx *gorm.DB, id uuid.UUID, persona string) error
  Touch(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
  Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type conversationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
  return &conversationRepo{
    db:  db,
    log: baseLog.With("repo", "ConversationRepo"),
  }
}

func (cr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  if conversation.ID == uuid.Nil {
    conversation.ID = uuid.New()
  }
  if err := tx.WithContext(ctx).Create(conversation).Error; err != nil {
    cr.log.Error("failed to create conversation", "error", err)
    return nil, err
  }
  return conversation, nil
}

// GetByID returns nil (not an error) when no conversation has the id.
func (cr *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var c types.Conversation
  if err := tx.WithContext(ctx).
    Where("id = ?", id).
    First(&c).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &c, nil
}

// GetByUserID returns the user's conversations newest-activity first.
func (cr *conversationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var conversations []*types.Conversation
  if err := tx.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("updated_at DESC").
    Find(&conversations).Error; err != nil {
    cr.log.Error("failed to get conversations by user id", "error", err)
    return nil, err
  }
  return conversations, nil
}

func (cr *conversationRepo) UpdatePersona(ctx context.Context, tx *gorm.DB, id uuid.UUID, persona string) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ?", id).
    Update("persona", persona).Error; err != nil {
    cr.log.Error("failed to update conversation persona", "conversationID", id, "error", err)
    return err
  }
  return nil
}

func (cr *conversationRepo) Touch(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ?", id).
    Update("updated_at", time.Now()).Error; err != nil {
    cr.log.Error("failed to touch conversation", "conversationID", id, "error", err)
    return err
  }
  return nil
}

func (cr *conversationRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).Unscoped().
    Where("id = ?", id).
    Delete(&types.Conversation{}).Error; err != nil {
    cr.log.Error("failed to delete conversation", "conversationID", id, "error", err)
    return err
  }
  return nil
}
