package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type MessageRepo interface {
  Append(ctx context.Context, tx *gorm.DB, conversationID string, msg *types.Message) (bool, error)
  GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error)
  Update(ctx context.Context, tx *gorm.DB, msg *types.Message) error
  DeleteByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) error
}

type messageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
  return &messageRepo{
    db:  db,
    log: baseLog.With("repo", "MessageRepo"),
  }
}

// parseConversationID accepts only canonical dashed UUIDs. Placeholder ids
// such as "default" or "loading-<uuid>" never reach the database.
func parseConversationID(conversationID string) (uuid.UUID, bool) {
  if len(conversationID) != 36 {
    return uuid.Nil, false
  }
  cid, err := uuid.Parse(conversationID)
  if err != nil {
    return uuid.Nil, false
  }
  return cid, true
}

// Append persists one message. A missing or non-UUID conversation id (the
// in-memory "default" placeholder before a conversation exists) is a no-op:
// it returns false and logs, never an error.
func (mr *messageRepo) Append(ctx context.Context, tx *gorm.DB, conversationID string, msg *types.Message) (bool, error) {
  if tx == nil {
    tx = mr.db
  }
  cid, ok := parseConversationID(conversationID)
  if !ok {
    mr.log.Warn("invalid conversation id, skipping message save", "conversationID", conversationID)
    return false, nil
  }
  if msg.ID == uuid.Nil {
    msg.ID = uuid.New()
  }
  msg.ConversationID = cid
  if msg.Role == "" {
    msg.Role = types.RoleForSender(msg.Sender)
  }
  if err := tx.WithContext(ctx).Create(msg).Error; err != nil {
    mr.log.Error("failed to create message", "conversationID", conversationID, "error", err)
    return false, err
  }
  return true, nil
}

// GetByConversationID loads a conversation's messages oldest first; callers
// must never reorder them.
func (mr *messageRepo) GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  var msgs []*types.Message
  if err := tx.WithContext(ctx).
    Where("conversation_id = ?", conversationID).
    Order("created_at ASC").
    Find(&msgs).Error; err != nil {
    mr.log.Error("failed to get messages by conversation id", "error", err)
    return nil, err
  }
  return msgs, nil
}

func (mr *messageRepo) Update(ctx context.Context, tx *gorm.DB, msg *types.Message) error {
  if tx == nil {
    tx = mr.db
  }
  if err := tx.WithContext(ctx).Save(msg).Error; err != nil {
    mr.log.Error("failed to update message", "messageID", msg.ID, "error", err)
    return err
  }
  return nil
}

func (mr *messageRepo) DeleteByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) error {
  if tx == nil {
    tx = mr.db
  }
  if err := tx.WithContext(ctx).Unscoped().
    Where("conversation_id = ?", conversationID).
    Delete(&types.Message{}).Error; err != nil {
    mr.log.Error("failed to delete messages by conversation id", "conversationID", conversationID, "error", err)
    return err
  }
  return nil
}
