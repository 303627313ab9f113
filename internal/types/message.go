package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

const (
  SenderUser = "user"
  SenderBot  = "bot"
)

// Message rows are append-only; the transient "Thinking..." placeholder is
// replaced in memory before anything is persisted.
type Message struct {
  gorm.Model
  ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  ConversationID  uuid.UUID         `gorm:"index;not null" json:"conversationId"`
  Conversation    *Conversation     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"-"`

  Content         string            `gorm:"type:text;not null;column:content" json:"content"`
  Sender          string            `gorm:"not null;column:sender" json:"sender"`
  Role            string            `gorm:"column:role" json:"role"`
  Persona         *string           `gorm:"column:persona" json:"persona,omitempty"`

  CreatedAt       time.Time         `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt       time.Time         `gorm:"not null;default:now()" json:"-"`
}

func (Message) TableName() string {
  return "message"
}

// RoleForSender maps the chat sender tag to the provider wire role.
func RoleForSender(sender string) string {
  if sender == SenderUser {
    return "user"
  }
  return "assistant"
}
