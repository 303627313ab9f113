package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// Conversation is one thread of messages owned by a single user. Anonymous
// sessions never reach this table; their chats live in the local mirror.
type Conversation struct {
  gorm.Model
  ID          uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID      uuid.UUID         `gorm:"index;not null" json:"userId"`
  User        *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  Title       string            `gorm:"column:title" json:"title"`
  Persona     string            `gorm:"column:persona" json:"persona"`

  CreatedAt   time.Time         `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt   time.Time         `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Conversation) TableName() string {
  return "conversation"
}
