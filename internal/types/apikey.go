package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// APIKeyRecord holds one user's provider keys. One row per user; updates
// merge against the existing row so saving one key never clears siblings.
type APIKeyRecord struct {
  gorm.Model
  ID            uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID        uuid.UUID       `gorm:"uniqueIndex;not null" json:"userId"`
  User          *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  OpenAIKey     string          `gorm:"column:openai_key" json:"-"`
  DeepseekKey   string          `gorm:"column:deepseek_key" json:"-"`
  GrokKey       string          `gorm:"column:grok_key" json:"-"`
  Service       string          `gorm:"column:service;default:openai" json:"service"`

  CreatedAt     time.Time       `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt     time.Time       `gorm:"not null;default:now()" json:"updatedAt"`
}

func (APIKeyRecord) TableName() string {
  return "api_key"
}
