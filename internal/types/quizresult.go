package types

import (
  "time"

  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// QuizResult is immutable once written. attempts_count is bumped by a
// store-side trigger when a quiz type is retaken, not by the application.
type QuizResult struct {
  gorm.Model
  ID                uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID            uuid.UUID         `gorm:"index;not null" json:"userId"`
  User              *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  QuizType          string            `gorm:"not null;column:quiz_type" json:"quizType"`
  QuizTitle         string            `gorm:"column:quiz_title" json:"quizTitle"`
  Score             int               `gorm:"not null;column:score" json:"score"`
  TotalQuestions    int               `gorm:"not null;column:total_questions" json:"totalQuestions"`
  Percentage        int               `gorm:"not null;column:percentage" json:"percentage"`
  TimeTakenSeconds  *int              `gorm:"column:time_taken_seconds" json:"timeTakenSeconds,omitempty"`
  Answers           datatypes.JSON    `gorm:"column:answers" json:"answers,omitempty"`
  AttemptsCount     int               `gorm:"column:attempts_count;default:1" json:"attemptsCount"`

  CompletedAt       time.Time         `gorm:"not null;default:now();column:completed_at" json:"completedAt"`
  CreatedAt         time.Time         `gorm:"not null;default:now()" json:"-"`
  UpdatedAt         time.Time         `gorm:"not null;default:now()" json:"-"`
}

func (QuizResult) TableName() string {
  return "quiz_result"
}

// QuizAnswer is one entry of the Answers JSON payload.
type QuizAnswer struct {
  QuestionID      string    `json:"questionId"`
  SelectedAnswer  int       `json:"selectedAnswer"`
  CorrectAnswer   int       `json:"correctAnswer"`
  IsCorrect       bool      `json:"isCorrect"`
  TimeSpent       *int      `json:"timeSpent,omitempty"`
}
