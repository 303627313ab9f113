package services

import (
  "context"
  "encoding/json"
  "fmt"
  "math"

  "gorm.io/gorm"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/persona"
  "github.com/greenbot-org/greenbot-backend/internal/repos"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type SaveQuizResultParams struct {
  QuizType       string             `json:"quizType"`
  QuizTitle      string             `json:"quizTitle"`
  Score          int                `json:"score"`
  TotalQuestions int                `json:"totalQuestions"`
  TimeTaken      *int               `json:"timeTaken,omitempty"`
  Answers        []types.QuizAnswer `json:"answers,omitempty"`
}

type QuizTypeStats struct {
  Attempts       int     `json:"attempts"`
  BestScore      int     `json:"bestScore"`
  AverageScore   float64 `json:"averageScore"`
  TotalQuestions int     `json:"totalQuestions"`
}

type QuizService interface {
  SaveResult(ctx context.Context, params SaveQuizResultParams) (*types.QuizResult, error)
  History(ctx context.Context, limit int) ([]*types.QuizResult, error)
  ResultsByType(ctx context.Context, quizType string) ([]*types.QuizResult, error)
  BestScore(ctx context.Context, quizType string) (*int, error)
  Statistics(ctx context.Context) (map[string]*QuizTypeStats, error)
}

type quizService struct {
  db             *gorm.DB
  log            *logger.Logger
  quizResultRepo repos.QuizResultRepo
}

func NewQuizService(db *gorm.DB, log *logger.Logger, quizResultRepo repos.QuizResultRepo) QuizService {
  return &quizService{
    db:             db,
    log:            log.With("service", "QuizService"),
    quizResultRepo: quizResultRepo,
  }
}

func (qs *quizService) requireUser(ctx context.Context) (*requestdata.RequestData, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || !rd.Authenticated() {
    qs.log.Warn("Quiz access without an authenticated session, Cannot proceed.")
    return nil, apperr.New(apperr.AuthRequired, "User not authenticated. Please sign in to save quiz results.")
  }
  return rd, nil
}

func (qs *quizService) SaveResult(ctx context.Context, params SaveQuizResultParams) (*types.QuizResult, error) {
  rd, err := qs.requireUser(ctx)
  if err != nil {
    return nil, err
  }
  if params.QuizType == "" {
    return nil, apperr.New(apperr.ValidationError, "quizType is required")
  }
  if !persona.Valid(persona.ID(params.QuizType)) {
    return nil, apperr.Newf(apperr.ValidationError, "unknown quiz type: %s", params.QuizType)
  }
  if params.TotalQuestions <= 0 {
    return nil, apperr.New(apperr.ValidationError, "totalQuestions must be positive")
  }
  if params.Score < 0 || params.Score > params.TotalQuestions {
    return nil, apperr.New(apperr.ValidationError, "score must be between 0 and totalQuestions")
  }

  title := params.QuizTitle
  if title == "" {
    title = persona.QuizTitle(persona.ID(params.QuizType))
  }
  result := &types.QuizResult{
    UserID:           rd.UserID,
    QuizType:         params.QuizType,
    QuizTitle:        title,
    Score:            params.Score,
    TotalQuestions:   params.TotalQuestions,
    Percentage:       CalculatePercentage(params.Score, params.TotalQuestions),
    TimeTakenSeconds: params.TimeTaken,
    AttemptsCount:    1,
  }
  if len(params.Answers) > 0 {
    raw, mErr := json.Marshal(params.Answers)
    if mErr != nil {
      return nil, apperr.Wrap(apperr.ValidationError, "failed to encode answers", mErr)
    }
    result.Answers = raw
  }
  created, err := qs.quizResultRepo.Create(ctx, nil, result)
  if err != nil {
    qs.log.Warn("Failed to save quiz result, Cannot proceed.", "error", err)
    return nil, apperr.Wrap(apperr.PersistenceError, "Failed to save quiz result", err)
  }
  result = created
  qs.log.Info("Quiz result saved successfully", "resultID", result.ID, "quizType", result.QuizType)
  return result, nil
}

func (qs *quizService) History(ctx context.Context, limit int) ([]*types.QuizResult, error) {
  rd, err := qs.requireUser(ctx)
  if err != nil {
    return nil, err
  }
  results, err := qs.quizResultRepo.GetByUserID(ctx, nil, rd.UserID, limit)
  if err != nil {
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to fetch quiz history", err)
  }
  return results, nil
}

func (qs *quizService) ResultsByType(ctx context.Context, quizType string) ([]*types.QuizResult, error) {
  rd, err := qs.requireUser(ctx)
  if err != nil {
    return nil, err
  }
  results, err := qs.quizResultRepo.GetByUserAndType(ctx, nil, rd.UserID, quizType)
  if err != nil {
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to fetch quiz results by type", err)
  }
  return results, nil
}

func (qs *quizService) BestScore(ctx context.Context, quizType string) (*int, error) {
  rd, err := qs.requireUser(ctx)
  if err != nil {
    return nil, err
  }
  best, err := qs.quizResultRepo.BestPercentage(ctx, nil, rd.UserID, quizType)
  if err != nil {
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to fetch best score", err)
  }
  return best, nil
}

func (qs *quizService) Statistics(ctx context.Context) (map[string]*QuizTypeStats, error) {
  rd, err := qs.requireUser(ctx)
  if err != nil {
    return nil, err
  }
  results, err := qs.quizResultRepo.GetByUserID(ctx, nil, rd.UserID, 0)
  if err != nil {
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to fetch quiz statistics", err)
  }
  stats := make(map[string]*QuizTypeStats)
  totals := make(map[string]int)
  for _, r := range results {
    s, ok := stats[r.QuizType]
    if !ok {
      s = &QuizTypeStats{TotalQuestions: r.TotalQuestions}
      stats[r.QuizType] = s
    }
    s.Attempts++
    if r.Percentage > s.BestScore {
      s.BestScore = r.Percentage
    }
    totals[r.QuizType] += r.Percentage
  }
  for quizType, s := range stats {
    s.AverageScore = float64(totals[quizType]) / float64(s.Attempts)
  }
  return stats, nil
}

func CalculatePercentage(score, total int) int {
  if total <= 0 {
    return 0
  }
  return int(math.Round(float64(score) / float64(total) * 100))
}

// QuizFeedback maps a percentage score to its encouragement tier.
func QuizFeedback(percentage int) string {
  switch {
  case percentage >= 90:
    return "Excellent! You're a sustainability expert!"
  case percentage >= 70:
    return "Great job! You know your stuff!"
  case percentage >= 50:
    return "Good effort! There's always more to learn."
  default:
    return "Keep learning! Sustainability is a journey."
  }
}

func formatQuizResultMessage(score, total int, verdict string) string {
  return fmt.Sprintf("You've completed the quiz with a score of %d/%d! %s", score, total, verdict)
}
