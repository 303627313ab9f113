package services

import (
  "context"

  "github.com/google/uuid"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/repos"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type MeService interface {
  GetMe(ctx context.Context) (*types.User, error)
}

type meService struct {
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewMeService(log *logger.Logger, userRepo repos.UserRepo) MeService {
  return &meService{
    log:      log.With("service", "MeService"),
    userRepo: userRepo,
  }
}

func (ms *meService) GetMe(ctx context.Context) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperr.New(apperr.AuthRequired, "not authenticated")
  }
  users, err := ms.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    ms.log.Warn("Failed to load current user, Cannot proceed.", "error", err)
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to load current user", err)
  }
  if len(users) == 0 {
    return nil, apperr.New(apperr.AuthRequired, "user not found")
  }
  return users[0], nil
}
