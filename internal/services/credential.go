package services

import (
  "context"

  "gorm.io/gorm"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/normalization"
  "github.com/greenbot-org/greenbot-backend/internal/repos"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
  "github.com/greenbot-org/greenbot-backend/internal/types"
  "github.com/greenbot-org/greenbot-backend/internal/utils"
)

// CredentialUpdate carries the fields of a credential save. Empty key
// fields leave the stored key untouched so saving one provider never
// wipes the others.
type CredentialUpdate struct {
  OpenAIKey   string `json:"openaiKey"`
  DeepseekKey string `json:"deepseekKey"`
  GrokKey     string `json:"grokKey"`
  Service     string `json:"service"`
}

// MaskedCredentials is the only shape credential reads leave the
// server in. Full keys stay server side.
type MaskedCredentials struct {
  OpenAIKey   string `json:"openaiKey"`
  DeepseekKey string `json:"deepseekKey"`
  GrokKey     string `json:"grokKey"`
  Service     string `json:"service"`
}

type CredentialService interface {
  GetCredentials(ctx context.Context) (*types.APIKeyRecord, error)
  SaveCredentials(ctx context.Context, update CredentialUpdate) error
  GetMaskedCredentials(ctx context.Context) (*MaskedCredentials, error)
}

type credentialService struct {
  db         *gorm.DB
  log        *logger.Logger
  apiKeyRepo repos.APIKeyRepo
}

func NewCredentialService(db *gorm.DB, log *logger.Logger, apiKeyRepo repos.APIKeyRepo) CredentialService {
  return &credentialService{
    db:         db,
    log:        log.With("service", "CredentialService"),
    apiKeyRepo: apiKeyRepo,
  }
}

func (cs *credentialService) requireUser(ctx context.Context) (*requestdata.RequestData, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || !rd.Authenticated() {
    cs.log.Warn("Credential access without an authenticated session, Cannot proceed.")
    return nil, apperr.New(apperr.AuthRequired, "You must be logged in to manage API keys.")
  }
  return rd, nil
}

func (cs *credentialService) GetCredentials(ctx context.Context) (*types.APIKeyRecord, error) {
  rd, err := cs.requireUser(ctx)
  if err != nil {
    return nil, err
  }
  rec, err := cs.apiKeyRepo.GetByUserID(ctx, nil, rd.UserID)
  if err != nil {
    cs.log.Warn("Failed to fetch credential record, Cannot proceed.", "error", err)
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to fetch API keys", err)
  }
  return rec, nil
}

// SaveCredentials reads the current record first and merges the update
// into it, so concurrent saves of different providers do not clobber
// each other's keys.
func (cs *credentialService) SaveCredentials(ctx context.Context, update CredentialUpdate) error {
  rd, err := cs.requireUser(ctx)
  if err != nil {
    return err
  }
  return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    rec, err := cs.apiKeyRepo.GetByUserID(ctx, tx, rd.UserID)
    if err != nil {
      cs.log.Warn("Failed to fetch credential record for merge, Cannot proceed.", "error", err)
      return apperr.Wrap(apperr.PersistenceError, "failed to fetch API keys", err)
    }
    if rec == nil {
      rec = &types.APIKeyRecord{UserID: rd.UserID}
    }
    if err := mergeCredentials(rec, update); err != nil {
      return err
    }
    if _, err := cs.apiKeyRepo.Upsert(ctx, tx, rec); err != nil {
      cs.log.Warn("Failed to save credential record, Cannot proceed.", "error", err)
      return apperr.Wrap(apperr.PersistenceError, "failed to save API keys", err)
    }
    cs.log.Info("Saved API keys", "userID", rd.UserID, "service", rec.Service)
    return nil
  })
}

// mergeCredentials folds an update into an existing record. Blank fields in
// the update leave the stored values untouched.
func mergeCredentials(rec *types.APIKeyRecord, update CredentialUpdate) error {
  if key := normalization.ParseInputString(update.OpenAIKey); key != "" {
    rec.OpenAIKey = key
  }
  if key := normalization.ParseInputString(update.DeepseekKey); key != "" {
    rec.DeepseekKey = key
  }
  if key := normalization.ParseInputString(update.GrokKey); key != "" {
    rec.GrokKey = key
  }
  if update.Service != "" {
    provider, err := ParseProvider(update.Service)
    if err != nil {
      return err
    }
    rec.Service = string(provider)
  }
  if rec.Service == "" {
    rec.Service = string(ProviderOpenAI)
  }
  return nil
}

func (cs *credentialService) GetMaskedCredentials(ctx context.Context) (*MaskedCredentials, error) {
  rec, err := cs.GetCredentials(ctx)
  if err != nil {
    return nil, err
  }
  masked := &MaskedCredentials{Service: string(ProviderOpenAI)}
  if rec == nil {
    return masked, nil
  }
  masked.OpenAIKey = utils.MaskKey(rec.OpenAIKey)
  masked.DeepseekKey = utils.MaskKey(rec.DeepseekKey)
  masked.GrokKey = utils.MaskKey(rec.GrokKey)
  if rec.Service != "" {
    masked.Service = rec.Service
  }
  return masked, nil
}
