package utils

import (
  "context"
  "strings"

  "golang.org/x/crypto/bcrypt"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/normalization"
  "github.com/greenbot-org/greenbot-backend/internal/repos"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

func InputValidation(ctx context.Context, ffor string, userRepo repos.UserRepo, log *logger.Logger, user *types.User, email, password string) error {
  validatedFor := normalization.ParseInputString(ffor)
  switch validatedFor {
  case "registration":
    if err := handleRegisterInputValidation(ctx, userRepo, log, user); err != nil {
      return err
    }
  case "login":
    if err := handleLoginInputValidation(ctx, log, email, password); err != nil {
      return err
    }
  default:
    log.Warn("for string is invalid, needs to be either 'registration' or 'login'. Returning error", "for", validatedFor)
    return apperr.Newf(apperr.ValidationError, "validation target must be 'registration' or 'login': '%s'", validatedFor)
  }
  return nil
}

func handleRegisterInputValidation(ctx context.Context, userRepo repos.UserRepo, log *logger.Logger, user *types.User) error {
  if user == nil {
    log.Warn("User is nil, cannot proceed further. Returning error")
    return apperr.New(apperr.ValidationError, "no user given")
  }
  if user.Email == "" {
    log.Warn("Email is empty, cannot proceed further. Returning error")
    return apperr.New(apperr.ValidationError, "an email is required to register")
  }
  if !strings.Contains(user.Email, "@") {
    log.Warn("Email is malformed, cannot proceed further. Returning error", "email", user.Email)
    return apperr.New(apperr.ValidationError, "a valid email is required to register")
  }
  emailExists, err := userRepo.EmailExists(ctx, nil, user.Email)
  if err != nil {
    log.Warn("Failed to check if user email exists, error from UserRepo. Returning an error.", "error", err)
    return apperr.Wrap(apperr.PersistenceError, "failed checking email existence", err)
  }
  if emailExists {
    log.Warn("Email is already in use, cannot continue. Returning an error.", "email", user.Email)
    return apperr.New(apperr.ValidationError, "email is already in use")
  }
  if user.Password == "" {
    log.Warn("Password is empty, cannot proceed further. Returning error")
    return apperr.New(apperr.ValidationError, "a password is required to register")
  }
  if len(user.Password) < 6 {
    log.Warn("Password is too short, cannot proceed further. Returning error")
    return apperr.New(apperr.ValidationError, "password must be at least 6 characters")
  }
  if user.FirstName == "" {
    log.Warn("First Name is empty, cannot proceed further. Returning error")
    return apperr.New(apperr.ValidationError, "a first name is required to register")
  }
  if user.LastName == "" {
    log.Warn("Last Name is empty, cannot proceed further. Returning error")
    return apperr.New(apperr.ValidationError, "a last name is required to register")
  }
  return nil
}

func handleLoginInputValidation(ctx context.Context, log *logger.Logger, email, password string) error {
  if email == "" {
    log.Warn("Email is an empty string, Cannot proceed.")
    return apperr.New(apperr.ValidationError, "email is required to log in")
  }
  if password == "" {
    log.Warn("Password is an empty string, Cannot proceed.")
    return apperr.New(apperr.ValidationError, "password is required to log in")
  }
  return nil
}

func HashPassword(ctx context.Context, log *logger.Logger, user *types.User) error {
  hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
  if err != nil {
    log.Warn("Failure to hash password for user. Returning error", "error", err)
    return apperr.Wrap(apperr.ValidationError, "failed to hash password", err)
  }
  user.Password = string(hashedPassword)
  return nil
}

func NormalizeUserFields(ctx context.Context, user *types.User) {
  user.Email = strings.ToLower(normalization.ParseInputString(user.Email))
  user.FirstName = normalization.ParseInputString(user.FirstName)
  user.LastName = normalization.ParseInputString(user.LastName)
}
