package services

import (
  "context"
  "time"

  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/localstore"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/normalization"
  "github.com/greenbot-org/greenbot-backend/internal/repos"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
  "github.com/greenbot-org/greenbot-backend/internal/types"
  "github.com/greenbot-org/greenbot-backend/internal/utils"
)

type JWTClaims struct {
  jwt.RegisteredClaims
}

type AuthService interface {
  RegisterUser(ctx context.Context, user *types.User) error
  Login(ctx context.Context, email, password string) (string, string, error)
  Refresh(ctx context.Context) (string, string, error)
  Logout(ctx context.Context) error

  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)

  GetAccessTTL() time.Duration
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  avatarService AvatarService
  emailService  EmailService
  localStore    *localstore.Store
  jwtSecretKey  string
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  avatarService AvatarService,
  emailService EmailService,
  localStore *localstore.Store,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    avatarService: avatarService,
    emailService:  emailService,
    localStore:    localStore,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
  as.log.Info("Starting Register User now...")

  //1) Normalize User Fields
  utils.NormalizeUserFields(ctx, user)

  //2) Checks on user fields
  if vErr := utils.InputValidation(ctx, "registration", as.userRepo, as.log, user, "", ""); vErr != nil {
    return vErr
  }

  //3) Hash Password
  if hErr := utils.HashPassword(ctx, as.log, user); hErr != nil {
    return hErr
  }

  //4) Transaction Body
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    user.ID = uuid.New()
    if as.avatarService != nil {
      if avatarErr := as.avatarService.CreateAndUploadUserAvatar(ctx, tx, user); avatarErr != nil {
        as.log.Warn("Failure to create and upload user avatar, continuing without one.", "error", avatarErr)
      }
    }
    createdUsers, cUErr := as.userRepo.Create(ctx, tx, []*types.User{user})
    if cUErr != nil {
      as.log.Warn("Failure from AuthService -> UserRepo to create final user", "error", cUErr)
      return apperr.Wrap(apperr.PersistenceError, "failed to create user", cUErr)
    }
    if len(createdUsers) == 0 {
      as.log.Warn("Failure to actually create user from AuthService")
      return apperr.New(apperr.PersistenceError, "failed to create user")
    }
    return nil
  }); err != nil {
    return err
  }

  //5) Welcome email is best effort, a send failure never fails registration
  if as.emailService != nil {
    if eErr := as.emailService.SendWelcomeEmail(ctx, user); eErr != nil {
      as.log.Warn("Failed to send welcome email, continuing.", "error", eErr, "email", user.Email)
    }
  }
  return nil
}

func (as *authService) Login(ctx context.Context, userEmail, userPassword string) (string, string, error) {
  //1) Normalize Input
  email := normalization.ParseInputString(userEmail)

  //2) Input Validations
  if vErr := utils.InputValidation(ctx, "login", as.userRepo, as.log, &types.User{}, email, userPassword); vErr != nil {
    return "", "", vErr
  }

  //3) Find User By Email
  users, uSErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if uSErr != nil {
    as.log.Warn("Failure to retrieve user by email, Cannot proceed. Returning error.", "error", uSErr)
    return "", "", apperr.Wrap(apperr.PersistenceError, "error retrieving user by email", uSErr)
  }
  if len(users) == 0 {
    as.log.Warn("Invalid email, no users returned", "email", email)
    return "", "", apperr.New(apperr.ValidationError, "invalid email or password")
  }
  user := users[0]
  if hErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(userPassword)); hErr != nil {
    as.log.Warn("Invalid password, user password and hash dont match, Cannot proceed. Returning error.")
    return "", "", apperr.New(apperr.ValidationError, "invalid email or password")
  }

  //4) Issue Tokens
  var accessToken string
  var refreshToken string
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundTokens, fTErr := as.userTokenRepo.GetByUserIDs(ctx, tx, []uuid.UUID{user.ID})
    if fTErr != nil {
      as.log.Warn("Failed to check whether user already has user tokens, Cannot proceed. Returning error.", "error", fTErr)
      return apperr.Wrap(apperr.PersistenceError, "failed to check existing user tokens", fTErr)
    }
    expired := make([]*types.UserToken, 0, len(foundTokens))
    for _, t := range foundTokens {
      if t != nil && t.ExpiresAt.Before(time.Now()) {
        expired = append(expired, t)
      }
    }
    if len(expired) > 0 {
      if dTErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, expired); dTErr != nil {
        as.log.Warn("Failed to delete expired user tokens, Cannot proceed. Returning error.", "error", dTErr)
        return apperr.Wrap(apperr.PersistenceError, "failed to delete expired user tokens", dTErr)
      }
    }
    tok, genErr := as.generateAccessToken(ctx, tx, user)
    if genErr != nil {
      as.log.Warn("Generate Access Token Error, Cannot proceed. Returning error.", "error", genErr)
      return apperr.Wrap(apperr.AuthRequired, "failed to generate access token", genErr)
    }
    accessToken = tok
    refreshToken = uuid.New().String()
    expiresAt := time.Now().Add(as.refreshTTL)
    userToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  accessToken,
      RefreshToken: refreshToken,
      ExpiresAt:    expiresAt,
    }
    _, cTErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken})
    if cTErr != nil {
      as.log.Warn("Create User Token Error, Cannot proceed. Returning error.", "error", cTErr)
      return apperr.Wrap(apperr.PersistenceError, "failed to create user token", cTErr)
    }
    return nil
  }); err != nil {
    return "", "", err
  }

  //5) Anonymous history never follows a user into an account
  if rd := requestdata.GetRequestData(ctx); rd != nil && rd.AnonSessionID != "" {
    if clErr := as.localStore.Clear(ctx, "anon:"+rd.AnonSessionID); clErr != nil {
      as.log.Warn("Failed to clear anonymous chats for session on login, continuing.", "error", clErr)
    }
  }
  return accessToken, refreshToken, nil
}

func (as *authService) Refresh(ctx context.Context) (string, string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    as.log.Warn("No Request Data found in context, Cannot proceed")
    return "", "", apperr.New(apperr.AuthRequired, "no request data found in context")
  }
  if rd.RefreshToken == "" {
    as.log.Warn("RefreshToken in Request Data in context is an empty string, Cannot proceed")
    return "", "", apperr.New(apperr.AuthRequired, "refresh token is required")
  }

  var accessToken string
  var newRefreshTokenStr string
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundTokens, fTErr := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
    if fTErr != nil {
      as.log.Warn("Error fetching refresh token, Cannot proceed. Returning error.", "error", fTErr)
      return apperr.Wrap(apperr.PersistenceError, "error fetching refresh token", fTErr)
    }
    if len(foundTokens) == 0 || foundTokens[0] == nil {
      as.log.Warn("No user token found for the given refresh token, Cannot proceed.")
      return apperr.New(apperr.AuthRequired, "unknown refresh token")
    }
    existingToken := foundTokens[0]
    if existingToken.ExpiresAt.Before(time.Now()) {
      if dTErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existingToken}); dTErr != nil {
        as.log.Warn("Refresh token expired, error deleting expired refresh token, Cannot proceed. Returning error.", "error", dTErr)
        return apperr.Wrap(apperr.PersistenceError, "refresh token expired, error deleting", dTErr)
      }
      as.log.Warn("Refresh Token Expired, Cannot proceed.")
      return apperr.New(apperr.AuthRequired, "refresh token expired")
    }
    users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existingToken.UserID})
    if uErr != nil {
      as.log.Warn("Failed to load user for refresh, Cannot proceed. Returning error.", "error", uErr)
      return apperr.Wrap(apperr.PersistenceError, "failed to load user for refresh", uErr)
    }
    if len(users) == 0 {
      as.log.Warn("No user found for the given refresh token, Cannot proceed.")
      return apperr.New(apperr.AuthRequired, "no user found for the given refresh token")
    }
    user := users[0]
    tok, genErr := as.generateAccessToken(ctx, tx, user)
    if genErr != nil {
      as.log.Warn("Failed to generate new access token, Cannot proceed. Returning error.", "error", genErr)
      return apperr.Wrap(apperr.AuthRequired, "failed to generate new access token", genErr)
    }
    accessToken = tok
    newRefreshTokenStr = uuid.New().String()
    newUserToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  tok,
      RefreshToken: newRefreshTokenStr,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    }
    _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&newUserToken})
    if cErr != nil {
      as.log.Warn("Failed to create new user token, Cannot proceed. Returning error.", "error", cErr)
      return apperr.Wrap(apperr.PersistenceError, "failed to create new user token", cErr)
    }
    if dErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existingToken}); dErr != nil {
      as.log.Warn("Failed to remove old refresh token, Cannot proceed. Returning error.", "error", dErr)
      return apperr.Wrap(apperr.PersistenceError, "failed to remove old refresh token", dErr)
    }
    return nil
  })
  if err != nil {
    return "", "", err
  }
  return accessToken, newRefreshTokenStr, nil
}

func (as *authService) Logout(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    as.log.Warn("No Request Data found in context, Cannot proceed.")
    return apperr.New(apperr.AuthRequired, "no request data found in context")
  }
  if rd.TokenString == "" {
    as.log.Warn("TokenString in Request Data is an empty string, Cannot proceed.")
    return apperr.New(apperr.AuthRequired, "access token is required")
  }
  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundTokens, fTErr := as.userTokenRepo.GetByAccessTokens(ctx, tx, []string{rd.TokenString})
    if fTErr != nil {
      as.log.Warn("Error finding user token from token string, Cannot proceed. Returning error.", "error", fTErr)
      return apperr.Wrap(apperr.PersistenceError, "error finding user token from token string", fTErr)
    }
    if len(foundTokens) == 0 || foundTokens[0] == nil {
      return nil
    }
    if tDErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{foundTokens[0]}); tDErr != nil {
      as.log.Warn("Error deleting user token, Cannot proceed. Returning error.", "error", tDErr)
      return apperr.Wrap(apperr.PersistenceError, "error deleting user token", tDErr)
    }
    return nil
  })
}

func (as *authService) generateAccessToken(ctx context.Context, tx *gorm.DB, user *types.User) (string, error) {
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, nil
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, apperr.Wrap(apperr.AuthRequired, "failed to parse token", err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, apperr.New(apperr.AuthRequired, "invalid or expired JWT token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, apperr.Wrap(apperr.AuthRequired, "invalid user ID in token", err)
  }
  var refreshTokenStr string
  foundTokens, fTErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
  if fTErr != nil {
    as.log.Warn("Error fetching user token by access token, Cannot proceed. Returning error.", "error", fTErr)
    return ctx, apperr.Wrap(apperr.PersistenceError, "failed to fetch user token by access token", fTErr)
  }
  if len(foundTokens) == 0 || foundTokens[0] == nil {
    return ctx, apperr.New(apperr.AuthRequired, "access token has been revoked")
  }
  refreshTokenStr = foundTokens[0].RefreshToken
  rd := &requestdata.RequestData{
    TokenString:  tokenString,
    RefreshToken: refreshTokenStr,
    UserID:       userID,
  }
  if existing := requestdata.GetRequestData(ctx); existing != nil {
    rd.AnonSessionID = existing.AnonSessionID
  }
  ctx = requestdata.WithRequestData(ctx, rd)
  return ctx, nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
