package middleware

import (
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
  "github.com/greenbot-org/greenbot-backend/internal/services"
)

type AuthMiddleware struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  middlewareLogger := log.With("middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// ResolveSession attaches request data for any caller that identifies
// itself: a bearer token yields an authenticated session, an
// X-Anon-Session header an anonymous one. Callers with neither pass
// through with no request data; handlers that need a session reject
// them.
func (am *AuthMiddleware) ResolveSession() gin.HandlerFunc {
  return func(c *gin.Context) {
    ctx := c.Request.Context()

    if anonID := strings.TrimSpace(c.GetHeader("X-Anon-Session")); anonID != "" {
      ctx = requestdata.WithRequestData(ctx, &requestdata.RequestData{AnonSessionID: anonID})
    }

    if tokenString := extractToken(c); tokenString != "" {
      authedCtx, err := am.authService.SetContextFromToken(ctx, tokenString)
      if err != nil {
        am.log.Debug("failed to resolve bearer token", "error", err)
      } else {
        ctx = authedCtx
      }
    }

    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}

// RequireAuth rejects callers without a valid bearer token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractToken(c)
    if tokenString == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
      return
    }
    ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
    if err != nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
      return
    }
    c.Request = c.Request.WithContext(ctx)
    rd := requestdata.GetRequestData(ctx)
    if rd == nil || rd.UserID == uuid.Nil {
      c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden - invalid user id"})
      return
    }
    c.Next()
  }
}

// RequireSession rejects callers with neither a bearer token nor an
// anonymous session header.
func (am *AuthMiddleware) RequireSession() gin.HandlerFunc {
  return func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil || rd.SessionKey() == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "a session is required"})
      return
    }
    c.Next()
  }
}

func extractToken(c *gin.Context) string {
  if qToken := c.Query("token"); qToken != "" {
    return qToken
  }
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  return ""
}
