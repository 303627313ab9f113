package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
)

// respondError maps the error taxonomy onto HTTP statuses and writes
// the standard error body.
func respondError(c *gin.Context, err error) {
  status := http.StatusInternalServerError
  body := gin.H{"error": err.Error()}

  if appErr, ok := apperr.AsError(err); ok {
    body = gin.H{"error": appErr.Message}
    if appErr.NeedsSetup {
      body["needsSetup"] = true
    }
    switch appErr.Kind {
    case apperr.AuthRequired:
      status = http.StatusUnauthorized
    case apperr.MissingCredential, apperr.ValidationError:
      status = http.StatusBadRequest
    case apperr.ProviderError:
      status = http.StatusBadGateway
      if appErr.UpstreamStatus != 0 {
        status = appErr.UpstreamStatus
      }
    case apperr.NetworkError:
      status = http.StatusServiceUnavailable
    case apperr.PersistenceError:
      status = http.StatusInternalServerError
    }
  }
  c.JSON(status, body)
}

func Healthz(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
