package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/greenbot-org/greenbot-backend/internal/services"
)

type CredentialsHandler struct {
  credentialService services.CredentialService
}

func NewCredentialsHandler(credentialService services.CredentialService) *CredentialsHandler {
  return &CredentialsHandler{credentialService: credentialService}
}

// GetAPIKeys returns the caller's stored keys with everything but a
// short suffix masked.
func (ch *CredentialsHandler) GetAPIKeys(c *gin.Context) {
  masked, err := ch.credentialService.GetMaskedCredentials(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, masked)
}

func (ch *CredentialsHandler) SaveAPIKeys(c *gin.Context) {
  var req services.CredentialUpdate
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := ch.credentialService.SaveCredentials(c.Request.Context(), req); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}
