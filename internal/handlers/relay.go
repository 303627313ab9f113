package handlers

import (
  "encoding/json"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/greenbot-org/greenbot-backend/internal/services"
)

type RelayHandler struct {
  relayService services.RelayService
}

func NewRelayHandler(relayService services.RelayService) *RelayHandler {
  return &RelayHandler{relayService: relayService}
}

// AIChat forwards a chat completion request to the caller's selected
// provider and returns the upstream body as-is.
func (rh *RelayHandler) AIChat(c *gin.Context) {
  var req struct {
    Messages json.RawMessage `json:"messages"`
    Provider string          `json:"provider"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if len(req.Messages) == 0 {
    c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
    return
  }
  status, body := rh.relayService.Relay(c.Request.Context(), req.Provider, req.Messages)
  c.Data(status, "application/json", body)
}
