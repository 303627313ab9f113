package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/greenbot-org/greenbot-backend/internal/services"
)

type ChatHandler struct {
  chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
  return &ChatHandler{chatService: chatService}
}

func (ch *ChatHandler) SendMessage(c *gin.Context) {
  var req struct {
    Content string `json:"content"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  state, err := ch.chatService.SendMessage(c.Request.Context(), req.Content)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, state)
}

func (ch *ChatHandler) Messages(c *gin.Context) {
  state, err := ch.chatService.State(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, state)
}

func (ch *ChatHandler) NewChat(c *gin.Context) {
  state, err := ch.chatService.NewChat(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, state)
}

func (ch *ChatHandler) SelectChat(c *gin.Context) {
  var req struct {
    ConversationID string `json:"conversationId"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.ConversationID == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
    return
  }
  state, err := ch.chatService.SelectChat(c.Request.Context(), req.ConversationID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, state)
}

func (ch *ChatHandler) ChangePersona(c *gin.Context) {
  var req struct {
    Persona string `json:"persona"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Persona == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "persona is required"})
    return
  }
  state, err := ch.chatService.ChangePersona(c.Request.Context(), req.Persona)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, state)
}

func (ch *ChatHandler) History(c *gin.Context) {
  chats, err := ch.chatService.History(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"chats": chats})
}

func (ch *ChatHandler) DeleteChat(c *gin.Context) {
  chatID := c.Param("id")
  if chatID == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
    return
  }
  if err := ch.chatService.DeleteChat(c.Request.Context(), chatID); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ch *ChatHandler) QuizComplete(c *gin.Context) {
  var req struct {
    Score int `json:"score"`
    Total int `json:"total"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  state, err := ch.chatService.QuizComplete(c.Request.Context(), req.Score, req.Total)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, state)
}
