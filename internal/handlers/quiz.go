package handlers

import (
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"

  "github.com/greenbot-org/greenbot-backend/internal/services"
)

type QuizHandler struct {
  quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService) *QuizHandler {
  return &QuizHandler{quizService: quizService}
}

func (qh *QuizHandler) SaveResult(c *gin.Context) {
  var req services.SaveQuizResultParams
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  result, err := qh.quizService.SaveResult(c.Request.Context(), req)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "success":  true,
    "resultId": result.ID,
    "feedback": services.QuizFeedback(result.Percentage),
  })
}

func (qh *QuizHandler) History(c *gin.Context) {
  limit := 0
  if raw := c.Query("limit"); raw != "" {
    parsed, err := strconv.Atoi(raw)
    if err != nil || parsed < 0 {
      c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
      return
    }
    limit = parsed
  }
  results, err := qh.quizService.History(c.Request.Context(), limit)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"results": results})
}

func (qh *QuizHandler) ResultsByType(c *gin.Context) {
  quizType := c.Param("type")
  results, err := qh.quizService.ResultsByType(c.Request.Context(), quizType)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"results": results})
}

func (qh *QuizHandler) BestScore(c *gin.Context) {
  quizType := c.Param("type")
  best, err := qh.quizService.BestScore(c.Request.Context(), quizType)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"bestScore": best})
}

func (qh *QuizHandler) Statistics(c *gin.Context) {
  stats, err := qh.quizService.Statistics(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"statistics": stats})
}
