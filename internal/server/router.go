package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/greenbot-org/greenbot-backend/internal/handlers"
  "github.com/greenbot-org/greenbot-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler        *handlers.AuthHandler
  AuthMiddleware     *middleware.AuthMiddleware
  ChatHandler        *handlers.ChatHandler
  RelayHandler       *handlers.RelayHandler
  CredentialsHandler *handlers.CredentialsHandler
  QuizHandler        *handlers.QuizHandler
  WsHandler          gin.HandlerFunc
  AllowedOrigins     []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  origins := cfg.AllowedOrigins
  if len(origins) == 0 {
    origins = []string{
      "http://localhost:3000",
      "http://localhost:5173",
      "https://greenbot.eco",
      "https://www.greenbot.eco",
    }
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Anon-Session"},
    AllowCredentials: true,
  }))

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthMiddleware.ResolveSession(), cfg.AuthHandler.Login)
  }

  //------------------------------------------
  // Session Routes (authenticated or anonymous)
  //------------------------------------------
  session := api.Group("/")
  session.Use(cfg.AuthMiddleware.ResolveSession(), cfg.AuthMiddleware.RequireSession())
  session.POST("/chat/send", cfg.ChatHandler.SendMessage)
  session.POST("/chat/new", cfg.ChatHandler.NewChat)
  session.POST("/chat/select", cfg.ChatHandler.SelectChat)
  session.POST("/chat/persona", cfg.ChatHandler.ChangePersona)
  session.POST("/chat/quiz-complete", cfg.ChatHandler.QuizComplete)
  session.GET("/chat/history", cfg.ChatHandler.History)
  session.GET("/chat/messages", cfg.ChatHandler.Messages)
  session.DELETE("/chat/:id", cfg.ChatHandler.DeleteChat)
  session.GET("/ws", cfg.WsHandler)

  //------------------------------------------
  // Protected Routes (authenticated only)
  //------------------------------------------
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)
  protected.GET("/me", cfg.AuthHandler.Me)

  //AI Relay
  protected.POST("/ai-chat", cfg.RelayHandler.AIChat)

  //API Keys
  protected.GET("/apikeys", cfg.CredentialsHandler.GetAPIKeys)
  protected.POST("/apikeys", cfg.CredentialsHandler.SaveAPIKeys)

  //Quiz
  quiz := protected.Group("/quiz")
  quiz.POST("/results", cfg.QuizHandler.SaveResult)
  quiz.GET("/results", cfg.QuizHandler.History)
  quiz.GET("/results/:type", cfg.QuizHandler.ResultsByType)
  quiz.GET("/best/:type", cfg.QuizHandler.BestScore)
  quiz.GET("/stats", cfg.QuizHandler.Statistics)

  return router
}
