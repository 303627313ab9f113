package main

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/joho/godotenv"

  "github.com/greenbot-org/greenbot-backend/internal/db"
  "github.com/greenbot-org/greenbot-backend/internal/handlers"
  "github.com/greenbot-org/greenbot-backend/internal/localstore"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/middleware"
  "github.com/greenbot-org/greenbot-backend/internal/repos"
  "github.com/greenbot-org/greenbot-backend/internal/server"
  "github.com/greenbot-org/greenbot-backend/internal/services"
  "github.com/greenbot-org/greenbot-backend/internal/socket"
  "github.com/greenbot-org/greenbot-backend/internal/utils"
)

func main() {
  // .env is optional; real deployments set the environment directly
  _ = godotenv.Load()

  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Environment Variables
  log.Info("Attempting to load environment variables for Main now...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  redisAddress := utils.GetEnv("REDIS_ADDRESS", "localhost:6379", log)
  redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
  allowedOrigins := utils.GetEnv("ALLOWED_ORIGINS", "", log)
  log.Debug("Environment variables loaded for Main :)",
    "accessTokenTTL", accessTokenTTL,
    "refreshTokenTTL", refreshTokenTTL,
    "redisAddress", redisAddress,
  )

  // Postgres Setup
  log.Info("Setting Up Postgres from Main now...")
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("DB init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()
  log.Info("Postgres Setup From Main Successful :)")

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  conversationRepo := repos.NewConversationRepo(thePG, log)
  messageRepo := repos.NewMessageRepo(thePG, log)
  apiKeyRepo := repos.NewAPIKeyRepo(thePG, log)
  quizResultRepo := repos.NewQuizResultRepo(thePG, log)
  log.Info("Repositories Set Up From Main Successful :)")

  // Redis Setup (anonymous chat store + websocket pub/sub)
  log.Info("Setting Up Redis From Main now...")
  var kv localstore.KV
  redisClient, err := db.NewRedisClient(log, redisAddress, redisPassword)
  if err != nil {
    log.Warn("Redis unavailable, anonymous chats will be stored in memory only", "error", err)
    kv = localstore.NewMemoryKV()
  } else {
    kv = localstore.NewRedisKV(redisClient)
  }
  localStore := localstore.NewStore(kv, log)
  log.Info("Redis Setup From Main Successful :)")

  // Websocket Setup
  log.Info("Setting Up Websocket Hub From Main Now :)")
  wsHub := socket.NewHub(log)
  var redisPubSub *socket.RedisPubSub
  if redisClient != nil {
    redisPubSub = socket.NewRedisPubSub(log, redisClient, "greenbot_hub_broadcast")
    if err := redisPubSub.StartSubscriber(wsHub); err != nil {
      log.Warn("Failed to subscribe to Redis pub/sub", "error", err)
      redisPubSub = nil
    } else {
      wsHub.SetRedisPubSub(redisPubSub)
      log.Info("Redis pubsub is active!")
    }
  }
  log.Info("Websocket Hub Set Up From Main Successful :)")

  // Services Setup
  log.Info("Setting up Services from Main now...")
  emailService, err := services.NewEmailService(log)
  if err != nil {
    log.Warn("Could not init EmailService", "error", err)
  }
  var avatarService services.AvatarService
  bucketService, err := services.NewBucketService(context.Background(), log)
  if err != nil {
    log.Warn("Could not init BucketService, user avatars disabled", "error", err)
  } else {
    avatarService, err = services.NewAvatarService(log, bucketService)
    if err != nil {
      log.Warn("Could not init AvatarService, user avatars disabled", "error", err)
    }
  }
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, avatarService, emailService, localStore, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  meService := services.NewMeService(log, userRepo)
  credentialService := services.NewCredentialService(thePG, log, apiKeyRepo)
  providerService := services.NewProviderService(log)
  relayService := services.NewRelayService(log, apiKeyRepo)
  quizService := services.NewQuizService(thePG, log, quizResultRepo)
  chatService := services.NewChatService(thePG, log, conversationRepo, messageRepo, apiKeyRepo, localStore, providerService, wsHub)
  log.Info("Services Set Up From Main Successful :)")

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(authService, meService)
  chatHandler := handlers.NewChatHandler(chatService)
  relayHandler := handlers.NewRelayHandler(relayService)
  credentialsHandler := handlers.NewCredentialsHandler(credentialService)
  quizHandler := handlers.NewQuizHandler(quizService)
  wsHandler := handlers.WsHandler(wsHub, log)
  log.Info("Handlers Set Up From Main Successful :)")

  // MiddleWare Setup
  log.Info("Setting Up Middleware from Main now...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)
  log.Info("Middleware Set Up From Main Successful :)")

  // Router Setup
  log.Info("Setting Up Router from Main now...")
  var origins []string
  if allowedOrigins != "" {
    origins = strings.Split(allowedOrigins, ",")
  }
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:        authHandler,
    AuthMiddleware:     authMiddleware,
    ChatHandler:        chatHandler,
    RelayHandler:       relayHandler,
    CredentialsHandler: credentialsHandler,
    QuizHandler:        quizHandler,
    WsHandler:          wsHandler,
    AllowedOrigins:     origins,
  })
  log.Info("Router Set Up From Main Successful :)")

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }

  // On Shutdown
  if redisPubSub != nil {
    redisPubSub.Stop()
  }
}
