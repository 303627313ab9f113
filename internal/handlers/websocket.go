package handlers

import (
  "context"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/gorilla/websocket"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
  "github.com/greenbot-org/greenbot-backend/internal/socket"
)

var upgrader = websocket.Upgrader{
  CheckOrigin: func(r *http.Request) bool {
    return true
  },
}

// WsHandler upgrades the connection and subscribes the client to its
// own session channel, so conversation updates reach every tab of the
// same session.
func WsHandler(hub *socket.Hub, log *logger.Logger) gin.HandlerFunc {
  return func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil || rd.SessionKey() == "" {
      c.JSON(http.StatusUnauthorized, gin.H{"error": "a session is required"})
      return
    }
    sessionChannel := rd.SessionKey()

    conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
    if err != nil {
      log.Warn("Failed to upgrade to websocket", "error", err)
      return
    }
    ctx, cancel := context.WithCancel(context.Background())
    client := socket.NewClient(conn, hub, sessionChannel, cancel, log)

    hub.Subscribe(client, []string{sessionChannel})

    go client.ReadLoop(ctx)
    go client.WriteLoop(ctx)
  }
}
