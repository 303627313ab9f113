package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "strings"
  "time"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/repos"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
)

// RelayService proxies chat completion requests to the configured
// upstream with the caller's stored key. The key is read server side
// and never appears in a response; on upstream success the JSON body
// is passed through verbatim.
type RelayService interface {
  Relay(ctx context.Context, provider string, messages json.RawMessage) (int, []byte)
}

type relayService struct {
  log        *logger.Logger
  apiKeyRepo repos.APIKeyRepo
  client     *http.Client
}

func NewRelayService(log *logger.Logger, apiKeyRepo repos.APIKeyRepo) RelayService {
  serviceLog := log.With("service", "RelayService")
  httpClient := &http.Client{
    Timeout: 60 * time.Second,
  }
  return &relayService{
    log:        serviceLog,
    apiKeyRepo: apiKeyRepo,
    client:     httpClient,
  }
}

type relayRequest struct {
  Model       string          `json:"model"`
  Messages    json.RawMessage `json:"messages"`
  Temperature float64         `json:"temperature"`
  MaxTokens   int             `json:"max_tokens"`
}

func (rs *relayService) Relay(ctx context.Context, rawProvider string, messages json.RawMessage) (int, []byte) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || !rd.Authenticated() {
    return http.StatusUnauthorized, errorBody("Unauthorized")
  }

  provider, err := ParseProvider(rawProvider)
  if err != nil {
    return http.StatusBadRequest, errorBody(fmt.Sprintf("Unknown provider: %s", rawProvider))
  }

  rec, err := rs.apiKeyRepo.GetByUserID(ctx, nil, rd.UserID)
  if err != nil {
    rs.log.Warn("Failed to fetch API keys for relay, Cannot proceed.", "error", err)
    return http.StatusInternalServerError, errorBody("Failed to fetch API keys from database.")
  }
  if rec == nil {
    body, _ := json.Marshal(map[string]interface{}{
      "error":      "No API keys configured. Please add your API keys at /admin",
      "needsSetup": true,
    })
    return http.StatusBadRequest, body
  }

  apiKey := provider.KeyFrom(rec)
  if apiKey == "" {
    return http.StatusBadRequest, errorBody(fmt.Sprintf("No %s API key found. Please add it in settings.", strings.ToUpper(string(provider))))
  }

  reqBody, err := json.Marshal(relayRequest{
    Model:       provider.Info().Model,
    Messages:    messages,
    Temperature: chatTemperature,
    MaxTokens:   chatMaxTokens,
  })
  if err != nil {
    rs.log.Warn("Failed to encode relay request body.", "error", err)
    return http.StatusInternalServerError, errorBody("Failed to build upstream request.")
  }

  req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.ChatCompletionsURL(), bytes.NewReader(reqBody))
  if err != nil {
    rs.log.Warn("Failed to build upstream request.", "error", err)
    return http.StatusInternalServerError, errorBody("Failed to build upstream request.")
  }
  req.Header.Set("Content-Type", "application/json")
  req.Header.Set("Authorization", "Bearer "+apiKey)

  resp, err := rs.client.Do(req)
  if err != nil {
    rs.log.Warn("Failed to reach upstream provider.", "provider", provider, "error", err)
    return http.StatusInternalServerError, errorBody("Failed to communicate with AI service. Please try again.")
  }
  defer resp.Body.Close()

  bodyBytes, err := io.ReadAll(resp.Body)
  if err != nil {
    rs.log.Warn("Failed to read upstream response body.", "provider", provider, "error", err)
    return http.StatusInternalServerError, errorBody("Failed to read upstream response.")
  }

  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    rs.log.Warn("Upstream responded with non-2xx.", "provider", provider, "statusCode", resp.StatusCode)
    return resp.StatusCode, errorBody(fmt.Sprintf("%s API error: %d %s", strings.ToUpper(string(provider)), resp.StatusCode, string(bodyBytes)))
  }
  rs.log.Info("Relay call success", "provider", provider, "statusCode", resp.StatusCode)
  return http.StatusOK, bodyBytes
}

func errorBody(message string) []byte {
  body, _ := json.Marshal(map[string]string{"error": message})
  return body
}
