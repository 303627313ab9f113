package services

import (
  "context"
  "errors"
  "fmt"
  "os"
  "strings"

  openai "github.com/sashabaranov/go-openai"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/normalization"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type Provider string

const (
  ProviderOpenAI   Provider = "openai"
  ProviderDeepseek Provider = "deepseek"
  ProviderGrok     Provider = "grok"
)

const (
  chatTemperature = 0.7
  chatMaxTokens   = 1000
)

// ProviderInfo carries the upstream coordinates for one provider. The
// chat completions path is appended to BaseURL on use.
type ProviderInfo struct {
  BaseURL string
  Model   string
}

var providerTable = map[Provider]ProviderInfo{
  ProviderOpenAI:   {BaseURL: "https://api.openai.com/v1", Model: "gpt-4o"},
  ProviderDeepseek: {BaseURL: "https://api.deepseek.com/v1", Model: "deepseek-chat"},
  ProviderGrok:     {BaseURL: "https://api.x.ai/v1", Model: "grok-beta"},
}

var providerEnvOverride = map[Provider]string{
  ProviderOpenAI:   "OPENAI_API_BASE_URL",
  ProviderDeepseek: "DEEPSEEK_API_BASE_URL",
  ProviderGrok:     "GROK_API_BASE_URL",
}

func ParseProvider(raw string) (Provider, error) {
  p := Provider(strings.ToLower(normalization.ParseInputString(raw)))
  if p == "" {
    return ProviderOpenAI, nil
  }
  if _, ok := providerTable[p]; !ok {
    return "", apperr.Newf(apperr.ValidationError, "Unknown provider: %s", raw)
  }
  return p, nil
}

func (p Provider) Info() ProviderInfo {
  info := providerTable[p]
  if override := os.Getenv(providerEnvOverride[p]); override != "" {
    info.BaseURL = strings.TrimRight(override, "/")
  }
  return info
}

func (p Provider) ChatCompletionsURL() string {
  return p.Info().BaseURL + "/chat/completions"
}

// KeyFrom picks this provider's key out of a user's credential record.
func (p Provider) KeyFrom(rec *types.APIKeyRecord) string {
  if rec == nil {
    return ""
  }
  switch p {
  case ProviderOpenAI:
    return rec.OpenAIKey
  case ProviderDeepseek:
    return rec.DeepseekKey
  case ProviderGrok:
    return rec.GrokKey
  }
  return ""
}

type ChatMessage struct {
  Role    string `json:"role"`
  Content string `json:"content"`
}

// ProviderService talks to an upstream chat completions API directly
// with a caller-supplied key and returns just the assistant text.
type ProviderService interface {
  SendChat(ctx context.Context, provider Provider, apiKey string, messages []ChatMessage) (string, error)
}

type providerService struct {
  log *logger.Logger
}

func NewProviderService(log *logger.Logger) ProviderService {
  return &providerService{log: log.With("service", "ProviderService")}
}

func (ps *providerService) SendChat(ctx context.Context, provider Provider, apiKey string, messages []ChatMessage) (string, error) {
  if apiKey == "" {
    return "", apperr.Newf(apperr.MissingCredential, "No %s API key found. Please add it in settings.", strings.ToUpper(string(provider)))
  }
  info := provider.Info()

  config := openai.DefaultConfig(apiKey)
  config.BaseURL = info.BaseURL
  client := openai.NewClientWithConfig(config)

  reqMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
  for _, m := range messages {
    reqMessages = append(reqMessages, openai.ChatCompletionMessage{
      Role:    m.Role,
      Content: m.Content,
    })
  }
  resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
    Model:       info.Model,
    Messages:    reqMessages,
    Temperature: chatTemperature,
    MaxTokens:   chatMaxTokens,
  })
  if err != nil {
    return "", ps.mapUpstreamError(provider, err)
  }
  if len(resp.Choices) == 0 {
    ps.log.Warn("upstream returned no choices", "provider", provider)
    return "", apperr.New(apperr.ProviderError, "Invalid response format from AI service")
  }
  return resp.Choices[0].Message.Content, nil
}

func (ps *providerService) mapUpstreamError(provider Provider, err error) error {
  var apiErr *openai.APIError
  if errors.As(err, &apiErr) {
    ps.log.Warn("upstream rejected chat request", "provider", provider, "statusCode", apiErr.HTTPStatusCode)
    if apiErr.HTTPStatusCode == 401 {
      return apperr.Upstream(apiErr.HTTPStatusCode, apiErr.Message,
        fmt.Sprintf("Invalid API key. Please check your %s API key in settings.", strings.ToUpper(string(provider))))
    }
    if apiErr.HTTPStatusCode == 402 || strings.Contains(fmt.Sprint(apiErr.Code), "insufficient_quota") || strings.Contains(apiErr.Message, "insufficient_quota") {
      return apperr.Upstream(apiErr.HTTPStatusCode, apiErr.Message,
        "Your API account has insufficient credits. Please add credits to your API provider account.")
    }
    if apiErr.HTTPStatusCode == 429 {
      return apperr.Upstream(apiErr.HTTPStatusCode, apiErr.Message,
        "You've hit the rate limit. Please try again in a few minutes.")
    }
    return apperr.Upstream(apiErr.HTTPStatusCode, apiErr.Message,
      fmt.Sprintf("%s API error: %d %s", strings.ToUpper(string(provider)), apiErr.HTTPStatusCode, apiErr.Message))
  }
  ps.log.Warn("failed to reach upstream provider", "provider", provider, "error", err)
  return apperr.Wrap(apperr.NetworkError, "Failed to communicate with AI service. Please try again.", err)
}
