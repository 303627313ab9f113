package services

import (
  "context"
  "encoding/json"
  "errors"
  "io"
  "net/http"
  "net/http/httptest"
  "testing"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type fakeAPIKeyRepo struct {
  record *types.APIKeyRecord
  err    error
}

func (f *fakeAPIKeyRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.APIKeyRecord, error) {
  return f.record, f.err
}

func (f *fakeAPIKeyRepo) Upsert(ctx context.Context, tx *gorm.DB, record *types.APIKeyRecord) (*types.APIKeyRecord, error) {
  f.record = record
  return record, nil
}

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  return log
}

func authedContext(userID uuid.UUID) context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func decodeErrorBody(t *testing.T, body []byte) map[string]interface{} {
  t.Helper()
  var decoded map[string]interface{}
  if err := json.Unmarshal(body, &decoded); err != nil {
    t.Fatalf("response body is not JSON: %v (%s)", err, body)
  }
  return decoded
}

func TestRelayRequiresAuthentication(t *testing.T) {
  rs := NewRelayService(testLogger(t), &fakeAPIKeyRepo{})

  anonCtx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{AnonSessionID: "s1"})
  status, body := rs.Relay(anonCtx, "openai", json.RawMessage(`[]`))
  if status != http.StatusUnauthorized {
    t.Fatalf("status = %d, want 401", status)
  }
  decoded := decodeErrorBody(t, body)
  if decoded["error"] != "Unauthorized" {
    t.Errorf("body = %v", decoded)
  }
}

func TestRelayUnknownProvider(t *testing.T) {
  rs := NewRelayService(testLogger(t), &fakeAPIKeyRepo{})

  status, body := rs.Relay(authedContext(uuid.New()), "gemini", json.RawMessage(`[]`))
  if status != http.StatusBadRequest {
    t.Fatalf("status = %d, want 400", status)
  }
  decoded := decodeErrorBody(t, body)
  if decoded["error"] != "Unknown provider: gemini" {
    t.Errorf("body = %v", decoded)
  }
}

func TestRelayNoRecordNeedsSetup(t *testing.T) {
  rs := NewRelayService(testLogger(t), &fakeAPIKeyRepo{record: nil})

  status, body := rs.Relay(authedContext(uuid.New()), "openai", json.RawMessage(`[]`))
  if status != http.StatusBadRequest {
    t.Fatalf("status = %d, want 400", status)
  }
  decoded := decodeErrorBody(t, body)
  if decoded["error"] != "No API keys configured. Please add your API keys at /admin" {
    t.Errorf("error = %v", decoded["error"])
  }
  if decoded["needsSetup"] != true {
    t.Errorf("needsSetup = %v, want true", decoded["needsSetup"])
  }
}

func TestRelayMissingKeySkipsUpstream(t *testing.T) {
  upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    t.Error("upstream must not be called when the key is missing")
  }))
  defer upstream.Close()
  t.Setenv("GROK_API_BASE_URL", upstream.URL)

  repo := &fakeAPIKeyRepo{record: &types.APIKeyRecord{OpenAIKey: "sk-open", Service: "grok"}}
  rs := NewRelayService(testLogger(t), repo)

  status, body := rs.Relay(authedContext(uuid.New()), "grok", json.RawMessage(`[]`))
  if status != http.StatusBadRequest {
    t.Fatalf("status = %d, want 400", status)
  }
  decoded := decodeErrorBody(t, body)
  if decoded["error"] != "No GROK API key found. Please add it in settings." {
    t.Errorf("error = %v", decoded["error"])
  }
}

func TestRelayRepoFailure(t *testing.T) {
  rs := NewRelayService(testLogger(t), &fakeAPIKeyRepo{err: errors.New("connection reset")})

  status, body := rs.Relay(authedContext(uuid.New()), "openai", json.RawMessage(`[]`))
  if status != http.StatusInternalServerError {
    t.Fatalf("status = %d, want 500", status)
  }
  decoded := decodeErrorBody(t, body)
  if decoded["error"] != "Failed to fetch API keys from database." {
    t.Errorf("error = %v", decoded["error"])
  }
}

func TestRelayPassesUpstreamBodyThrough(t *testing.T) {
  upstreamBody := `{"id":"chatcmpl-1","choices":[{"message":{"role":"assistant","content":"Reduce, reuse, recycle."}}]}`
  var gotAuth string
  var gotReq relayRequest
  upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    gotAuth = r.Header.Get("Authorization")
    raw, _ := io.ReadAll(r.Body)
    if err := json.Unmarshal(raw, &gotReq); err != nil {
      t.Errorf("upstream request body is not JSON: %v", err)
    }
    w.Header().Set("Content-Type", "application/json")
    w.Write([]byte(upstreamBody))
  }))
  defer upstream.Close()
  t.Setenv("DEEPSEEK_API_BASE_URL", upstream.URL)

  repo := &fakeAPIKeyRepo{record: &types.APIKeyRecord{DeepseekKey: "sk-deep-123", Service: "deepseek"}}
  rs := NewRelayService(testLogger(t), repo)

  messages := json.RawMessage(`[{"role":"user","content":"How do I cut household waste?"}]`)
  status, body := rs.Relay(authedContext(uuid.New()), "deepseek", messages)
  if status != http.StatusOK {
    t.Fatalf("status = %d, want 200 (body: %s)", status, body)
  }
  if string(body) != upstreamBody {
    t.Errorf("body not passed through verbatim:\n got %s\nwant %s", body, upstreamBody)
  }
  if gotAuth != "Bearer sk-deep-123" {
    t.Errorf("Authorization = %q", gotAuth)
  }
  if gotReq.Model != "deepseek-chat" {
    t.Errorf("upstream model = %q, want deepseek-chat", gotReq.Model)
  }
  if gotReq.Temperature != chatTemperature || gotReq.MaxTokens != chatMaxTokens {
    t.Errorf("upstream params = (%v, %d)", gotReq.Temperature, gotReq.MaxTokens)
  }
  if string(gotReq.Messages) != string(messages) {
    t.Errorf("messages not forwarded verbatim: %s", gotReq.Messages)
  }
}

func TestRelayWrapsUpstreamFailure(t *testing.T) {
  upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    w.WriteHeader(http.StatusTooManyRequests)
    w.Write([]byte(`{"error":{"message":"rate limited"}}`))
  }))
  defer upstream.Close()
  t.Setenv("OPENAI_API_BASE_URL", upstream.URL)

  repo := &fakeAPIKeyRepo{record: &types.APIKeyRecord{OpenAIKey: "sk-open", Service: "openai"}}
  rs := NewRelayService(testLogger(t), repo)

  status, body := rs.Relay(authedContext(uuid.New()), "openai", json.RawMessage(`[]`))
  if status != http.StatusTooManyRequests {
    t.Fatalf("status = %d, want 429", status)
  }
  decoded := decodeErrorBody(t, body)
  msg, _ := decoded["error"].(string)
  if msg != `OPENAI API error: 429 {"error":{"message":"rate limited"}}` {
    t.Errorf("error = %q", msg)
  }
}
