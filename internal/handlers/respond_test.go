package handlers

import (
  "encoding/json"
  "errors"
  "net/http"
  "net/http/httptest"
  "testing"

  "github.com/gin-gonic/gin"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
)

func respondWith(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
  t.Helper()
  gin.SetMode(gin.TestMode)
  w := httptest.NewRecorder()
  c, _ := gin.CreateTestContext(w)
  respondError(c, err)
  var body map[string]interface{}
  if jErr := json.Unmarshal(w.Body.Bytes(), &body); jErr != nil {
    t.Fatalf("response body is not JSON: %v (%s)", jErr, w.Body.String())
  }
  return w, body
}

func TestRespondErrorStatusMapping(t *testing.T) {
  cases := []struct {
    name   string
    err    error
    status int
  }{
    {"auth required", apperr.New(apperr.AuthRequired, "sign in first"), http.StatusUnauthorized},
    {"missing credential", apperr.New(apperr.MissingCredential, "no key"), http.StatusBadRequest},
    {"validation", apperr.New(apperr.ValidationError, "bad input"), http.StatusBadRequest},
    {"network", apperr.New(apperr.NetworkError, "upstream unreachable"), http.StatusServiceUnavailable},
    {"persistence", apperr.New(apperr.PersistenceError, "database down"), http.StatusInternalServerError},
    {"provider without status", apperr.New(apperr.ProviderError, "upstream broke"), http.StatusBadGateway},
    {"plain error", errors.New("boom"), http.StatusInternalServerError},
  }
  for _, tc := range cases {
    w, body := respondWith(t, tc.err)
    if w.Code != tc.status {
      t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.status)
    }
    if body["error"] == "" {
      t.Errorf("%s: missing error message in body", tc.name)
    }
  }
}

func TestRespondErrorCarriesUpstreamStatus(t *testing.T) {
  w, body := respondWith(t, apperr.Upstream(429, "slow down", "You've hit the rate limit. Please try again in a few minutes."))
  if w.Code != http.StatusTooManyRequests {
    t.Errorf("status = %d, want 429", w.Code)
  }
  if body["error"] != "You've hit the rate limit. Please try again in a few minutes." {
    t.Errorf("error = %v", body["error"])
  }
}

func TestRespondErrorNeedsSetup(t *testing.T) {
  err := apperr.New(apperr.MissingCredential, "No API keys configured. Please add your API keys at /admin")
  err.NeedsSetup = true
  w, body := respondWith(t, err)
  if w.Code != http.StatusBadRequest {
    t.Errorf("status = %d, want 400", w.Code)
  }
  if body["needsSetup"] != true {
    t.Errorf("needsSetup = %v, want true", body["needsSetup"])
  }
}
