package requestdata

import (
  "context"

  "github.com/google/uuid"
)

type key struct{}

var requestDataKey key

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  val := ctx.Value(requestDataKey)
  if rd, ok := val.(*RequestData); ok {
    return rd
  }
  return nil
}

// RequestData carries the resolved caller identity for one request. Either
// UserID is set (authenticated caller) or AnonSessionID is set (anonymous
// browser session using the local chat mirror).
type RequestData struct {
  TokenString     string
  RefreshToken    string
  UserID          uuid.UUID
  AnonSessionID   string
}

func (rd *RequestData) Authenticated() bool {
  return rd != nil && rd.UserID != uuid.Nil
}

// SessionKey is the identity the chat orchestrator keys session state by.
func (rd *RequestData) SessionKey() string {
  if rd == nil {
    return ""
  }
  if rd.UserID != uuid.Nil {
    return "user:" + rd.UserID.String()
  }
  if rd.AnonSessionID != "" {
    return "anon:" + rd.AnonSessionID
  }
  return ""
}
