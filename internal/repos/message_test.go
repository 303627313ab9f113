package repos

import (
  "testing"

  "github.com/google/uuid"
)

func TestParseConversationID(t *testing.T) {
  id := uuid.New()
  cid, ok := parseConversationID(id.String())
  if !ok || cid != id {
    t.Errorf("canonical UUID rejected: %s", id)
  }

  rejected := []string{
    "",
    "default",
    "loading-" + uuid.New().String(),
    "welcome-" + uuid.New().String(),
    "6ba7b8109dad11d180b400c04fd430c8",
    "urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8",
  }
  for _, s := range rejected {
    if _, ok := parseConversationID(s); ok {
      t.Errorf("parseConversationID(%q) accepted, want rejected", s)
    }
  }
}
