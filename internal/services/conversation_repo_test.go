package services

import (
  "context"
  "fmt"
  "testing"
  "time"

  "github.com/greenbot-org/greenbot-backend/internal/localstore"
)

func TestLocalRepositoryPreservesMessageOrder(t *testing.T) {
  ctx := context.Background()
  log := testLogger(t)
  store := localstore.NewStore(localstore.NewMemoryKV(), log)
  repo := NewLocalRepository(log, store, "anon:s1")

  base := time.Now().UTC()
  if err := repo.Create(ctx, &ChatView{ID: "chat-1", Title: "ordering", Date: base}); err != nil {
    t.Fatalf("Create: %v", err)
  }

  const n = 5
  for i := 0; i < n; i++ {
    msg := MessageView{
      ID:        fmt.Sprintf("m%d", i),
      Content:   fmt.Sprintf("message %d", i),
      Sender:    "user",
      Timestamp: base.Add(time.Duration(i) * time.Second),
    }
    if err := repo.AppendMessage(ctx, "chat-1", msg); err != nil {
      t.Fatalf("AppendMessage %d: %v", i, err)
    }
  }

  chat, err := repo.Get(ctx, "chat-1")
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if chat == nil {
    t.Fatal("chat not found after appends")
  }
  if len(chat.Messages) != n {
    t.Fatalf("loaded %d messages, want %d", len(chat.Messages), n)
  }
  for i, m := range chat.Messages {
    if m.ID != fmt.Sprintf("m%d", i) {
      t.Errorf("position %d holds %s, want m%d", i, m.ID, i)
    }
    if i > 0 && m.Timestamp.Before(chat.Messages[i-1].Timestamp) {
      t.Errorf("timestamps not ascending at position %d", i)
    }
  }
}

func TestLocalRepositoryUpdateMessageInPlace(t *testing.T) {
  ctx := context.Background()
  log := testLogger(t)
  store := localstore.NewStore(localstore.NewMemoryKV(), log)
  repo := NewLocalRepository(log, store, "anon:s1")

  if err := repo.Create(ctx, &ChatView{ID: "chat-1", Title: "edits", Date: time.Now().UTC()}); err != nil {
    t.Fatalf("Create: %v", err)
  }
  for _, id := range []string{"m0", "m1", "m2"} {
    if err := repo.AppendMessage(ctx, "chat-1", MessageView{ID: id, Content: id, Sender: "bot", Timestamp: time.Now().UTC()}); err != nil {
      t.Fatalf("AppendMessage: %v", err)
    }
  }

  name := "Waste Wizard"
  if err := repo.UpdateMessage(ctx, "chat-1", MessageView{ID: "m1", Content: "revised", Persona: &name}); err != nil {
    t.Fatalf("UpdateMessage: %v", err)
  }

  chat, err := repo.Get(ctx, "chat-1")
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if len(chat.Messages) != 3 {
    t.Fatalf("message count changed: %d", len(chat.Messages))
  }
  if chat.Messages[1].Content != "revised" || chat.Messages[1].Persona == nil || *chat.Messages[1].Persona != name {
    t.Errorf("m1 not updated in place: %+v", chat.Messages[1])
  }
  if chat.Messages[0].Content != "m0" || chat.Messages[2].Content != "m2" {
    t.Errorf("neighboring messages disturbed: %+v", chat.Messages)
  }
}
