package localstore

import (
  "context"
  "testing"
  "time"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
)

func newTestStore(t *testing.T) *Store {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  return NewStore(NewMemoryKV(), log)
}

func chatWithID(id, title string) Chat {
  return Chat{
    ID:    id,
    Title: title,
    Date:  time.Now().UTC(),
    Messages: []Message{
      {ID: "m1", Content: "hello", Sender: "user", Timestamp: time.Now().UTC()},
    },
  }
}

func TestUpsertPrependsNewChats(t *testing.T) {
  ctx := context.Background()
  store := newTestStore(t)

  if err := store.UpsertChat(ctx, "anon:s1", chatWithID("a", "first")); err != nil {
    t.Fatalf("UpsertChat: %v", err)
  }
  if err := store.UpsertChat(ctx, "anon:s1", chatWithID("b", "second")); err != nil {
    t.Fatalf("UpsertChat: %v", err)
  }

  chats, err := store.LoadAll(ctx, "anon:s1")
  if err != nil {
    t.Fatalf("LoadAll: %v", err)
  }
  if len(chats) != 2 {
    t.Fatalf("expected 2 chats, got %d", len(chats))
  }
  if chats[0].ID != "b" || chats[1].ID != "a" {
    t.Errorf("expected newest first [b a], got [%s %s]", chats[0].ID, chats[1].ID)
  }
}

func TestUpsertReplacesInPlace(t *testing.T) {
  ctx := context.Background()
  store := newTestStore(t)

  store.UpsertChat(ctx, "anon:s1", chatWithID("a", "first"))
  store.UpsertChat(ctx, "anon:s1", chatWithID("b", "second"))

  updated := chatWithID("a", "renamed")
  if err := store.UpsertChat(ctx, "anon:s1", updated); err != nil {
    t.Fatalf("UpsertChat: %v", err)
  }

  chats, _ := store.LoadAll(ctx, "anon:s1")
  if len(chats) != 2 {
    t.Fatalf("expected 2 chats after replace, got %d", len(chats))
  }
  if chats[1].ID != "a" || chats[1].Title != "renamed" {
    t.Errorf("chat a not replaced in place: got id=%s title=%q", chats[1].ID, chats[1].Title)
  }
}

func TestRemoveChatTombstones(t *testing.T) {
  ctx := context.Background()
  store := newTestStore(t)

  store.UpsertChat(ctx, "anon:s1", chatWithID("a", "first"))
  store.UpsertChat(ctx, "anon:s1", chatWithID("b", "second"))

  if err := store.RemoveChat(ctx, "anon:s1", "a"); err != nil {
    t.Fatalf("RemoveChat: %v", err)
  }
  chats, _ := store.LoadAll(ctx, "anon:s1")
  if len(chats) != 1 || chats[0].ID != "b" {
    t.Fatalf("expected only chat b after removal, got %+v", chats)
  }

  got, err := store.Get(ctx, "anon:s1", "a")
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if got != nil {
    t.Error("tombstoned chat still returned by Get")
  }
}

func TestTombstoneFiltersStaleWrites(t *testing.T) {
  ctx := context.Background()
  store := newTestStore(t)

  store.UpsertChat(ctx, "anon:s1", chatWithID("a", "first"))
  store.RemoveChat(ctx, "anon:s1", "a")

  // A stale writer re-saving the old list must not resurrect the chat.
  if err := store.saveChats(ctx, "anon:s1", []Chat{chatWithID("a", "first")}); err != nil {
    t.Fatalf("saveChats: %v", err)
  }
  chats, _ := store.LoadAll(ctx, "anon:s1")
  if len(chats) != 0 {
    t.Errorf("tombstone did not filter stale write, got %d chats", len(chats))
  }
}

func TestUpsertClearsTombstone(t *testing.T) {
  ctx := context.Background()
  store := newTestStore(t)

  store.UpsertChat(ctx, "anon:s1", chatWithID("a", "first"))
  store.RemoveChat(ctx, "anon:s1", "a")

  if err := store.UpsertChat(ctx, "anon:s1", chatWithID("a", "recreated")); err != nil {
    t.Fatalf("UpsertChat: %v", err)
  }
  got, err := store.Get(ctx, "anon:s1", "a")
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if got == nil || got.Title != "recreated" {
    t.Errorf("recreated chat not visible, got %+v", got)
  }
}

func TestClearWipesSession(t *testing.T) {
  ctx := context.Background()
  store := newTestStore(t)

  store.UpsertChat(ctx, "anon:s1", chatWithID("a", "first"))
  store.RemoveChat(ctx, "anon:s1", "b")

  if err := store.Clear(ctx, "anon:s1"); err != nil {
    t.Fatalf("Clear: %v", err)
  }
  chats, err := store.LoadAll(ctx, "anon:s1")
  if err != nil {
    t.Fatalf("LoadAll: %v", err)
  }
  if len(chats) != 0 {
    t.Errorf("expected no chats after clear, got %d", len(chats))
  }
}

func TestSessionsAreIsolated(t *testing.T) {
  ctx := context.Background()
  store := newTestStore(t)

  store.UpsertChat(ctx, "anon:s1", chatWithID("a", "first"))

  chats, err := store.LoadAll(ctx, "anon:s2")
  if err != nil {
    t.Fatalf("LoadAll: %v", err)
  }
  if len(chats) != 0 {
    t.Errorf("session s2 sees s1 chats: %+v", chats)
  }
}

func TestCorruptListTreatedAsEmpty(t *testing.T) {
  ctx := context.Background()
  store := newTestStore(t)

  if err := store.kv.Set(ctx, chatsKey("anon:s1"), "{not json"); err != nil {
    t.Fatalf("Set: %v", err)
  }
  chats, err := store.LoadAll(ctx, "anon:s1")
  if err != nil {
    t.Fatalf("LoadAll: %v", err)
  }
  if len(chats) != 0 {
    t.Errorf("corrupt payload should yield empty list, got %d chats", len(chats))
  }
}
