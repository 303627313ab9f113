package localstore

import (
  "context"
  "encoding/json"
  "fmt"
  "time"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
)

// Chat is the serialized form of an anonymous conversation. The whole
// message history travels with the chat record.
type Chat struct {
  ID       string    `json:"id"`
  Title    string    `json:"title"`
  Persona  string    `json:"persona,omitempty"`
  Date     time.Time `json:"date"`
  Messages []Message `json:"messages"`
}

type Message struct {
  ID        string    `json:"id"`
  Content   string    `json:"content"`
  Sender    string    `json:"sender"`
  Persona   *string   `json:"persona,omitempty"`
  Timestamp time.Time `json:"timestamp"`
}

// Store keeps anonymous-session chats in a KV backend. Deletions write
// a tombstone so a chat removed on one surface stays gone even if a
// stale writer re-saves the chat list afterward.
type Store struct {
  kv  KV
  log *logger.Logger
}

func NewStore(kv KV, baseLog *logger.Logger) *Store {
  return &Store{kv: kv, log: baseLog.With("component", "localstore")}
}

func chatsKey(sessionID string) string {
  return fmt.Sprintf("greenbot:chats:%s", sessionID)
}

func deletedKey(sessionID string) string {
  return fmt.Sprintf("greenbot:deleted:%s", sessionID)
}

func (s *Store) loadChats(ctx context.Context, sessionID string) ([]Chat, error) {
  raw, ok, err := s.kv.Get(ctx, chatsKey(sessionID))
  if err != nil {
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to load chats", err)
  }
  if !ok || raw == "" {
    return []Chat{}, nil
  }
  var chats []Chat
  if err := json.Unmarshal([]byte(raw), &chats); err != nil {
    s.log.Warn("discarding corrupt chat list", "session_id", sessionID, "error", err)
    return []Chat{}, nil
  }
  return chats, nil
}

func (s *Store) saveChats(ctx context.Context, sessionID string, chats []Chat) error {
  raw, err := json.Marshal(chats)
  if err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to encode chats", err)
  }
  if err := s.kv.Set(ctx, chatsKey(sessionID), string(raw)); err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to save chats", err)
  }
  return nil
}

func (s *Store) loadDeleted(ctx context.Context, sessionID string) (map[string]bool, error) {
  raw, ok, err := s.kv.Get(ctx, deletedKey(sessionID))
  if err != nil {
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to load tombstones", err)
  }
  deleted := make(map[string]bool)
  if !ok || raw == "" {
    return deleted, nil
  }
  var ids []string
  if err := json.Unmarshal([]byte(raw), &ids); err != nil {
    s.log.Warn("discarding corrupt tombstone list", "session_id", sessionID, "error", err)
    return deleted, nil
  }
  for _, id := range ids {
    deleted[id] = true
  }
  return deleted, nil
}

func (s *Store) saveDeleted(ctx context.Context, sessionID string, deleted map[string]bool) error {
  ids := make([]string, 0, len(deleted))
  for id := range deleted {
    ids = append(ids, id)
  }
  raw, err := json.Marshal(ids)
  if err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to encode tombstones", err)
  }
  if err := s.kv.Set(ctx, deletedKey(sessionID), string(raw)); err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to save tombstones", err)
  }
  return nil
}

// LoadAll returns the session's chats with tombstoned entries filtered
// out, newest first.
func (s *Store) LoadAll(ctx context.Context, sessionID string) ([]Chat, error) {
  chats, err := s.loadChats(ctx, sessionID)
  if err != nil {
    return nil, err
  }
  deleted, err := s.loadDeleted(ctx, sessionID)
  if err != nil {
    return nil, err
  }
  kept := make([]Chat, 0, len(chats))
  for _, c := range chats {
    if !deleted[c.ID] {
      kept = append(kept, c)
    }
  }
  return kept, nil
}

// Get returns a single chat by id, or nil when absent or tombstoned.
func (s *Store) Get(ctx context.Context, sessionID, chatID string) (*Chat, error) {
  chats, err := s.LoadAll(ctx, sessionID)
  if err != nil {
    return nil, err
  }
  for i := range chats {
    if chats[i].ID == chatID {
      return &chats[i], nil
    }
  }
  return nil, nil
}

// UpsertChat replaces the chat in place when the id already exists,
// otherwise prepends it so the newest chat lists first. A tombstone for
// the id is cleared, since re-saving a chat means the user recreated it.
func (s *Store) UpsertChat(ctx context.Context, sessionID string, chat Chat) error {
  chats, err := s.loadChats(ctx, sessionID)
  if err != nil {
    return err
  }
  replaced := false
  for i := range chats {
    if chats[i].ID == chat.ID {
      chats[i] = chat
      replaced = true
      break
    }
  }
  if !replaced {
    chats = append([]Chat{chat}, chats...)
  }
  deleted, err := s.loadDeleted(ctx, sessionID)
  if err != nil {
    return err
  }
  if deleted[chat.ID] {
    delete(deleted, chat.ID)
    if err := s.saveDeleted(ctx, sessionID, deleted); err != nil {
      return err
    }
  }
  return s.saveChats(ctx, sessionID, chats)
}

// RemoveChat drops the chat from the list and records a tombstone for
// its id.
func (s *Store) RemoveChat(ctx context.Context, sessionID, chatID string) error {
  chats, err := s.loadChats(ctx, sessionID)
  if err != nil {
    return err
  }
  kept := make([]Chat, 0, len(chats))
  for _, c := range chats {
    if c.ID != chatID {
      kept = append(kept, c)
    }
  }
  if err := s.saveChats(ctx, sessionID, kept); err != nil {
    return err
  }
  deleted, err := s.loadDeleted(ctx, sessionID)
  if err != nil {
    return err
  }
  deleted[chatID] = true
  return s.saveDeleted(ctx, sessionID, deleted)
}

// Clear wipes the session's chats and tombstones. Called when the
// session authenticates so anonymous history never bleeds into an
// account.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
  if err := s.kv.Del(ctx, chatsKey(sessionID)); err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to clear chats", err)
  }
  if err := s.kv.Del(ctx, deletedKey(sessionID)); err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to clear tombstones", err)
  }
  return nil
}
