package services

import (
  "context"
  "time"

  "github.com/google/uuid"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/localstore"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/repos"
  "github.com/greenbot-org/greenbot-backend/internal/types"
  "github.com/greenbot-org/greenbot-backend/internal/utils"
)

type MessageView struct {
  ID        string    `json:"id"`
  Content   string    `json:"content"`
  Sender    string    `json:"sender"`
  Persona   *string   `json:"persona,omitempty"`
  Timestamp time.Time `json:"timestamp"`
}

type ChatView struct {
  ID       string        `json:"id"`
  Title    string        `json:"title"`
  Persona  string        `json:"persona,omitempty"`
  Date     time.Time     `json:"date"`
  Messages []MessageView `json:"messages"`
}

// ConversationRepository is the storage surface the chat orchestrator
// works against. A session gets exactly one implementation: database
// backed for authenticated users, KV backed for anonymous sessions.
type ConversationRepository interface {
  List(ctx context.Context) ([]ChatView, error)
  Get(ctx context.Context, chatID string) (*ChatView, error)
  Create(ctx context.Context, chat *ChatView) error
  AppendMessage(ctx context.Context, chatID string, msg MessageView) error
  UpdateMessage(ctx context.Context, chatID string, msg MessageView) error
  UpdatePersona(ctx context.Context, chatID, personaName string) error
  Delete(ctx context.Context, chatID string) error
}

//----------------------------------------------------------------------------------------
// Remote (database) implementation
//----------------------------------------------------------------------------------------

type remoteRepository struct {
  log              *logger.Logger
  conversationRepo repos.ConversationRepo
  messageRepo      repos.MessageRepo
  userID           uuid.UUID
}

func NewRemoteRepository(log *logger.Logger, conversationRepo repos.ConversationRepo, messageRepo repos.MessageRepo, userID uuid.UUID) ConversationRepository {
  return &remoteRepository{
    log:              log.With("repository", "remote"),
    conversationRepo: conversationRepo,
    messageRepo:      messageRepo,
    userID:           userID,
  }
}

func messageToView(m *types.Message) MessageView {
  return MessageView{
    ID:        m.ID.String(),
    Content:   m.Content,
    Sender:    m.Sender,
    Persona:   m.Persona,
    Timestamp: m.CreatedAt,
  }
}

func (rr *remoteRepository) List(ctx context.Context) ([]ChatView, error) {
  convs, err := rr.conversationRepo.GetByUserID(ctx, nil, rr.userID)
  if err != nil {
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to list conversations", err)
  }
  views := make([]ChatView, 0, len(convs))
  for _, c := range convs {
    views = append(views, ChatView{
      ID:      c.ID.String(),
      Title:   c.Title,
      Persona: c.Persona,
      Date:    c.UpdatedAt,
    })
  }
  return views, nil
}

func (rr *remoteRepository) Get(ctx context.Context, chatID string) (*ChatView, error) {
  if !utils.IsValidUUID(chatID) {
    return nil, nil
  }
  cid, err := uuid.Parse(chatID)
  if err != nil {
    return nil, nil
  }
  conv, err := rr.conversationRepo.GetByID(ctx, nil, cid)
  if err != nil {
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to load conversation", err)
  }
  if conv == nil || conv.UserID != rr.userID {
    return nil, nil
  }
  msgs, err := rr.messageRepo.GetByConversationID(ctx, nil, cid)
  if err != nil {
    return nil, apperr.Wrap(apperr.PersistenceError, "failed to load conversation messages", err)
  }
  view := &ChatView{
    ID:      conv.ID.String(),
    Title:   conv.Title,
    Persona: conv.Persona,
    Date:    conv.UpdatedAt,
  }
  for _, m := range msgs {
    view.Messages = append(view.Messages, messageToView(m))
  }
  return view, nil
}

func (rr *remoteRepository) Create(ctx context.Context, chat *ChatView) error {
  cid, err := uuid.Parse(chat.ID)
  if err != nil {
    return apperr.Wrap(apperr.ValidationError, "conversation id must be a UUID", err)
  }
  conv := &types.Conversation{
    ID:      cid,
    UserID:  rr.userID,
    Title:   chat.Title,
    Persona: chat.Persona,
  }
  if _, err := rr.conversationRepo.Create(ctx, nil, conv); err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to create conversation", err)
  }
  for _, mv := range chat.Messages {
    if err := rr.AppendMessage(ctx, chat.ID, mv); err != nil {
      return err
    }
  }
  return nil
}

func (rr *remoteRepository) AppendMessage(ctx context.Context, chatID string, mv MessageView) error {
  msg := &types.Message{
    Content: mv.Content,
    Sender:  mv.Sender,
    Persona: mv.Persona,
  }
  if id, err := uuid.Parse(mv.ID); err == nil {
    msg.ID = id
  }
  saved, err := rr.messageRepo.Append(ctx, nil, chatID, msg)
  if err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to save message", err)
  }
  if !saved {
    return nil
  }
  if cid, err := uuid.Parse(chatID); err == nil {
    if tErr := rr.conversationRepo.Touch(ctx, nil, cid); tErr != nil {
      rr.log.Warn("failed to touch conversation after message append", "conversationID", chatID, "error", tErr)
    }
  }
  return nil
}

func (rr *remoteRepository) UpdateMessage(ctx context.Context, chatID string, mv MessageView) error {
  cid, err := uuid.Parse(chatID)
  if err != nil {
    return nil
  }
  msgs, err := rr.messageRepo.GetByConversationID(ctx, nil, cid)
  if err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to load conversation messages", err)
  }
  for _, m := range msgs {
    if m.ID.String() == mv.ID {
      m.Content = mv.Content
      m.Persona = mv.Persona
      if uErr := rr.messageRepo.Update(ctx, nil, m); uErr != nil {
        return apperr.Wrap(apperr.PersistenceError, "failed to update message", uErr)
      }
      return nil
    }
  }
  return nil
}

func (rr *remoteRepository) UpdatePersona(ctx context.Context, chatID, personaName string) error {
  cid, err := uuid.Parse(chatID)
  if err != nil {
    return nil
  }
  if err := rr.conversationRepo.UpdatePersona(ctx, nil, cid, personaName); err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to update conversation persona", err)
  }
  return nil
}

func (rr *remoteRepository) Delete(ctx context.Context, chatID string) error {
  cid, err := uuid.Parse(chatID)
  if err != nil {
    return nil
  }
  conv, err := rr.conversationRepo.GetByID(ctx, nil, cid)
  if err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to load conversation", err)
  }
  if conv == nil || conv.UserID != rr.userID {
    return nil
  }
  if err := rr.messageRepo.DeleteByConversationID(ctx, nil, cid); err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to delete conversation messages", err)
  }
  if err := rr.conversationRepo.Delete(ctx, nil, cid); err != nil {
    return apperr.Wrap(apperr.PersistenceError, "failed to delete conversation", err)
  }
  return nil
}

//----------------------------------------------------------------------------------------
// Local (anonymous session) implementation
//----------------------------------------------------------------------------------------

type localRepository struct {
  log        *logger.Logger
  store      *localstore.Store
  sessionKey string
}

func NewLocalRepository(log *logger.Logger, store *localstore.Store, sessionKey string) ConversationRepository {
  return &localRepository{
    log:        log.With("repository", "local"),
    store:      store,
    sessionKey: sessionKey,
  }
}

func chatToLocal(chat *ChatView) localstore.Chat {
  lc := localstore.Chat{
    ID:      chat.ID,
    Title:   chat.Title,
    Persona: chat.Persona,
    Date:    chat.Date,
  }
  for _, m := range chat.Messages {
    lc.Messages = append(lc.Messages, localstore.Message(m))
  }
  return lc
}

func chatFromLocal(lc localstore.Chat) ChatView {
  chat := ChatView{
    ID:      lc.ID,
    Title:   lc.Title,
    Persona: lc.Persona,
    Date:    lc.Date,
  }
  for _, m := range lc.Messages {
    chat.Messages = append(chat.Messages, MessageView(m))
  }
  return chat
}

func (lr *localRepository) List(ctx context.Context) ([]ChatView, error) {
  chats, err := lr.store.LoadAll(ctx, lr.sessionKey)
  if err != nil {
    return nil, err
  }
  views := make([]ChatView, 0, len(chats))
  for _, lc := range chats {
    views = append(views, chatFromLocal(lc))
  }
  return views, nil
}

func (lr *localRepository) Get(ctx context.Context, chatID string) (*ChatView, error) {
  lc, err := lr.store.Get(ctx, lr.sessionKey, chatID)
  if err != nil {
    return nil, err
  }
  if lc == nil {
    return nil, nil
  }
  view := chatFromLocal(*lc)
  return &view, nil
}

func (lr *localRepository) Create(ctx context.Context, chat *ChatView) error {
  return lr.store.UpsertChat(ctx, lr.sessionKey, chatToLocal(chat))
}

func (lr *localRepository) mutate(ctx context.Context, chatID string, fn func(*ChatView)) error {
  chat, err := lr.Get(ctx, chatID)
  if err != nil {
    return err
  }
  if chat == nil {
    return nil
  }
  fn(chat)
  chat.Date = time.Now()
  return lr.store.UpsertChat(ctx, lr.sessionKey, chatToLocal(chat))
}

func (lr *localRepository) AppendMessage(ctx context.Context, chatID string, mv MessageView) error {
  return lr.mutate(ctx, chatID, func(chat *ChatView) {
    chat.Messages = append(chat.Messages, mv)
  })
}

func (lr *localRepository) UpdateMessage(ctx context.Context, chatID string, mv MessageView) error {
  return lr.mutate(ctx, chatID, func(chat *ChatView) {
    for i := range chat.Messages {
      if chat.Messages[i].ID == mv.ID {
        chat.Messages[i].Content = mv.Content
        chat.Messages[i].Persona = mv.Persona
        return
      }
    }
  })
}

func (lr *localRepository) UpdatePersona(ctx context.Context, chatID, personaName string) error {
  return lr.mutate(ctx, chatID, func(chat *ChatView) {
    chat.Persona = personaName
  })
}

func (lr *localRepository) Delete(ctx context.Context, chatID string) error {
  return lr.store.RemoveChat(ctx, lr.sessionKey, chatID)
}
