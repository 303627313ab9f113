package services

import (
  "context"
  "strings"
  "sync"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/localstore"
  "github.com/greenbot-org/greenbot-backend/internal/logger"
  "github.com/greenbot-org/greenbot-backend/internal/persona"
  "github.com/greenbot-org/greenbot-backend/internal/repos"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
)

const titleMaxLen = 30

// fallbackErrorMessage is shown in place of the assistant reply when a
// provider failure carries no user-facing message of its own.
const fallbackErrorMessage = "I'm sorry, I couldn't process your request. Please check your API key in settings and try again later."

// Broadcaster pushes session-scoped events to connected websocket
// clients. A nil Broadcaster disables pushes.
type Broadcaster interface {
  Publish(channel string, event string, payload interface{})
}

// ChatState is the orchestrator's view of one session after an
// operation: enough for a client to render the whole chat surface.
type ChatState struct {
  ConversationID string        `json:"conversationId"`
  Persona        persona.ID    `json:"persona"`
  PersonaName    string        `json:"personaName"`
  Messages       []MessageView `json:"messages"`
}

type ChatService interface {
  State(ctx context.Context) (*ChatState, error)
  SendMessage(ctx context.Context, content string) (*ChatState, error)
  NewChat(ctx context.Context) (*ChatState, error)
  SelectChat(ctx context.Context, chatID string) (*ChatState, error)
  ChangePersona(ctx context.Context, rawPersona string) (*ChatState, error)
  DeleteChat(ctx context.Context, chatID string) error
  History(ctx context.Context) ([]ChatView, error)
  QuizComplete(ctx context.Context, score, total int) (*ChatState, error)
}

// sessionState is one caller's live chat. All fields are guarded by mu;
// a held mu also serializes overlapping sends from the same session.
type sessionState struct {
  mu             sync.Mutex
  repo           ConversationRepository
  persona        persona.ID
  conversationID string
  messages       []MessageView
}

type chatService struct {
  db              *gorm.DB
  log             *logger.Logger
  conversationRepo repos.ConversationRepo
  messageRepo     repos.MessageRepo
  apiKeyRepo      repos.APIKeyRepo
  localStore      *localstore.Store
  providerService ProviderService
  broadcaster     Broadcaster

  sessionsMu sync.RWMutex
  sessions   map[string]*sessionState
}

func NewChatService(
  db *gorm.DB,
  log *logger.Logger,
  conversationRepo repos.ConversationRepo,
  messageRepo repos.MessageRepo,
  apiKeyRepo repos.APIKeyRepo,
  localStore *localstore.Store,
  providerService ProviderService,
  broadcaster Broadcaster,
) ChatService {
  return &chatService{
    db:               db,
    log:              log.With("service", "ChatService"),
    conversationRepo: conversationRepo,
    messageRepo:      messageRepo,
    apiKeyRepo:       apiKeyRepo,
    localStore:       localStore,
    providerService:  providerService,
    broadcaster:      broadcaster,
    sessions:         make(map[string]*sessionState),
  }
}

func welcomeMessage(p persona.ID) MessageView {
  name := persona.DisplayName(p)
  return MessageView{
    ID:        "welcome-" + uuid.New().String(),
    Content:   persona.WelcomeMessage(p),
    Sender:    "bot",
    Persona:   &name,
    Timestamp: time.Now(),
  }
}

// sessionFor returns the caller's session state, creating it with the
// right repository on first touch. The repository choice is sticky for
// the session's lifetime.
func (cs *chatService) sessionFor(ctx context.Context) (*sessionState, string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.SessionKey() == "" {
    return nil, "", apperr.New(apperr.AuthRequired, "a session is required to chat")
  }
  key := rd.SessionKey()

  cs.sessionsMu.RLock()
  s, ok := cs.sessions[key]
  cs.sessionsMu.RUnlock()
  if ok {
    return s, key, nil
  }

  cs.sessionsMu.Lock()
  defer cs.sessionsMu.Unlock()
  if s, ok = cs.sessions[key]; ok {
    return s, key, nil
  }
  var repo ConversationRepository
  if rd.Authenticated() {
    repo = NewRemoteRepository(cs.log, cs.conversationRepo, cs.messageRepo, rd.UserID)
  } else {
    repo = NewLocalRepository(cs.log, cs.localStore, key)
  }
  s = &sessionState{
    repo:     repo,
    persona:  persona.Default,
    messages: []MessageView{welcomeMessage(persona.Default)},
  }
  cs.sessions[key] = s
  return s, key, nil
}

func (s *sessionState) snapshot() *ChatState {
  msgs := make([]MessageView, len(s.messages))
  copy(msgs, s.messages)
  return &ChatState{
    ConversationID: s.conversationID,
    Persona:        s.persona,
    PersonaName:    persona.DisplayName(s.persona),
    Messages:       msgs,
  }
}

// deriveTitle truncates by characters, not bytes, so multibyte input
// never yields an invalid-UTF-8 title.
func deriveTitle(content string) string {
  runes := []rune(content)
  if len(runes) > titleMaxLen {
    return string(runes[:titleMaxLen]) + "..."
  }
  return content
}

// State returns the caller's current chat surface without mutating it.
func (cs *chatService) State(ctx context.Context) (*ChatState, error) {
  s, _, err := cs.sessionFor(ctx)
  if err != nil {
    return nil, err
  }
  s.mu.Lock()
  defer s.mu.Unlock()
  return s.snapshot(), nil
}

func (cs *chatService) SendMessage(ctx context.Context, content string) (*ChatState, error) {
  s, key, err := cs.sessionFor(ctx)
  if err != nil {
    return nil, err
  }
  s.mu.Lock()
  defer s.mu.Unlock()

  if strings.TrimSpace(content) == "" {
    return s.snapshot(), nil
  }

  //1) Lazily create the conversation on first send
  if s.conversationID == "" {
    chatID := uuid.New().String()
    chat := &ChatView{
      ID:      chatID,
      Title:   deriveTitle(content),
      Persona: persona.DisplayName(s.persona),
      Date:    time.Now(),
    }
    if cErr := s.repo.Create(ctx, chat); cErr != nil {
      cs.log.Warn("Failed to create conversation, continuing without persistence.", "error", cErr)
    } else {
      s.conversationID = chatID
    }
  }

  // History snapshot before this turn; the upstream request carries the
  // system prompt, prior turns, then the new user content.
  history := make([]ChatMessage, 0, len(s.messages)+2)
  history = append(history, ChatMessage{
    Role:    "system",
    Content: persona.SystemPrompt(persona.DisplayName(s.persona)),
  })
  for _, m := range s.messages {
    history = append(history, ChatMessage{
      Role:    roleForSender(m.Sender),
      Content: m.Content,
    })
  }
  history = append(history, ChatMessage{Role: "user", Content: content})

  //2) Optimistic user message
  userMsg := MessageView{
    ID:        uuid.New().String(),
    Content:   content,
    Sender:    "user",
    Timestamp: time.Now(),
  }
  s.messages = append(s.messages, userMsg)
  if s.conversationID != "" {
    if aErr := s.repo.AppendMessage(ctx, s.conversationID, userMsg); aErr != nil {
      cs.log.Warn("Failed to save user message, continuing.", "error", aErr)
    }
  }

  //3) Pending placeholder, replaced by id once the provider answers
  personaName := persona.DisplayName(s.persona)
  placeholder := MessageView{
    ID:        "loading-" + uuid.New().String(),
    Content:   "Thinking...",
    Sender:    "bot",
    Persona:   &personaName,
    Timestamp: time.Now(),
  }
  s.messages = append(s.messages, placeholder)

  //4) Provider call
  reply, provErr := cs.completeChat(ctx, history)

  botMsg := MessageView{
    ID:        uuid.New().String(),
    Sender:    "bot",
    Persona:   &personaName,
    Timestamp: time.Now(),
  }
  persistBot := false
  if provErr != nil {
    cs.log.Warn("Provider call failed, replacing placeholder with error message.", "error", provErr)
    botMsg.Content = userFacingMessage(provErr)
  } else {
    botMsg.Content = reply
    persistBot = true
  }
  cs.replaceMessageByID(s, placeholder.ID, botMsg)

  // Anonymous sessions mirror the rendered surface, error replies
  // included; the database only ever stores successful replies.
  if rd := requestdata.GetRequestData(ctx); rd != nil && !rd.Authenticated() {
    persistBot = true
  }
  if persistBot && s.conversationID != "" {
    if aErr := s.repo.AppendMessage(ctx, s.conversationID, botMsg); aErr != nil {
      cs.log.Warn("Failed to save bot message, continuing.", "error", aErr)
    }
  }
  cs.broadcast(key, s.conversationID)
  return s.snapshot(), nil
}

// completeChat resolves the caller's stored credential and routes the
// request to their selected provider.
func (cs *chatService) completeChat(ctx context.Context, history []ChatMessage) (string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || !rd.Authenticated() {
    return "", apperr.New(apperr.AuthRequired, "You must be logged in to use the chat. Please sign in.")
  }
  rec, err := cs.apiKeyRepo.GetByUserID(ctx, nil, rd.UserID)
  if err != nil {
    return "", apperr.Wrap(apperr.PersistenceError, "Failed to fetch API keys from database.", err)
  }
  if rec == nil {
    e := apperr.New(apperr.MissingCredential, "No API keys configured. Please add your API keys at /admin")
    e.NeedsSetup = true
    return "", e
  }
  provider, err := ParseProvider(rec.Service)
  if err != nil {
    provider = ProviderOpenAI
  }
  return cs.providerService.SendChat(ctx, provider, provider.KeyFrom(rec), history)
}

func (cs *chatService) replaceMessageByID(s *sessionState, id string, replacement MessageView) {
  for i := range s.messages {
    if s.messages[i].ID == id {
      s.messages[i] = replacement
      return
    }
  }
  s.messages = append(s.messages, replacement)
}

func (cs *chatService) NewChat(ctx context.Context) (*ChatState, error) {
  s, _, err := cs.sessionFor(ctx)
  if err != nil {
    return nil, err
  }
  s.mu.Lock()
  defer s.mu.Unlock()
  s.conversationID = ""
  s.messages = []MessageView{welcomeMessage(s.persona)}
  return s.snapshot(), nil
}

func (cs *chatService) SelectChat(ctx context.Context, chatID string) (*ChatState, error) {
  s, _, err := cs.sessionFor(ctx)
  if err != nil {
    return nil, err
  }
  s.mu.Lock()
  defer s.mu.Unlock()

  // Re-selecting the active chat is a no-op.
  if s.conversationID == chatID {
    return s.snapshot(), nil
  }

  chat, err := s.repo.Get(ctx, chatID)
  if err != nil {
    return nil, err
  }
  if chat == nil {
    return nil, apperr.New(apperr.ValidationError, "conversation not found")
  }
  s.conversationID = chat.ID
  s.messages = chat.Messages
  if len(s.messages) == 0 {
    s.messages = []MessageView{welcomeMessage(s.persona)}
  }
  s.persona = inferPersona(chat.Messages)
  return s.snapshot(), nil
}

// inferPersona walks the history backwards and adopts the persona of
// the most recent bot message carrying one.
func inferPersona(messages []MessageView) persona.ID {
  for i := len(messages) - 1; i >= 0; i-- {
    if messages[i].Sender == "bot" && messages[i].Persona != nil {
      return persona.FromDisplayName(*messages[i].Persona)
    }
  }
  return persona.Default
}

func (cs *chatService) ChangePersona(ctx context.Context, rawPersona string) (*ChatState, error) {
  s, _, err := cs.sessionFor(ctx)
  if err != nil {
    return nil, err
  }
  p := persona.ID(strings.ToLower(strings.TrimSpace(rawPersona)))
  if !persona.Valid(p) {
    return nil, apperr.Newf(apperr.ValidationError, "unknown persona: %s", rawPersona)
  }
  s.mu.Lock()
  defer s.mu.Unlock()

  s.persona = p
  botMsg := welcomeMessage(p)

  // Replace the most recent bot message with the new persona's welcome,
  // or append when the history has none. The replacement keeps the old
  // message id so the persisted copy can be updated in place.
  replaced := false
  for i := len(s.messages) - 1; i >= 0; i-- {
    if s.messages[i].Sender == "bot" {
      botMsg.ID = s.messages[i].ID
      s.messages[i] = botMsg
      replaced = true
      break
    }
  }
  if !replaced {
    s.messages = append(s.messages, botMsg)
  }

  if s.conversationID != "" {
    if uErr := s.repo.UpdatePersona(ctx, s.conversationID, persona.DisplayName(p)); uErr != nil {
      cs.log.Warn("Failed to persist conversation persona, continuing.", "error", uErr)
    }
    if replaced {
      if uErr := s.repo.UpdateMessage(ctx, s.conversationID, botMsg); uErr != nil {
        cs.log.Warn("Failed to persist replaced bot message, continuing.", "error", uErr)
      }
    }
  }
  return s.snapshot(), nil
}

func (cs *chatService) DeleteChat(ctx context.Context, chatID string) error {
  s, key, err := cs.sessionFor(ctx)
  if err != nil {
    return err
  }
  s.mu.Lock()
  defer s.mu.Unlock()
  if err := s.repo.Delete(ctx, chatID); err != nil {
    return err
  }
  if s.conversationID == chatID {
    s.conversationID = ""
    s.messages = []MessageView{welcomeMessage(s.persona)}
  }
  cs.broadcast(key, "")
  return nil
}

func (cs *chatService) History(ctx context.Context) ([]ChatView, error) {
  s, _, err := cs.sessionFor(ctx)
  if err != nil {
    return nil, err
  }
  s.mu.Lock()
  defer s.mu.Unlock()
  return s.repo.List(ctx)
}

func (cs *chatService) QuizComplete(ctx context.Context, score, total int) (*ChatState, error) {
  s, _, err := cs.sessionFor(ctx)
  if err != nil {
    return nil, err
  }
  s.mu.Lock()
  defer s.mu.Unlock()

  verdict := "Keep learning! There's always more to discover about sustainability."
  if total > 0 && float64(score) >= float64(total)*0.7 {
    verdict = "Great job! You have a solid understanding of this topic."
  }
  personaName := persona.DisplayName(s.persona)
  botMsg := MessageView{
    ID:        "quiz-result-" + uuid.New().String(),
    Content:   formatQuizResultMessage(score, total, verdict),
    Sender:    "bot",
    Persona:   &personaName,
    Timestamp: time.Now(),
  }
  s.messages = append(s.messages, botMsg)
  if s.conversationID != "" {
    if aErr := s.repo.AppendMessage(ctx, s.conversationID, botMsg); aErr != nil {
      cs.log.Warn("Failed to save quiz result message, continuing.", "error", aErr)
    }
  }
  return s.snapshot(), nil
}

func (cs *chatService) broadcast(sessionKey, conversationID string) {
  if cs.broadcaster == nil {
    return
  }
  cs.broadcaster.Publish(sessionKey, "conversation.updated", map[string]string{
    "conversationId": conversationID,
  })
}

func roleForSender(sender string) string {
  if sender == "user" {
    return "user"
  }
  return "assistant"
}

func userFacingMessage(err error) string {
  if appErr, ok := apperr.AsError(err); ok && appErr.Message != "" {
    return appErr.Message
  }
  return fallbackErrorMessage
}
