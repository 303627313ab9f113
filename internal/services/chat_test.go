package services

import (
  "context"
  "errors"
  "strings"
  "sync"
  "testing"
  "unicode/utf8"

  "github.com/google/uuid"

  "github.com/greenbot-org/greenbot-backend/internal/apperr"
  "github.com/greenbot-org/greenbot-backend/internal/localstore"
  "github.com/greenbot-org/greenbot-backend/internal/persona"
  "github.com/greenbot-org/greenbot-backend/internal/requestdata"
  "github.com/greenbot-org/greenbot-backend/internal/types"
)

type fakeProviderService struct {
  reply        string
  err          error
  calls        int
  lastMessages []ChatMessage
}

func (f *fakeProviderService) SendChat(ctx context.Context, provider Provider, apiKey string, messages []ChatMessage) (string, error) {
  f.calls++
  f.lastMessages = messages
  if f.err != nil {
    return "", f.err
  }
  return f.reply, nil
}

type recordingBroadcaster struct {
  mu     sync.Mutex
  events []string
}

func (b *recordingBroadcaster) Publish(channel string, event string, payload interface{}) {
  b.mu.Lock()
  defer b.mu.Unlock()
  b.events = append(b.events, channel+"/"+event)
}

type chatHarness struct {
  svc         *chatService
  provider    *fakeProviderService
  apiKeys     *fakeAPIKeyRepo
  broadcaster *recordingBroadcaster
  store       *localstore.Store
}

func newChatHarness(t *testing.T) *chatHarness {
  t.Helper()
  log := testLogger(t)
  store := localstore.NewStore(localstore.NewMemoryKV(), log)
  provider := &fakeProviderService{reply: "Composting is a great place to start."}
  apiKeys := &fakeAPIKeyRepo{record: &types.APIKeyRecord{OpenAIKey: "sk-test", Service: "openai"}}
  broadcaster := &recordingBroadcaster{}
  svc := NewChatService(nil, log, nil, nil, apiKeys, store, provider, broadcaster).(*chatService)
  return &chatHarness{svc: svc, provider: provider, apiKeys: apiKeys, broadcaster: broadcaster, store: store}
}

func anonContext(sessionID string) context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{AnonSessionID: sessionID})
}

// seedUserSession registers a session for an authenticated caller backed
// by the in-memory store, so chat flows run without a database.
func (h *chatHarness) seedUserSession(userID uuid.UUID) context.Context {
  key := "user:" + userID.String()
  h.svc.sessions[key] = &sessionState{
    repo:     NewLocalRepository(h.svc.log, h.store, key),
    persona:  persona.Default,
    messages: []MessageView{welcomeMessage(persona.Default)},
  }
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func TestStateReturnsFreshWelcome(t *testing.T) {
  h := newChatHarness(t)

  state, err := h.svc.State(anonContext("s1"))
  if err != nil {
    t.Fatalf("State: %v", err)
  }
  if state.Persona != persona.Default || state.ConversationID != "" {
    t.Errorf("fresh state = %+v", state)
  }
  if len(state.Messages) != 1 || state.Messages[0].Content != persona.WelcomeMessage(persona.Default) {
    t.Errorf("expected a single welcome message, got %+v", state.Messages)
  }
}

func TestSendMessageWithoutSession(t *testing.T) {
  h := newChatHarness(t)

  _, err := h.svc.SendMessage(context.Background(), "hello")
  if !apperr.IsKind(err, apperr.AuthRequired) {
    t.Errorf("expected AuthRequired without a session, got %v", err)
  }
}

func TestSendMessageBlankIsNoOp(t *testing.T) {
  h := newChatHarness(t)
  ctx := anonContext("s1")

  state, err := h.svc.SendMessage(ctx, "   ")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  if len(state.Messages) != 1 || state.Messages[0].Sender != "bot" {
    t.Errorf("blank send should leave only the welcome message, got %d messages", len(state.Messages))
  }
  if state.ConversationID != "" {
    t.Errorf("blank send created conversation %s", state.ConversationID)
  }
  if h.provider.calls != 0 {
    t.Errorf("provider called %d times for a blank send", h.provider.calls)
  }
}

func TestSendMessageAnonymousGetsSignInPrompt(t *testing.T) {
  h := newChatHarness(t)
  ctx := anonContext("s1")

  state, err := h.svc.SendMessage(ctx, "How do I start composting?")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  if h.provider.calls != 0 {
    t.Errorf("provider must not be called for anonymous senders, got %d calls", h.provider.calls)
  }
  if len(state.Messages) != 3 {
    t.Fatalf("expected welcome + user + bot, got %d messages", len(state.Messages))
  }
  last := state.Messages[2]
  if last.Sender != "bot" || last.Content != "You must be logged in to use the chat. Please sign in." {
    t.Errorf("last message = %+v", last)
  }
  for _, m := range state.Messages {
    if strings.HasPrefix(m.ID, "loading-") {
      t.Errorf("placeholder %s survived the turn", m.ID)
    }
  }

  // The chat is mirrored locally with the full rendered surface, the
  // sign-in prompt included.
  chats, err := h.store.LoadAll(ctx, "anon:s1")
  if err != nil {
    t.Fatalf("LoadAll: %v", err)
  }
  if len(chats) != 1 {
    t.Fatalf("expected one local chat, got %d", len(chats))
  }
  if chats[0].Title != "How do I start composting?" {
    t.Errorf("title = %q", chats[0].Title)
  }
  if len(chats[0].Messages) != 2 {
    t.Errorf("mirrored %d messages, want user + bot", len(chats[0].Messages))
  }
}

func TestSendMessageSuccess(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  state, err := h.svc.SendMessage(ctx, "How do I start composting?")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  if h.provider.calls != 1 {
    t.Fatalf("provider calls = %d, want 1", h.provider.calls)
  }
  if state.ConversationID == "" {
    t.Error("conversation not created on first send")
  }
  last := state.Messages[len(state.Messages)-1]
  if last.Sender != "bot" || last.Content != "Composting is a great place to start." {
    t.Errorf("last message = %+v", last)
  }
  if last.Persona == nil || *last.Persona != "GreenBot" {
    t.Errorf("bot message persona = %v", last.Persona)
  }

  // Bot reply persisted alongside the user message.
  chat, err := h.store.Get(ctx, "user:"+requestdata.GetRequestData(ctx).UserID.String(), state.ConversationID)
  if err != nil {
    t.Fatalf("store.Get: %v", err)
  }
  if chat == nil {
    t.Fatal("conversation not persisted")
  }
  if len(chat.Messages) != 2 {
    t.Errorf("persisted %d messages, want user + bot", len(chat.Messages))
  }

  if len(h.broadcaster.events) == 0 || !strings.HasSuffix(h.broadcaster.events[0], "/conversation.updated") {
    t.Errorf("broadcast events = %v", h.broadcaster.events)
  }
}

func TestSendMessageTitleTruncation(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  content := "What are the best renewable energy options for a small home?"
  state, err := h.svc.SendMessage(ctx, content)
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  chats, err := h.svc.History(ctx)
  if err != nil {
    t.Fatalf("History: %v", err)
  }
  if len(chats) != 1 {
    t.Fatalf("expected one chat, got %d", len(chats))
  }
  want := content[:30] + "..."
  if chats[0].Title != want {
    t.Errorf("title = %q, want %q", chats[0].Title, want)
  }
  if chats[0].ID != state.ConversationID {
    t.Errorf("history id %s != state id %s", chats[0].ID, state.ConversationID)
  }
}

func TestDeriveTitleCountsCharacters(t *testing.T) {
  short := "Wie kompostiere ich?"
  if got := deriveTitle(short); got != short {
    t.Errorf("short title changed: %q", got)
  }

  long := "Wie fange ich mit der Kompostierung an, ganz praktisch?"
  got := deriveTitle(long)
  if !utf8.ValidString(got) {
    t.Fatalf("truncated title is not valid UTF-8: %q", got)
  }
  if want := string([]rune(long)[:30]) + "..."; got != want {
    t.Errorf("title = %q, want %q", got, want)
  }

  // A multibyte rune on the boundary must not be split.
  boundary := strings.Repeat("a", 29) + "é" + "XY"
  got = deriveTitle(boundary)
  if !utf8.ValidString(got) {
    t.Errorf("boundary title is not valid UTF-8: %q", got)
  }
  if want := strings.Repeat("a", 29) + "é" + "..."; got != want {
    t.Errorf("boundary title = %q, want %q", got, want)
  }
}

func TestSendMessageHistorySentUpstream(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  if _, err := h.svc.SendMessage(ctx, "first question"); err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  if _, err := h.svc.SendMessage(ctx, "second question"); err != nil {
    t.Fatalf("SendMessage: %v", err)
  }

  msgs := h.provider.lastMessages
  if len(msgs) < 4 {
    t.Fatalf("upstream history too short: %d messages", len(msgs))
  }
  if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, "GreenBot") {
    t.Errorf("first upstream message = %+v, want persona system prompt", msgs[0])
  }
  last := msgs[len(msgs)-1]
  if last.Role != "user" || last.Content != "second question" {
    t.Errorf("last upstream message = %+v", last)
  }
  // The welcome and prior reply travel as assistant turns.
  if msgs[1].Role != "assistant" {
    t.Errorf("welcome message role = %q, want assistant", msgs[1].Role)
  }
}

func TestSendMessageProviderErrorReplacesPlaceholder(t *testing.T) {
  h := newChatHarness(t)
  h.provider.err = apperr.Upstream(401, "bad key", "Invalid API key. Please check your OPENAI API key in settings.")
  ctx := h.seedUserSession(uuid.New())

  state, err := h.svc.SendMessage(ctx, "hello there")
  if err != nil {
    t.Fatalf("SendMessage should not fail the turn: %v", err)
  }
  last := state.Messages[len(state.Messages)-1]
  if last.Content != "Invalid API key. Please check your OPENAI API key in settings." {
    t.Errorf("error reply = %q", last.Content)
  }

  // The failed reply must not be persisted.
  chat, _ := h.store.Get(ctx, "user:"+requestdata.GetRequestData(ctx).UserID.String(), state.ConversationID)
  if chat == nil {
    t.Fatal("conversation not persisted")
  }
  if len(chat.Messages) != 1 || chat.Messages[0].Sender != "user" {
    t.Errorf("persisted messages = %+v, want only the user message", chat.Messages)
  }
}

func TestSendMessageUnknownErrorUsesFallback(t *testing.T) {
  h := newChatHarness(t)
  h.provider.err = errors.New("tls handshake failed")
  ctx := h.seedUserSession(uuid.New())

  state, err := h.svc.SendMessage(ctx, "hello there")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  last := state.Messages[len(state.Messages)-1]
  if last.Content != fallbackErrorMessage {
    t.Errorf("fallback reply = %q", last.Content)
  }
}

func TestSendMessageMissingCredentialNeedsSetup(t *testing.T) {
  h := newChatHarness(t)
  h.apiKeys.record = nil
  ctx := h.seedUserSession(uuid.New())

  state, err := h.svc.SendMessage(ctx, "hello there")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  if h.provider.calls != 0 {
    t.Errorf("provider called with no credentials configured")
  }
  last := state.Messages[len(state.Messages)-1]
  if last.Content != "No API keys configured. Please add your API keys at /admin" {
    t.Errorf("reply = %q", last.Content)
  }
}

func TestNewChatResetsSession(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  if _, err := h.svc.SendMessage(ctx, "first question"); err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  state, err := h.svc.NewChat(ctx)
  if err != nil {
    t.Fatalf("NewChat: %v", err)
  }
  if state.ConversationID != "" {
    t.Errorf("conversation id not cleared: %s", state.ConversationID)
  }
  if len(state.Messages) != 1 || state.Messages[0].Content != persona.WelcomeMessage(persona.Default) {
    t.Errorf("expected a fresh welcome message, got %+v", state.Messages)
  }
}

func TestSelectChatRestoresHistory(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  first, err := h.svc.SendMessage(ctx, "first question")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  if _, err := h.svc.NewChat(ctx); err != nil {
    t.Fatalf("NewChat: %v", err)
  }
  if _, err := h.svc.SendMessage(ctx, "second chat question"); err != nil {
    t.Fatalf("SendMessage: %v", err)
  }

  state, err := h.svc.SelectChat(ctx, first.ConversationID)
  if err != nil {
    t.Fatalf("SelectChat: %v", err)
  }
  if state.ConversationID != first.ConversationID {
    t.Errorf("selected id = %s, want %s", state.ConversationID, first.ConversationID)
  }
  found := false
  for _, m := range state.Messages {
    if m.Sender == "user" && m.Content == "first question" {
      found = true
    }
  }
  if !found {
    t.Errorf("restored history missing original user message: %+v", state.Messages)
  }
}

func TestSelectChatSameIDIsNoOp(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  first, err := h.svc.SendMessage(ctx, "first question")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  state, err := h.svc.SelectChat(ctx, first.ConversationID)
  if err != nil {
    t.Fatalf("SelectChat: %v", err)
  }
  if len(state.Messages) != len(first.Messages) {
    t.Errorf("re-selecting the active chat changed state: %d vs %d messages", len(state.Messages), len(first.Messages))
  }
}

func TestSelectChatUnknownID(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  _, err := h.svc.SelectChat(ctx, uuid.New().String())
  if !apperr.IsKind(err, apperr.ValidationError) {
    t.Errorf("expected ValidationError for unknown chat, got %v", err)
  }
}

func TestSelectChatInfersPersona(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  if _, err := h.svc.ChangePersona(ctx, "waste"); err != nil {
    t.Fatalf("ChangePersona: %v", err)
  }
  first, err := h.svc.SendMessage(ctx, "how do I recycle glass")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  if _, err := h.svc.NewChat(ctx); err != nil {
    t.Fatalf("NewChat: %v", err)
  }
  if _, err := h.svc.ChangePersona(ctx, "energy"); err != nil {
    t.Fatalf("ChangePersona: %v", err)
  }

  state, err := h.svc.SelectChat(ctx, first.ConversationID)
  if err != nil {
    t.Fatalf("SelectChat: %v", err)
  }
  if state.Persona != persona.Waste {
    t.Errorf("inferred persona = %s, want waste", state.Persona)
  }
}

func TestChangePersonaReplacesLastBotMessage(t *testing.T) {
  h := newChatHarness(t)
  ctx := anonContext("s1")

  state, err := h.svc.ChangePersona(ctx, "climate")
  if err != nil {
    t.Fatalf("ChangePersona: %v", err)
  }
  if state.Persona != persona.Climate {
    t.Errorf("persona = %s", state.Persona)
  }
  if len(state.Messages) != 1 {
    t.Fatalf("expected the welcome to be replaced, got %d messages", len(state.Messages))
  }
  if state.Messages[0].Content != persona.WelcomeMessage(persona.Climate) {
    t.Errorf("welcome = %q", state.Messages[0].Content)
  }
}

func TestChangePersonaPersistsReplacedBotMessage(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  first, err := h.svc.SendMessage(ctx, "how do I recycle glass")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  if _, err := h.svc.ChangePersona(ctx, "waste"); err != nil {
    t.Fatalf("ChangePersona: %v", err)
  }

  chat, err := h.store.Get(ctx, "user:"+requestdata.GetRequestData(ctx).UserID.String(), first.ConversationID)
  if err != nil {
    t.Fatalf("store.Get: %v", err)
  }
  if chat == nil {
    t.Fatal("conversation not persisted")
  }
  if chat.Persona != "Waste Wizard" {
    t.Errorf("persisted persona = %q", chat.Persona)
  }
  last := chat.Messages[len(chat.Messages)-1]
  if last.Sender != "bot" || last.Content != persona.WelcomeMessage(persona.Waste) {
    t.Errorf("persisted bot message not replaced: %+v", last)
  }
}

func TestChangePersonaUnknown(t *testing.T) {
  h := newChatHarness(t)

  _, err := h.svc.ChangePersona(anonContext("s1"), "astronaut")
  if !apperr.IsKind(err, apperr.ValidationError) {
    t.Errorf("expected ValidationError, got %v", err)
  }
}

func TestDeleteChatResetsActiveSession(t *testing.T) {
  h := newChatHarness(t)
  ctx := h.seedUserSession(uuid.New())

  first, err := h.svc.SendMessage(ctx, "first question")
  if err != nil {
    t.Fatalf("SendMessage: %v", err)
  }
  if err := h.svc.DeleteChat(ctx, first.ConversationID); err != nil {
    t.Fatalf("DeleteChat: %v", err)
  }
  chats, err := h.svc.History(ctx)
  if err != nil {
    t.Fatalf("History: %v", err)
  }
  if len(chats) != 0 {
    t.Errorf("deleted chat still listed: %+v", chats)
  }
  state, err := h.svc.NewChat(ctx)
  if err != nil {
    t.Fatalf("NewChat: %v", err)
  }
  if state.ConversationID != "" {
    t.Errorf("session still pinned to deleted conversation")
  }
}

func TestQuizCompleteVerdicts(t *testing.T) {
  h := newChatHarness(t)
  ctx := anonContext("s1")

  state, err := h.svc.QuizComplete(ctx, 8, 10)
  if err != nil {
    t.Fatalf("QuizComplete: %v", err)
  }
  last := state.Messages[len(state.Messages)-1]
  if !strings.Contains(last.Content, "8/10") || !strings.Contains(last.Content, "Great job!") {
    t.Errorf("high score message = %q", last.Content)
  }

  state, err = h.svc.QuizComplete(ctx, 3, 10)
  if err != nil {
    t.Fatalf("QuizComplete: %v", err)
  }
  last = state.Messages[len(state.Messages)-1]
  if !strings.Contains(last.Content, "3/10") || !strings.Contains(last.Content, "Keep learning!") {
    t.Errorf("low score message = %q", last.Content)
  }
}
