package persona

import (
  "strings"
  "testing"
)

func TestDisplayNameRoundTrip(t *testing.T) {
  for _, id := range All {
    name := DisplayName(id)
    if name == "" {
      t.Errorf("DisplayName(%s) returned empty string", id)
    }
    if got := FromDisplayName(name); got != id {
      t.Errorf("FromDisplayName(%q) = %s, want %s", name, got, id)
    }
  }
}

func TestDisplayNameUnknownFallsBack(t *testing.T) {
  if got := DisplayName("mystery"); got != "GreenBot" {
    t.Errorf("DisplayName(unknown) = %q, want GreenBot", got)
  }
  if got := FromDisplayName("Mystery Bot"); got != Default {
    t.Errorf("FromDisplayName(unknown) = %s, want %s", got, Default)
  }
}

func TestValid(t *testing.T) {
  for _, id := range All {
    if !Valid(id) {
      t.Errorf("Valid(%s) = false, want true", id)
    }
  }
  if Valid("") {
    t.Error("Valid(\"\") = true, want false")
  }
  if Valid("mystery") {
    t.Error("Valid(mystery) = true, want false")
  }
}

func TestWelcomeMessageIntroducesPersona(t *testing.T) {
  for _, id := range All {
    msg := WelcomeMessage(id)
    if msg == "" {
      t.Errorf("WelcomeMessage(%s) is empty", id)
      continue
    }
    if !strings.Contains(msg, DisplayName(id)) {
      t.Errorf("WelcomeMessage(%s) = %q does not mention %q", id, msg, DisplayName(id))
    }
  }
}

func TestQuizTitle(t *testing.T) {
  if got := QuizTitle(Waste); got != "Waste Management Quiz" {
    t.Errorf("QuizTitle(waste) = %q", got)
  }
  if got := QuizTitle("mystery"); got != "Environmental Quiz" {
    t.Errorf("QuizTitle(unknown) = %q", got)
  }
}

func TestSystemPromptMentionsDisplayName(t *testing.T) {
  for _, id := range All {
    name := DisplayName(id)
    prompt := SystemPrompt(name)
    if !strings.Contains(prompt, name) {
      t.Errorf("SystemPrompt(%q) does not mention the persona name", name)
    }
  }
}
