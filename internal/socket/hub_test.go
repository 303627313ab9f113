package socket

import (
  "testing"

  "github.com/google/uuid"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
)

func newTestHub(t *testing.T) *Hub {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  return NewHub(log)
}

func newTestClient(hub *Hub) *Client {
  return &Client{
    ID:       uuid.New(),
    Hub:      hub,
    Log:      hub.log,
    Outbound: make(chan Message, OutboundChanBuffer),
  }
}

func drain(c *Client) []Message {
  var msgs []Message
  for {
    select {
    case m := <-c.Outbound:
      msgs = append(msgs, m)
    default:
      return msgs
    }
  }
}

func TestPublishReachesChannelSubscribers(t *testing.T) {
  hub := newTestHub(t)
  subscribed := newTestClient(hub)
  other := newTestClient(hub)
  hub.Subscribe(subscribed, []string{"user:u1"})
  hub.Subscribe(other, []string{"user:u2"})

  hub.Publish("user:u1", "conversation.updated", map[string]string{"conversationId": "c1"})

  got := drain(subscribed)
  if len(got) != 1 {
    t.Fatalf("subscriber received %d messages, want 1", len(got))
  }
  if got[0].Event != "conversation.updated" || got[0].Channel != "user:u1" {
    t.Errorf("message = %+v", got[0])
  }
  if foreign := drain(other); len(foreign) != 0 {
    t.Errorf("client on another channel received %d messages", len(foreign))
  }
}

func TestDeliverRemoteSkipsOwnEcho(t *testing.T) {
  hub := newTestHub(t)
  client := newTestClient(hub)
  hub.Subscribe(client, []string{"user:u1"})

  hub.Publish("user:u1", "conversation.updated", nil)

  // The pub/sub subscription hands a node its own publish back; it must
  // not reach local clients a second time.
  hub.deliverRemote(Message{Channel: "user:u1", Event: "conversation.updated", NodeID: hub.nodeID})

  if got := drain(client); len(got) != 1 {
    t.Fatalf("client received %d messages, want exactly 1", len(got))
  }

  // A message from a different node does get delivered.
  hub.deliverRemote(Message{Channel: "user:u1", Event: "conversation.updated", NodeID: uuid.New().String()})
  if got := drain(client); len(got) != 1 {
    t.Errorf("remote message delivered %d times, want 1", len(got))
  }
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
  hub := newTestHub(t)
  client := newTestClient(hub)
  hub.Subscribe(client, []string{"user:u1"})
  hub.UnsubscribeFromChannel(client, "user:u1")

  hub.Publish("user:u1", "conversation.updated", nil)
  if got := drain(client); len(got) != 0 {
    t.Errorf("unsubscribed client received %d messages", len(got))
  }
}
