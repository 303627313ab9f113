package socket

import (
  "sync"

  "github.com/google/uuid"

  "github.com/greenbot-org/greenbot-backend/internal/logger"
)

// Message is one event pushed to subscribers of a session channel.
// Channels are session keys ("user:<id>" or "anon:<id>"). NodeID marks
// the hub that first published the message so the pub/sub echo of a
// node's own publish is not delivered twice.
type Message struct {
  Channel string      `json:"channel,omitempty"`
  Event   string      `json:"event,omitempty"`
  Payload interface{} `json:"payload,omitempty"`
  NodeID  string      `json:"nodeId,omitempty"`
}

type Hub struct {
  log      *logger.Logger
  nodeID   string
  mu       sync.RWMutex
  channels map[string]map[uuid.UUID]*Client

  redisPubSub *RedisPubSub
}

func NewHub(log *logger.Logger) *Hub {
  return &Hub{
    log:      log.With("component", "SocketHub"),
    nodeID:   uuid.New().String(),
    channels: make(map[string]map[uuid.UUID]*Client),
  }
}

func (h *Hub) SetRedisPubSub(rp *RedisPubSub) {
  h.redisPubSub = rp
}

func (h *Hub) Subscribe(client *Client, channels []string) {
  h.mu.Lock()
  defer h.mu.Unlock()

  for _, ch := range channels {
    if h.channels[ch] == nil {
      h.channels[ch] = make(map[uuid.UUID]*Client)
    }
    h.channels[ch][client.ID] = client
  }
  h.log.Debug("Client subscribed", "client", client.ID, "channels", channels)
}

func (h *Hub) Unsubscribe(client *Client) {
  h.mu.Lock()
  defer h.mu.Unlock()

  for ch, clientsMap := range h.channels {
    if _, ok := clientsMap[client.ID]; ok {
      delete(clientsMap, client.ID)
      if len(clientsMap) == 0 {
        delete(h.channels, ch)
      }
    }
  }
  h.log.Debug("Client unsubscribed from all channels", "client", client.ID)
}

func (h *Hub) UnsubscribeFromChannel(client *Client, channel string) {
  h.mu.Lock()
  defer h.mu.Unlock()
  if clientsMap, ok := h.channels[channel]; ok {
    delete(clientsMap, client.ID)
    if len(clientsMap) == 0 {
      delete(h.channels, channel)
    }
  }
}

func (h *Hub) localBroadcast(msg Message) {
  h.mu.RLock()
  defer h.mu.RUnlock()

  clientsMap, ok := h.channels[msg.Channel]
  if !ok {
    return
  }
  for _, client := range clientsMap {
    select {
    case client.Outbound <- msg:
    default:
      h.log.Warn("Dropping message to client; outbound buffer full", "client", client.ID, "channel", msg.Channel)
    }
  }
}

// Publish fans an event out to local subscribers of the channel and,
// when Redis pub/sub is wired, to every other node.
func (h *Hub) Publish(channel string, event string, payload interface{}) {
  msg := Message{
    Channel: channel,
    Event:   event,
    Payload: payload,
    NodeID:  h.nodeID,
  }
  h.localBroadcast(msg)

  if h.redisPubSub != nil {
    if err := h.redisPubSub.Publish(msg); err != nil {
      h.log.Warn("Failed to publish to Redis", "error", err)
    }
  }
}

// deliverRemote hands a pub/sub message to local subscribers unless
// this node published it, in which case localBroadcast already ran.
func (h *Hub) deliverRemote(msg Message) {
  if msg.NodeID == h.nodeID {
    return
  }
  h.localBroadcast(msg)
}
