package localstore

import (
  "context"
  "errors"
  "sync"

  "github.com/redis/go-redis/v9"
)

// KV is the small slice of key-value storage the anonymous chat mirror
// needs. The Redis implementation backs production; the memory
// implementation backs tests.
type KV interface {
  Get(ctx context.Context, key string) (string, bool, error)
  Set(ctx context.Context, key, value string) error
  Del(ctx context.Context, key string) error
}

type redisKV struct {
  client *redis.Client
}

func NewRedisKV(client *redis.Client) KV {
  return &redisKV{client: client}
}

func (r *redisKV) Get(ctx context.Context, key string) (string, bool, error) {
  val, err := r.client.Get(ctx, key).Result()
  if err != nil {
    if errors.Is(err, redis.Nil) {
      return "", false, nil
    }
    return "", false, err
  }
  return val, true, nil
}

func (r *redisKV) Set(ctx context.Context, key, value string) error {
  return r.client.Set(ctx, key, value, 0).Err()
}

func (r *redisKV) Del(ctx context.Context, key string) error {
  return r.client.Del(ctx, key).Err()
}

type memoryKV struct {
  mu   sync.RWMutex
  data map[string]string
}

func NewMemoryKV() KV {
  return &memoryKV{data: make(map[string]string)}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, bool, error) {
  m.mu.RLock()
  defer m.mu.RUnlock()
  val, ok := m.data[key]
  return val, ok, nil
}

func (m *memoryKV) Set(ctx context.Context, key, value string) error {
  m.mu.Lock()
  defer m.mu.Unlock()
  m.data[key] = value
  return nil
}

func (m *memoryKV) Del(ctx context.Context, key string) error {
  m.mu.Lock()
  defer m.mu.Unlock()
  delete(m.data, key)
  return nil
}
