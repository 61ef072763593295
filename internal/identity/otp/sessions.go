package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/identity"
)

// SessionStore keeps the live session of each browsing context. Get
// returns nil, nil when there is none.
type SessionStore interface {
	Get(ctx context.Context, client string) (*identity.Session, error)
	Put(ctx context.Context, client string, s identity.Session) error
	Delete(ctx context.Context, client string) error
}

type RedisSessions struct {
	client *redis.Client
	prefix string
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client, prefix: "studio:session:"}
}

func (r *RedisSessions) key(client string) string { return r.prefix + client }

func (r *RedisSessions) Get(ctx context.Context, client string) (*identity.Session, error) {
	val, err := r.client.Get(ctx, r.key(client)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var s identity.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessions) Put(ctx context.Context, client string, s identity.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, client)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return r.client.Set(ctx, r.key(client), data, ttl).Err()
}

func (r *RedisSessions) Delete(ctx context.Context, client string) error {
	return r.client.Del(ctx, r.key(client)).Err()
}

// MemorySessions is used when no Redis is configured. Sessions do not
// survive a restart.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]identity.Session
	now      func() time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]identity.Session), now: time.Now}
}

func (m *MemorySessions) Get(_ context.Context, client string) (*identity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[client]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, client)
		return nil, nil
	}
	return &s, nil
}

func (m *MemorySessions) Put(_ context.Context, client string, s identity.Session) error {
	m.mu.Lock()
	m.sessions[client] = s
	m.mu.Unlock()
	return nil
}

func (m *MemorySessions) Delete(_ context.Context, client string) error {
	m.mu.Lock()
	delete(m.sessions, client)
	m.mu.Unlock()
	return nil
}
