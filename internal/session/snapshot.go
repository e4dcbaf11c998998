package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/antoniostano/omnicart/internal/intent"
)

// SnapshotStore keeps serialized copies of sessions outside the process.
type SnapshotStore interface {
	Save(ctx context.Context, s *State) error
	Load(ctx context.Context, sessionID string) (*State, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// NewSnapshotStore returns a Redis-backed store when addr is set, otherwise an
// in-process one.
func NewSnapshotStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (SnapshotStore, error) {
	if strings.TrimSpace(addr) == "" {
		return NewInMemorySnapshots(), nil
	}
	return NewRedisSnapshots(ctx, redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), ttl)
}

type InMemorySnapshots struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewInMemorySnapshots() *InMemorySnapshots {
	return &InMemorySnapshots{items: make(map[string][]byte)}
}

func (s *InMemorySnapshots) Save(_ context.Context, st *State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encode session snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[st.ID] = raw
	return nil
}

func (s *InMemorySnapshots) Load(_ context.Context, sessionID string) (*State, error) {
	s.mu.RLock()
	raw, ok := s.items[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeSnapshot(raw)
}

func (s *InMemorySnapshots) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}

func (s *InMemorySnapshots) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *InMemorySnapshots) Close() error { return nil }

const redisKeyPrefix = "omnicart:session:"

type RedisSnapshots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshots(ctx context.Context, client *redis.Client, ttl time.Duration) (*RedisSnapshots, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connect redis")
	}
	return &RedisSnapshots{client: client, ttl: ttl}, nil
}

func (s *RedisSnapshots) Save(ctx context.Context, st *State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encode session snapshot")
	}
	if err := s.client.Set(ctx, redisKeyPrefix+st.ID, raw, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "save session snapshot %s", st.ID)
	}
	return nil
}

func (s *RedisSnapshots) Load(ctx context.Context, sessionID string) (*State, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load session snapshot %s", sessionID)
	}
	return decodeSnapshot(raw)
}

func (s *RedisSnapshots) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return errors.Wrapf(err, "delete session snapshot %s", sessionID)
	}
	return nil
}

func (s *RedisSnapshots) Close() error {
	return s.client.Close()
}

func decodeSnapshot(raw []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, errors.Wrap(err, "decode session snapshot")
	}
	if st.AgentUsage == nil {
		st.AgentUsage = map[string]int{}
	}
	if st.Cart == nil {
		st.Cart = []CartLine{}
	}
	// Tags written by an older build may no longer classify.
	if st.Intent != "" && !intent.Valid(st.Intent) {
		st.Intent = ""
	}
	return &st, nil
}
