package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// Store keeps one ordered log per room code.
type Store interface {
	Append(ctx context.Context, code string, rec Record) error
	Load(ctx context.Context, code string) ([]Record, error)
	Delete(ctx context.Context, code string) error
}

type MemoryStore struct {
	mu   sync.Mutex
	logs map[string][][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][][]byte)}
}

func (m *MemoryStore) Append(_ context.Context, code string, rec Record) error {
	data, err := encode(rec)
	if err != nil {
		return errors.Wrap(err, "encode record")
	}
	m.mu.Lock()
	m.logs[code] = append(m.logs[code], data)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, code string) ([]Record, error) {
	m.mu.Lock()
	raw := append([][]byte(nil), m.logs[code]...)
	m.mu.Unlock()
	return decodeAll(raw)
}

func (m *MemoryStore) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	delete(m.logs, code)
	m.mu.Unlock()
	return nil
}

// RedisStore keeps each log in a Redis list. Every append pushes the key's
// expiry back by ttl, so finished rooms age out on their own.
type RedisStore struct {
	rdclient *redis.Client
	ttl      time.Duration
}

func NewRedisStore(addr string, db int, ttl time.Duration) *RedisStore {
	rdclient := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &RedisStore{
		rdclient: rdclient,
		ttl:      ttl,
	}
}

func redisKey(code string) string {
	return "coinchette:eventlog:" + code
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdclient.Ping(ctx).Err()
}

func (r *RedisStore) Append(ctx context.Context, code string, rec Record) error {
	data, err := encode(rec)
	if err != nil {
		return errors.Wrap(err, "encode record")
	}
	key := redisKey(code)
	pipe := r.rdclient.TxPipeline()
	pipe.RPush(ctx, key, data)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "append to %s", key)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, code string) ([]Record, error) {
	key := redisKey(code)
	items, err := r.rdclient.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", key)
	}
	raw := make([][]byte, len(items))
	for i, it := range items {
		raw[i] = []byte(it)
	}
	return decodeAll(raw)
}

func (r *RedisStore) Delete(ctx context.Context, code string) error {
	return r.rdclient.Del(ctx, redisKey(code)).Err()
}

func (r *RedisStore) Close() error {
	return r.rdclient.Close()
}

func decodeAll(raw [][]byte) ([]Record, error) {
	out := make([]Record, 0, len(raw))
	for i, data := range raw {
		rec, err := decode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "decode record %d", i)
		}
		out = append(out, rec)
	}
	return out, nil
}
