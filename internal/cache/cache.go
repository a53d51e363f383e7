package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stayscout/stayscout/internal/config"
)

// CoordPrecision is the number of decimal places coordinates are rounded to
// before key construction (~11 m), so near-duplicate lookups collapse to one
// entry.
const CoordPrecision = 4

// SignalCache stores fetched signal payloads keyed by (tool, rounded
// coordinate, parameter set). Absence of an entry is never an error; Set is
// an upsert and fetch-then-store races for the same key are benign.
type SignalCache interface {
	Get(ctx context.Context, tool string, lat, lon float64, params map[string]interface{}) (json.RawMessage, bool)
	Set(ctx context.Context, tool string, lat, lon float64, params map[string]interface{}, payload json.RawMessage) error
}

// Key is a pure function of its inputs: same tool, rounded coordinates and
// canonicalized params always produce the same key. json.Marshal sorts map
// keys, which makes the params portion canonical regardless of insertion
// order.
func Key(tool string, lat, lon float64, params map[string]interface{}) string {
	canonical, err := json.Marshal(params)
	if err != nil {
		canonical = []byte("{}")
	}
	return fmt.Sprintf("signal:%s|%.*f|%.*f|%s", tool, CoordPrecision, lat, CoordPrecision, lon, canonical)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type MemoryCache struct {
	mu    sync.Mutex
	items map[string]entry
}

type entry struct {
	payload   json.RawMessage
	updatedAt time.Time
}

// New connects to Redis when configured and reachable, otherwise falls back
// to the in-memory cache.
func New(cfg config.CacheConfig) SignalCache {
	if cfg.RedisURL == "" {
		return NewMemoryCache()
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return NewMemoryCache()
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return NewMemoryCache()
	}
	return &RedisCache{client: client, ttl: time.Duration(cfg.TTLSeconds) * time.Second}
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]entry)}
}

func (r *RedisCache) Get(ctx context.Context, tool string, lat, lon float64, params map[string]interface{}) (json.RawMessage, bool) {
	b, err := r.client.Get(ctx, Key(tool, lat, lon, params)).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *RedisCache) Set(ctx context.Context, tool string, lat, lon float64, params map[string]interface{}, payload json.RawMessage) error {
	return r.client.Set(ctx, Key(tool, lat, lon, params), []byte(payload), r.ttl).Err()
}

func (m *MemoryCache) Get(_ context.Context, tool string, lat, lon float64, params map[string]interface{}) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[Key(tool, lat, lon, params)]
	if !ok {
		return nil, false
	}
	return it.payload, true
}

func (m *MemoryCache) Set(_ context.Context, tool string, lat, lon float64, params map[string]interface{}, payload json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[Key(tool, lat, lon, params)] = entry{payload: payload, updatedAt: time.Now().UTC()}
	return nil
}
