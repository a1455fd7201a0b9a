package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noteyou/noteyou/internal/logging"
)

// RedisDriver is the document-store backend: one hash per collection, field
// = record id, value = JSON document. Filtering is client-side, which keeps
// query semantics identical to the other backends.
type RedisDriver struct {
	addr     string
	password string
	rdb      *redis.Client
	log      logging.Logger
}

func NewRedisDriver(addr, password string, log logging.Logger) *RedisDriver {
	return &RedisDriver{addr: addr, password: password, log: log.With("backend", "redis")}
}

// NewRedisDriverWithClient wraps an existing client; used by tests.
func NewRedisDriverWithClient(rdb *redis.Client, log logging.Logger) *RedisDriver {
	return &RedisDriver{rdb: rdb, log: log.With("backend", "redis")}
}

func (d *RedisDriver) key(collection string) string {
	return "noteyou:" + collection
}

func (d *RedisDriver) Init(ctx context.Context) error {
	if d.rdb == nil {
		if d.addr == "" {
			return fmt.Errorf("redis: not configured")
		}
		d.rdb = redis.NewClient(&redis.Options{
			Addr:     d.addr,
			Password: d.password,
			DB:       0,
		})
	}
	if err := d.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (d *RedisDriver) Put(ctx context.Context, collection string, rec Record) error {
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("redis put %q: record has no id", collection)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis marshal %s: %w", collection, err)
	}
	if err := d.rdb.HSet(ctx, d.key(collection), id, data).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", collection, err)
	}
	return nil
}

func (d *RedisDriver) QueryAll(ctx context.Context, collection string, filter Record) ([]Record, error) {
	entries, err := d.rdb.HGetAll(ctx, d.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", collection, err)
	}

	result := []Record{}
	for id, raw := range entries {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			// One corrupt document must not hide the rest of the collection.
			d.log.Warn(ctx, "skipping unparsable document", "collection", collection, "id", id, "error", err)
			continue
		}
		if rec.Matches(filter) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (d *RedisDriver) DeleteByID(ctx context.Context, collection string, id string) error {
	if err := d.rdb.HDel(ctx, d.key(collection), id).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", collection, err)
	}
	return nil
}

func (d *RedisDriver) Capabilities() Capabilities {
	return Capabilities{
		Type:     "redis",
		Features: []string{"nosql", "transactions", "indexes", "versioning"},
	}
}

func (d *RedisDriver) Close() error {
	if d.rdb == nil {
		return nil
	}
	return d.rdb.Close()
}
