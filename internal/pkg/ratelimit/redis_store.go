// internal/pkg/ratelimit/redis_store.go
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisRetries = 50

// ErrContention is returned when optimistic retries on one key run out.
var ErrContention = errors.New("ratelimit: too much contention on key")

// RedisStore keeps one hash per key. Updates are WATCH/MULTI transactions and
// keys expire at their reset time, so Sweep has nothing to do.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	maxRetries int
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{
		client:     client,
		prefix:     prefix,
		maxRetries: defaultRedisRetries,
	}
}

func (s *RedisStore) Update(ctx context.Context, key string, fn func(Record, bool) Record) error {
	rkey := s.prefix + key

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HGetAll(ctx, rkey).Result()
		if err != nil {
			return err
		}
		rec, found, err := decodeRecord(key, vals)
		if err != nil {
			return err
		}

		next := fn(rec, found)
		if found && sameRecord(rec, next) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, rkey,
				"count", next.Count,
				"start", next.WindowStart.UnixMilli(),
				"reset", next.ResetTime.UnixMilli(),
			)
			pipe.PExpireAt(ctx, rkey, next.ResetTime)
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.client.Watch(ctx, txf, rkey)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrContention
}

func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func decodeRecord(key string, vals map[string]string) (Record, bool, error) {
	if len(vals) == 0 {
		return Record{}, false, nil
	}
	count, err := strconv.Atoi(vals["count"])
	if err != nil {
		return Record{}, false, fmt.Errorf("decode count for %q: %w", key, err)
	}
	start, err := strconv.ParseInt(vals["start"], 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("decode window start for %q: %w", key, err)
	}
	reset, err := strconv.ParseInt(vals["reset"], 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("decode reset time for %q: %w", key, err)
	}
	return Record{
		Key:         key,
		Count:       count,
		WindowStart: time.UnixMilli(start),
		ResetTime:   time.UnixMilli(reset),
	}, true, nil
}

func sameRecord(a, b Record) bool {
	return a.Count == b.Count && a.WindowStart.Equal(b.WindowStart) && a.ResetTime.Equal(b.ResetTime)
}
