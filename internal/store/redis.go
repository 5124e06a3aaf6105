package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys when no prefix is configured
const DefaultRedisPrefix = "multicast:"

// RedisStore keeps runs in redis: one JSON document per run, a sorted set
// indexing runs by start time, and one hash per run mapping target ids to
// their bindings
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to addr and checks the connection
func OpenRedis(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) runKey(id uuid.UUID) string      { return s.prefix + "run:" + id.String() }
func (s *RedisStore) bindingsKey(id uuid.UUID) string { return s.prefix + "bindings:" + id.String() }
func (s *RedisStore) indexKey() string                { return s.prefix + "runs" }

// SaveRun writes a snapshot atomically
func (s *RedisStore) SaveRun(ctx context.Context, snap *Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}

	byTarget := make(map[string][]BindingRecord)
	var order []string
	for _, b := range snap.Bindings {
		if _, ok := byTarget[b.Target]; !ok {
			order = append(order, b.Target)
		}
		byTarget[b.Target] = append(byTarget[b.Target], b)
	}
	fields := make([]any, 0, 2*len(order))
	for _, target := range order {
		data, err := json.Marshal(byTarget[target])
		if err != nil {
			return fmt.Errorf("failed to encode bindings of %s: %w", target, err)
		}
		fields = append(fields, target, data)
	}

	id := snap.Run.ID
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.runKey(id), doc, 0)
		if len(fields) > 0 {
			pipe.HSet(ctx, s.bindingsKey(id), fields...)
		}
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{
			Score:  float64(snap.Run.StartedAt.UnixMilli()),
			Member: id.String(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns every run, most recent first
func (s *RedisStore) ListRuns(ctx context.Context) ([]Run, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.prefix + "run:" + id
	}
	docs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	runs := make([]Run, 0, len(docs))
	for i, doc := range docs {
		str, ok := doc.(string)
		if !ok {
			// The index may outlive an expired run document
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(str), &snap); err != nil {
			return nil, fmt.Errorf("failed to decode run %s: %w", ids[i], err)
		}
		runs = append(runs, snap.Run)
	}
	return runs, nil
}

// GetRun returns a run with its bindings and diagnostics
func (s *RedisStore) GetRun(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}
	return &snap, nil
}

// FindBindings returns the bindings of a run. A single target is read from
// the per-run hash; an empty target reads the run document.
func (s *RedisStore) FindBindings(ctx context.Context, id uuid.UUID, target string) ([]BindingRecord, error) {
	if target == "" {
		snap, err := s.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		return snap.Bindings, nil
	}

	data, err := s.client.HGet(ctx, s.bindingsKey(id), target).Bytes()
	if errors.Is(err, redis.Nil) {
		exists, err := s.client.Exists(ctx, s.runKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check run: %w", err)
		}
		if exists == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bindings: %w", err)
	}
	var out []BindingRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode bindings: %w", err)
	}
	return out, nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
