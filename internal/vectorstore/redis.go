package vectorstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/gotn-ai/gotn/internal/gotnerr"
)

// Redis is the remote vector backend, storing each vector as a binary
// float32 blob under key "vec:{projectID}:{id}". Search is a client-side
// scan of the project's keys with cosine ranking; no RediSearch vector
// index is created or queried. This matches the way limiter_redis.go
// wraps a *redis.Client with domain-specific operations.
type Redis struct {
	client  *redis.Client
	indexed bool
}

// NewRedis builds a Redis-backed vector store against addr.
func NewRedis(addr, password string, db int) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func vecKey(projectID, id string) string {
	return fmt.Sprintf("vec:%s:%s", projectID, id)
}

func encodeVec(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVec(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(buf[i*4:]))
	}
	return out
}

func (r *Redis) Put(ctx context.Context, projectID, id string, vec []float32) error {
	key := vecKey(projectID, id)
	err := r.client.HSet(ctx, key, map[string]interface{}{
		"vec": encodeVec(vec),
		"id":  id,
	}).Err()
	if err != nil {
		return gotnerr.Wrap(gotnerr.KindBackendUnavail, "redis vector put", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, projectID, id string) error {
	if err := r.client.Del(ctx, vecKey(projectID, id)).Err(); err != nil {
		return gotnerr.Wrap(gotnerr.KindBackendUnavail, "redis vector delete", err)
	}
	return nil
}

// Search walks the keys matching vec:{projectID}:* with SCAN, reads each
// hash with HGETALL, and ranks the results client-side by cosine
// similarity. It never issues FT.SEARCH.
func (r *Redis) Search(ctx context.Context, projectID string, vec []float32, k int) ([]Match, error) {
	pattern := fmt.Sprintf("vec:%s:*", projectID)
	var matches []Match

	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		vals, err := r.client.HGetAll(ctx, key).Result()
		if err != nil {
			continue
		}
		raw, ok := vals["vec"]
		if !ok {
			continue
		}
		other := decodeVec([]byte(raw))
		matches = append(matches, Match{ID: vals["id"], Score: CosineSimilarity(vec, other)})
	}
	if err := iter.Err(); err != nil {
		return nil, gotnerr.Wrap(gotnerr.KindBackendUnavail, "redis vector scan", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Ping checks reachability, used by Select below.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Select returns a Redis-backed store if addr is non-empty and reachable,
// otherwise an in-memory fallback store, logging nothing itself — callers
// decide whether to warn on degraded mode.
func Select(ctx context.Context, addr, password string, db int) (Store, bool) {
	if addr == "" {
		return NewMemory(), false
	}
	r := NewRedis(addr, password, db)
	if err := r.Ping(ctx); err != nil {
		return NewMemory(), false
	}
	return r, true
}
