// Package cache holds the Redis-backed idempotency store for mutating HTTP requests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"medstore/internal/core/apperror"
)

// IdempotencyStatus is the state of one idempotency key.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
)

const (
	defaultKeyPrefix      = "medstore:idempotency:"
	defaultPendingTimeout = time.Minute
)

// KV is the subset of the Redis client the store uses. *redis.Client satisfies it.
type KV interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyRecord is the JSON value stored under a key.
type IdempotencyRecord struct {
	UserID      string            `json:"userId"`
	Operation   string            `json:"operation"`
	RequestHash string            `json:"requestHash"`
	Status      IdempotencyStatus `json:"status"`
	StatusCode  int               `json:"statusCode,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	Body        []byte            `json:"body,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// IdempotencyReplay is a stored response to send again.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore remembers completed responses per key for ttl.
// A key is pending while its first request runs; a concurrent duplicate gets a conflict.
type IdempotencyStore struct {
	kv             KV
	prefix         string
	ttl            time.Duration
	pendingTimeout time.Duration
	now            func() time.Time
}

// NewIdempotencyStore creates a store on kv.
func NewIdempotencyStore(kv KV, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		kv:             kv,
		prefix:         defaultKeyPrefix,
		ttl:            ttl,
		pendingTimeout: defaultPendingTimeout,
		now:            time.Now,
	}
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// AcquireKey claims key for a request. It returns a replay when the key already
// completed, nil when the caller should run the request.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	rec := IdempotencyRecord{
		UserID:      userID,
		Operation:   operation,
		RequestHash: requestHash,
		Status:      IdempotencyStatusPending,
		UpdatedAt:   s.now().UTC(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal idempotency record: %w", err)
	}

	acquired, err := s.kv.SetNX(ctx, s.prefix+key, payload, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if acquired {
		return nil, nil
	}

	stored, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		// expired between SETNX and GET
		return s.AcquireKey(ctx, key, userID, operation, requestHash)
	}

	if stored.UserID != userID || stored.Operation != operation || stored.RequestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}

	switch stored.Status {
	case IdempotencyStatusSuccess:
		return &IdempotencyReplay{
			StatusCode:  stored.StatusCode,
			ContentType: stored.ContentType,
			Body:        stored.Body,
		}, nil
	default:
		if s.now().Sub(stored.UpdatedAt) > s.pendingTimeout {
			// the first request died without completing; take the key over
			if err := s.kv.Set(ctx, s.prefix+key, payload, s.ttl).Err(); err != nil {
				return nil, fmt.Errorf("reclaim idempotency key: %w", err)
			}
			return nil, nil
		}
		return nil, apperror.NewIdempotencyConflict(key)
	}
}

// CompleteKey stores the response of a successful request.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	stored, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if stored == nil {
		return nil
	}

	stored.Status = IdempotencyStatusSuccess
	stored.StatusCode = statusCode
	stored.ContentType = contentType
	stored.Body = body
	stored.UpdatedAt = s.now().UTC()

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	return s.kv.Set(ctx, s.prefix+key, payload, s.ttl).Err()
}

// ReleaseKey forgets key so the request can be retried.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	return s.kv.Del(ctx, s.prefix+key).Err()
}

func (s *IdempotencyStore) load(ctx context.Context, key string) (*IdempotencyRecord, error) {
	raw, err := s.kv.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}

	var rec IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	return &rec, nil
}
