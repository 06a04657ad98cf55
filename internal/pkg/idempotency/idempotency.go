// Package idempotency remembers the result of create requests carrying an Idempotency-Key header.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/apperror"
)

// Header is the request header clients use to make a create request retry safe.
const Header = "Idempotency-Key"

// Pending marks a key whose request has not finished yet.
const Pending = "pending"

// KeyBookingCreate is idem:booking:create:{user_id}:{client_key} -> {fingerprint}|{booking_id}
const KeyBookingCreate = "idem:booking:create:%s:%s"

var (
	ErrInFlight  = apperror.Conflict("a request with this idempotency key is still in progress")
	ErrKeyReused = apperror.Conflict("idempotency key was already used with a different request")
)

// Entry is the state stored under a key.
type Entry struct {
	Fingerprint string
	Value       string
}

// Pending reports whether the request that reserved the key is still running.
func (e Entry) Pending() bool {
	return e.Value == Pending
}

// Matches reports whether fingerprint belongs to the request that reserved the key.
func (e Entry) Matches(fingerprint string) bool {
	return e.Fingerprint == fingerprint
}

// Fingerprint hashes the fields that identify a request body.
func Fingerprint(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "\n")))
	return hex.EncodeToString(sum[:])
}

// Store reserves idempotency keys and records the id produced by the first request.
type Store interface {
	// Reserve claims key for the request identified by fingerprint.
	// When the key is already taken it returns the stored entry and reserved=false.
	Reserve(ctx context.Context, key, fingerprint string) (existing Entry, reserved bool, err error)
	// Complete records the id produced under key.
	Complete(ctx context.Context, key, fingerprint, value string) error
	// Release frees key after a failed request so the client can retry.
	Release(ctx context.Context, key string) error
}

// RedisStore keeps entries as "{fingerprint}|{value}" strings.
// A pending reservation expires after pendingTTL so a crashed request cannot hold its key for the full ttl.
type RedisStore struct {
	rdb        *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl, pendingTTL time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, pendingTTL: pendingTTL}
}

// NewClient connects to Redis and pings it.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key, fingerprint string) (Entry, bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, encode(fingerprint, Pending), s.pendingTTL).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("reserve idempotency key failed: %w", err)
	}
	if ok {
		return Entry{}, true, nil
	}

	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET.
		return Entry{Fingerprint: fingerprint, Value: Pending}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read idempotency key failed: %w", err)
	}
	return decode(val), false, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, fingerprint, value string) error {
	if err := s.rdb.Set(ctx, key, encode(fingerprint, value), s.ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release idempotency key failed: %w", err)
	}
	return nil
}

func encode(fingerprint, value string) string {
	return fingerprint + "|" + value
}

func decode(raw string) Entry {
	fingerprint, value, ok := strings.Cut(raw, "|")
	if !ok {
		return Entry{Value: raw}
	}
	return Entry{Fingerprint: fingerprint, Value: value}
}
