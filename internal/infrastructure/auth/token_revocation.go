package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/markethub/backend/internal/infrastructure/config"
)

// TokenRevocationList tracks tokens that must no longer be accepted even
// though their signature and expiry are still valid. Entries carry the TTL
// of the token they shadow, so the list stays small.
type TokenRevocationList interface {
	// Revoke marks a single token (by jti) as revoked for the given TTL.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether the token with the given jti was revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeUser invalidates every token issued to the user before now.
	// Used for force-logout and account deactivation.
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error

	// IsUserRevoked reports whether a token issued to the user at issuedAt
	// falls inside a user-level revocation window.
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const revocationKeyPrefix = "token:revoked:"

// RedisTokenRevocationList stores revocations in Redis with per-entry TTLs.
type RedisTokenRevocationList struct {
	client *redis.Client
}

// NewRedisTokenRevocationList connects to Redis using the cache settings.
func NewRedisTokenRevocationList(cfg config.RedisConfig) (*RedisTokenRevocationList, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisTokenRevocationList{client: client}, nil
}

// NewRedisTokenRevocationListWithClient wraps an existing client, sharing
// the connection pool with the rest of the cache layer.
func NewRedisTokenRevocationListWithClient(client *redis.Client) *RedisTokenRevocationList {
	return &RedisTokenRevocationList{client: client}
}

func (r *RedisTokenRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// The token is already past its expiry; nothing to shadow.
		return nil
	}
	key := revocationKeyPrefix + "jti:" + jti
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisTokenRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	key := revocationKeyPrefix + "jti:" + jti
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}

func (r *RedisTokenRevocationList) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	key := revocationKeyPrefix + "user:" + userID
	cutoff := strconv.FormatInt(time.Now().Unix(), 10)
	if err := r.client.Set(ctx, key, cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

func (r *RedisTokenRevocationList) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	key := revocationKeyPrefix + "user:" + userID
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user revocation: %w", err)
	}

	cutoff, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse revocation cutoff: %w", err)
	}

	// Tokens issued at or before the cutoff are dead; a token from a fresh
	// login after the revocation is fine.
	return issuedAt.Unix() <= cutoff, nil
}

// InMemoryTokenRevocationList is a process-local implementation for tests
// and single-node development setups.
type InMemoryTokenRevocationList struct {
	mu         sync.RWMutex
	tokens     map[string]time.Time // jti -> entry expiry
	userCutoff map[string]time.Time // userID -> revocation cutoff
	userExpiry map[string]time.Time // userID -> entry expiry
}

func NewInMemoryTokenRevocationList() *InMemoryTokenRevocationList {
	return &InMemoryTokenRevocationList{
		tokens:     make(map[string]time.Time),
		userCutoff: make(map[string]time.Time),
		userExpiry: make(map[string]time.Time),
	}
}

func (m *InMemoryTokenRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[jti] = time.Now().Add(ttl)
	return nil
}

func (m *InMemoryTokenRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	expiry, ok := m.tokens[jti]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		m.mu.Lock()
		delete(m.tokens, jti)
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (m *InMemoryTokenRevocationList) RevokeUser(_ context.Context, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.userCutoff[userID] = now
	m.userExpiry[userID] = now.Add(ttl)
	return nil
}

func (m *InMemoryTokenRevocationList) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	m.mu.RLock()
	cutoff, ok := m.userCutoff[userID]
	expiry := m.userExpiry[userID]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		m.mu.Lock()
		delete(m.userCutoff, userID)
		delete(m.userExpiry, userID)
		m.mu.Unlock()
		return false, nil
	}
	return !issuedAt.After(cutoff), nil
}
