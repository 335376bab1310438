package invites

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	redisclient "github.com/farhanmajid/bazario-backend/pkg/redis"
)

// ErrTokenNotFound marks an expired, consumed, or never-issued invite token.
var ErrTokenNotFound = errors.New("invite token not found")

// TokenRecord is the redis-persisted invite state keyed by the raw token.
type TokenRecord struct {
	UserID    uuid.UUID `json:"user_id"`
	CompanyID uuid.UUID `json:"company_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenStore issues and redeems single-use invite tokens.
type TokenStore struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewTokenStore builds a token store with the configured TTL.
func NewTokenStore(client *redisclient.Client, ttl time.Duration) (*TokenStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invite token ttl must be positive")
	}
	return &TokenStore{client: client, ttl: ttl}, nil
}

// Issue stores the record under a fresh random token and returns the token
// with its expiry.
func (s *TokenStore) Issue(ctx context.Context, record TokenRecord) (string, time.Time, error) {
	token, err := generateToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().UTC().Add(s.ttl)
	record.ExpiresAt = expiresAt

	payload, err := json.Marshal(record)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("marshal invite record: %w", err)
	}
	if err := s.client.Set(ctx, s.client.InviteTokenKey(token), payload, s.ttl); err != nil {
		return "", time.Time{}, fmt.Errorf("store invite token: %w", err)
	}
	return token, expiresAt, nil
}

// Lookup loads the record for a raw token.
func (s *TokenStore) Lookup(ctx context.Context, token string) (*TokenRecord, error) {
	raw, err := s.client.Get(ctx, s.client.InviteTokenKey(token))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("load invite token: %w", err)
	}
	var record TokenRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decode invite record: %w", err)
	}
	return &record, nil
}

// Consume deletes the token so it cannot be redeemed twice.
func (s *TokenStore) Consume(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.client.InviteTokenKey(token))
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
