package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/orderdesk/orderdesk/internal/shared"
)

// ErrTokenInvalid is returned when a bearer token is unknown or expired.
var ErrTokenInvalid = errors.New("auth: token invalid or expired")

// Service wraps authentication business rules. Bearer tokens are opaque
// random strings stored in Redis with the session TTL; the stored value is
// the user id.
type Service struct {
	repo  Repository
	redis *redis.Client
	ttl   time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, redisClient *redis.Client, ttl time.Duration) *Service {
	return &Service{repo: repo, redis: redisClient, ttl: ttl}
}

// Login validates credentials and issues a new bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, "", fmt.Errorf("auth: generate token: %w", err)
	}
	if err := s.redis.Set(ctx, tokenKey(token), user.ID, s.ttl).Err(); err != nil {
		return nil, "", fmt.Errorf("auth: store token: %w", err)
	}
	return user, token, nil
}

// Logout revokes a bearer token. Revoking an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.redis.Del(ctx, tokenKey(token)).Err()
}

// Authenticate resolves a bearer token to its user and slides the TTL.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	raw, err := s.redis.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("auth: lookup token: %w", err)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if !user.IsActive {
		return nil, ErrTokenInvalid
	}
	_ = s.redis.Expire(ctx, tokenKey(token), s.ttl).Err()
	return user, nil
}

func tokenKey(token string) string {
	return "auth:token:" + token
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
