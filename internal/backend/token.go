package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token for backend calls. An empty token
// means the request is sent without an Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, typically injected through configuration.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// JWTConfig configures a JWTSource.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Subject  string
	TTL      time.Duration
}

// JWTSource mints HS256 service tokens and reuses each one until shortly
// before it expires.
type JWTSource struct {
	cfg JWTConfig
	now func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// renewBefore is how long before expiry a cached token is replaced.
const renewBefore = 30 * time.Second

func NewJWTSource(cfg JWTConfig) (*JWTSource, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt token source: secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	return &JWTSource{cfg: cfg, now: time.Now}, nil
}

func (s *JWTSource) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Add(renewBefore).Before(s.expires) {
		return s.token, nil
	}

	expires := now.Add(s.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   s.cfg.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", err
	}
	s.token = signed
	s.expires = expires
	return signed, nil
}
