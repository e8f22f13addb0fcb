package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gemmoherb/portal/pkg/clock"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 365 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid session token")

// Session is the identity carried by a signed session token.
type Session struct {
	UserID uint
	Role   string
	Name   string
}

type claims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenManager(secret string, ttl time.Duration, clk clock.Clock) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, clock: clk}, nil
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) Issue(s Session) (string, error) {
	now := m.clock.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: s.Role,
		Name: s.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(s.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Verify(token string) (*Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return &Session{UserID: uint(id), Role: c.Role, Name: c.Name}, nil
}
