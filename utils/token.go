package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/config"
)

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// ErrInvalidToken is the only verification failure exposed to callers;
// expired, forged and mis-kinded tokens are indistinguishable on the wire.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the two token kinds. Each kind has its own
// secret so compromise of one does not grant the other's lifetime.
type TokenManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}
}

func (m *TokenManager) secretAndTTL(kind TokenKind) ([]byte, time.Duration) {
	if kind == TokenRefresh {
		return m.RefreshSecret, m.RefreshTTL
	}
	return m.AccessSecret, m.AccessTTL
}

func (m *TokenManager) Issue(userID string, kind TokenKind) (string, error) {
	secret, ttl := m.secretAndTTL(kind)
	now := time.Now().UTC()

	claims := Claims{
		UserID:    userID,
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify checks signature, expiry and kind, and returns the claims. It fails
// closed: any malformed, expired or mis-signed token yields ErrInvalidToken.
func (m *TokenManager) Verify(tokenStr string, kind TokenKind) (*Claims, error) {
	secret, _ := m.secretAndTTL(kind)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != string(kind) || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
