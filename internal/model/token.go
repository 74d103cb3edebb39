package model

import "time"

// TokenType token kind
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// TokenClaims session JWT claims
type TokenClaims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Type      TokenType `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetExpiresAt expiry time
func (tc *TokenClaims) GetExpiresAt() time.Time {
	return tc.ExpiresAt
}

// TokenPair access + refresh token
type TokenPair struct {
	AccessToken          string        `json:"access_token"`
	RefreshToken         string        `json:"refresh_token"`
	AccessTokenExpireIn  time.Duration `json:"access_token_expire_in"`
	RefreshTokenExpireIn time.Duration `json:"refresh_token_expire_in"`
}
