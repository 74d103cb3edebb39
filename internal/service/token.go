package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"elapor/internal/model"
	"elapor/pkg/redis"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService issues and validates session tokens
type TokenService interface {
	// GenerateTokenPair issues an access/refresh pair and stores the refresh token
	GenerateTokenPair(ctx context.Context, identity *model.Identity) (*model.TokenPair, error)
	ValidateToken(ctx context.Context, tokenString string, tokenType model.TokenType) (*model.TokenClaims, error)
	// RefreshToken exchanges the current refresh token for a new pair
	RefreshToken(ctx context.Context, refreshToken string) (*model.TokenPair, *model.TokenClaims, error)
	RevokeToken(ctx context.Context, tokenString string, tokenType model.TokenType) error
	// RevokeUser drops the stored refresh token so the user cannot refresh again
	RevokeUser(ctx context.Context, userID string) error
}

// tokenService HS256 JWTs, refresh tokens and revocations in redis
type tokenService struct {
	store         redis.Store
	jwtSecret     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewTokenService creates the token service
func NewTokenService(store redis.Store, jwtSecret string, accessExpiry, refreshExpiry time.Duration) TokenService {
	return &tokenService{
		store:         store,
		jwtSecret:     []byte(jwtSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

func refreshKey(userID string) string {
	return "refresh_token:" + userID
}

func revokedKey(token string) string {
	return "revoked_token:" + token
}

// generateToken signs claims; jti keeps tokens issued within one second distinct
func (s *tokenService) generateToken(claims *model.TokenClaims, expiry time.Duration) (string, error) {
	expiresAt := s.now().Add(expiry)
	claims.ExpiresAt = expiresAt

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   claims.UserID,
		"email": claims.Email,
		"type":  string(claims.Type),
		"exp":   expiresAt.Unix(),
		"iat":   s.now().Unix(),
		"jti":   uuid.New().String(),
	})
	return token.SignedString(s.jwtSecret)
}

// GenerateTokenPair issues an access/refresh pair
func (s *tokenService) GenerateTokenPair(ctx context.Context, identity *model.Identity) (*model.TokenPair, error) {
	accessToken, err := s.generateToken(&model.TokenClaims{
		UserID: identity.ID,
		Email:  identity.Email,
		Type:   model.AccessToken,
	}, s.accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateToken(&model.TokenClaims{
		UserID: identity.ID,
		Email:  identity.Email,
		Type:   model.RefreshToken,
	}, s.refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.store.Set(ctx, refreshKey(identity.ID), refreshToken, s.refreshExpiry); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:          accessToken,
		RefreshToken:         refreshToken,
		AccessTokenExpireIn:  s.accessExpiry,
		RefreshTokenExpireIn: s.refreshExpiry,
	}, nil
}

// ValidateToken checks signature, type, revocation and expiry
func (s *tokenService) ValidateToken(ctx context.Context, tokenString string, tokenType model.TokenType) (*model.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	typ, _ := claims["type"].(string)
	if typ != string(tokenType) {
		return nil, ErrInvalidToken
	}

	revoked, err := s.store.Exists(ctx, revokedKey(tokenString))
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}

	return &model.TokenClaims{
		UserID:    userID,
		Email:     email,
		Type:      model.TokenType(typ),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// RefreshToken the presented token must match the one stored for the user
func (s *tokenService) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenPair, *model.TokenClaims, error) {
	claims, err := s.ValidateToken(ctx, refreshToken, model.RefreshToken)
	if err != nil {
		return nil, nil, err
	}

	stored, err := s.store.Get(ctx, refreshKey(claims.UserID))
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil, ErrTokenRevoked
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get stored refresh token: %w", err)
	}
	if stored != refreshToken {
		return nil, nil, ErrInvalidToken
	}

	pair, err := s.GenerateTokenPair(ctx, &model.Identity{ID: claims.UserID, Email: claims.Email})
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}

// RevokeToken blacklists the token until it would have expired anyway
func (s *tokenService) RevokeToken(ctx context.Context, tokenString string, tokenType model.TokenType) error {
	claims, err := s.ValidateToken(ctx, tokenString, tokenType)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.store.Set(ctx, revokedKey(tokenString), "revoked", ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if tokenType == model.RefreshToken {
		return s.RevokeUser(ctx, claims.UserID)
	}
	return nil
}

// RevokeUser deletes the stored refresh token
func (s *tokenService) RevokeUser(ctx context.Context, userID string) error {
	if err := s.store.Del(ctx, refreshKey(userID)); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
