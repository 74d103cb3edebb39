package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"elapor/internal/model"
	"elapor/internal/repository"
	"elapor/pkg/mailer"
)

// AuthListener receives auth state changes; called synchronously after the change
type AuthListener func(change model.AuthStateChange)

// AuthService the authentication surface consumed by the dashboard
type AuthService interface {
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	// SignUp creates an unconfirmed identity and mails a signup code
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*model.Identity, error)
	// VerifyOtp confirms a one-time code of the given type and signs the user in
	VerifyOtp(ctx context.Context, typ model.OTPType, email, token string) (*model.Session, error)
	GetSession(ctx context.Context, accessToken string) (*model.Session, error)
	OnAuthStateChange(listener AuthListener) (unsubscribe func())
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdateUserByID(ctx context.Context, id string, metadata map[string]interface{}) (*model.Identity, error)

	// CreateUser admin-side identity creation
	CreateUser(ctx context.Context, req *model.CreateIdentityRequest) (*model.Identity, error)
	// GenerateLink issues a code of type typ and returns the link carrying it
	GenerateLink(ctx context.Context, typ model.OTPType, email, redirectTo string) (link, code string, err error)
	UpdatePassword(ctx context.Context, id, password string) error
	RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error)
	// DeleteUser removes the identity together with its admin record
	DeleteUser(ctx context.Context, id string) error
	GetUserByID(ctx context.Context, id string) (*model.Identity, error)
	GetUserByEmail(ctx context.Context, email string) (*model.Identity, error)
}

// AuthOptions auth service settings
type AuthOptions struct {
	// DefaultRedirectURL used when a caller passes no redirect
	DefaultRedirectURL string
}

// authService identities in postgres, sessions as JWTs, codes via OTPService
type authService struct {
	identities repository.IdentityRepository
	tokens     TokenService
	otps       OTPService
	mail       *mailer.Mailer
	opts       AuthOptions

	mu        sync.RWMutex
	listeners map[int]AuthListener
	nextID    int
}

// NewAuthService creates the auth service
func NewAuthService(
	identities repository.IdentityRepository,
	tokens TokenService,
	otps OTPService,
	mail *mailer.Mailer,
	opts AuthOptions,
) AuthService {
	return &authService{
		identities: identities,
		tokens:     tokens,
		otps:       otps,
		mail:       mail,
		opts:       opts,
		listeners:  make(map[int]AuthListener),
	}
}

// OnAuthStateChange registers listener
func (s *authService) OnAuthStateChange(listener AuthListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *authService) emit(change model.AuthStateChange) {
	s.mu.RLock()
	listeners := make([]AuthListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	log.Printf("[DEBUG] [Auth] %s %s", change.Event, change.UserID)
	for _, l := range listeners {
		l(change)
	}
}

// newSession issues a token pair for identity
func (s *authService) newSession(ctx context.Context, identity *model.Identity) (*model.Session, error) {
	pair, err := s.tokens.GenerateTokenPair(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &model.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(pair.AccessTokenExpireIn.Seconds()),
		User:         identity,
	}, nil
}

// GetSession resolves an access token to its session
func (s *authService) GetSession(ctx context.Context, accessToken string) (*model.Session, error) {
	claims, err := s.tokens.ValidateToken(ctx, accessToken, model.AccessToken)
	if err != nil {
		return nil, err
	}
	identity, err := s.identities.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrUserNotFound
	}
	return &model.Session{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(claims.ExpiresAt).Seconds()),
		User:        identity,
	}, nil
}

// SignOut revokes the access token and the user's refresh token
func (s *authService) SignOut(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.ValidateToken(ctx, accessToken, model.AccessToken)
	if err != nil {
		return err
	}
	if err := s.tokens.RevokeToken(ctx, accessToken, model.AccessToken); err != nil {
		return err
	}
	if err := s.tokens.RevokeUser(ctx, claims.UserID); err != nil {
		return err
	}
	s.emit(model.AuthStateChange{Event: model.AuthEventSignedOut, UserID: claims.UserID, Email: claims.Email})
	return nil
}

// RefreshSession exchanges a refresh token for a new session
func (s *authService) RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error) {
	pair, claims, err := s.tokens.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	identity, err := s.identities.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		_ = s.tokens.RevokeUser(ctx, claims.UserID)
		return nil, ErrUserNotFound
	}

	s.emit(model.AuthStateChange{Event: model.AuthEventTokenRefreshed, UserID: identity.ID, Email: identity.Email})
	return &model.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(pair.AccessTokenExpireIn.Seconds()),
		User:         identity,
	}, nil
}

func (s *authService) GetUserByID(ctx context.Context, id string) (*model.Identity, error) {
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrUserNotFound
	}
	return identity, nil
}

func (s *authService) GetUserByEmail(ctx context.Context, email string) (*model.Identity, error) {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrUserNotFound
	}
	return identity, nil
}

// buildLink appends type, email and token to redirectTo
func (s *authService) buildLink(typ model.OTPType, email, code, redirectTo string) (string, error) {
	if redirectTo == "" {
		redirectTo = s.opts.DefaultRedirectURL
	}
	u, err := url.Parse(redirectTo)
	if err != nil {
		return "", fmt.Errorf("%w: invalid redirect url", ErrValidation)
	}
	q := u.Query()
	q.Set("type", string(typ))
	q.Set("email", email)
	q.Set("token", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// isNotFound matches both the repository's nil result and gorm's sentinel
func isNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, repository.ErrRecordNotFound)
}
