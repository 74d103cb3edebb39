package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"elapor/internal/model"
	"elapor/pkg/mailer"

	"golang.org/x/crypto/bcrypt"
)

// SignInWithPassword email + password sign-in
func (s *authService) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil || !identity.ValidatePassword(password) {
		log.Printf("[WARN] [Auth] Failed sign-in for %s", strings.ToLower(email))
		return nil, ErrInvalidCredentials
	}
	if !identity.EmailConfirmed() {
		return nil, ErrEmailNotConfirmed
	}

	now := time.Now()
	if err := s.identities.UpdateLastSignIn(ctx, identity.ID, now); err != nil {
		log.Printf("[WARN] [Auth] Failed to record sign-in time for %s: %v", identity.ID, err)
	}
	identity.LastSignInAt = &now

	session, err := s.newSession(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.emit(model.AuthStateChange{Event: model.AuthEventSignedIn, UserID: identity.ID, Email: identity.Email})
	return session, nil
}

// SignUp creates an unconfirmed identity and mails the confirmation code
func (s *authService) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*model.Identity, error) {
	identity, err := s.CreateUser(ctx, &model.CreateIdentityRequest{
		Email:    email,
		Password: password,
		Metadata: metadata,
	})
	if err != nil {
		return nil, err
	}

	link, code, err := s.GenerateLink(ctx, model.OTPSignup, identity.Email, "")
	if err != nil {
		return nil, err
	}
	if _, err := s.mail.SendTemplate(ctx, identity.Email, "Confirm your account", mailer.TemplateSignup, linkData(identity.Email, code, link)); err != nil {
		return nil, fmt.Errorf("failed to send confirmation mail: %w", err)
	}
	return identity, nil
}

// CreateUser creates an identity with its own OTP secret
func (s *authService) CreateUser(ctx context.Context, req *model.CreateIdentityRequest) (*model.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	identity := &model.Identity{
		ID:       req.ID,
		Email:    email,
		Metadata: req.Metadata,
	}
	if err := identity.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	secret, err := s.otps.NewSecret(email)
	if err != nil {
		return nil, err
	}
	identity.OTPSecret = secret
	if req.EmailConfirm {
		now := time.Now()
		identity.EmailConfirmedAt = &now
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, err
	}
	log.Printf("[INFO] [Auth] Created identity %s for %s", identity.ID, identity.Email)
	return identity, nil
}

// UpdateUserByID merges metadata into the identity's metadata
func (s *authService) UpdateUserByID(ctx context.Context, id string, metadata map[string]interface{}) (*model.Identity, error) {
	identity, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]interface{}, len(identity.Metadata)+len(metadata))
	for k, v := range identity.Metadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	if err := s.identities.UpdateMetadata(ctx, id, merged); err != nil {
		return nil, err
	}
	identity.Metadata = merged

	s.emit(model.AuthStateChange{Event: model.AuthEventUserUpdated, UserID: id, Email: identity.Email})
	return identity, nil
}

// UpdatePassword hashes and stores a new password
func (s *authService) UpdatePassword(ctx context.Context, id, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	identity, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.identities.UpdatePassword(ctx, id, string(hashed)); err != nil {
		return err
	}
	s.emit(model.AuthStateChange{Event: model.AuthEventUserUpdated, UserID: id, Email: identity.Email})
	return nil
}

// DeleteUser removes the identity and its admin record and revokes its refresh token
func (s *authService) DeleteUser(ctx context.Context, id string) error {
	if err := s.identities.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.tokens.RevokeUser(ctx, id); err != nil {
		log.Printf("[WARN] [Auth] Identity %s deleted but refresh token not revoked: %v", id, err)
	}
	log.Printf("[INFO] [Auth] Deleted identity %s", id)
	s.emit(model.AuthStateChange{Event: model.AuthEventUserDeleted, UserID: id})
	return nil
}
