package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"elapor/internal/model"
	"elapor/internal/repository"
)

// BootstrapService seeds the first super admin on an empty roster
type BootstrapService interface {
	// CheckAndInitSuperAdmin creates a verified super admin for email when no
	// admin exists yet and mails them a recovery link to set a password.
	// It reports whether an admin was created.
	CheckAndInitSuperAdmin(ctx context.Context, email, redirectTo string) (bool, error)
}

type bootstrapService struct {
	admins repository.AdminRepository
	auth   AuthService
}

// NewBootstrapService creates the bootstrap service
func NewBootstrapService(admins repository.AdminRepository, auth AuthService) BootstrapService {
	return &bootstrapService{admins: admins, auth: auth}
}

func (s *bootstrapService) CheckAndInitSuperAdmin(ctx context.Context, email, redirectTo string) (bool, error) {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		log.Printf("[WARN] No admins exist and admin.bootstrap_email is empty; nobody can sign in")
		return false, nil
	}

	identity, err := s.auth.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return false, err
	}
	if identity == nil {
		secret, err := GenerateInitialSecret()
		if err != nil {
			return false, err
		}
		identity, err = s.auth.CreateUser(ctx, &model.CreateIdentityRequest{
			Email:        email,
			Password:     secret,
			EmailConfirm: true,
			Metadata:     map[string]interface{}{"display_name": "Administrator"},
		})
		if err != nil {
			return false, fmt.Errorf("failed to create bootstrap identity: %w", err)
		}
	}

	if err := s.admins.Create(ctx, &model.AdminRecord{
		UserID:       identity.ID,
		Email:        identity.Email,
		DisplayName:  identity.DisplayName(),
		IsVerified:   true,
		IsSuperAdmin: true,
	}); err != nil {
		return false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	if err := s.auth.ResetPasswordForEmail(ctx, identity.Email, redirectTo); err != nil {
		log.Printf("[WARN] Bootstrap admin %s created but recovery mail failed: %v", identity.Email, err)
	}
	log.Printf("[INFO] Bootstrap super admin %s created", identity.Email)
	return true, nil
}
