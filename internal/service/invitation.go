package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"elapor/internal/cooldown"
	"elapor/internal/model"
	"elapor/internal/repository"
	"elapor/pkg/mailer"
	"elapor/pkg/metrics"

	"github.com/go-playground/validator/v10"
)

// CooldownActiveError resend attempted while the cooldown runs
type CooldownActiveError struct {
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("%s: %dms remaining", ErrCooldownActive, e.Remaining.Milliseconds())
}

// Unwrap lets errors.Is match ErrCooldownActive
func (e *CooldownActiveError) Unwrap() error {
	return ErrCooldownActive
}

// InvitationService sends and resends admin invitations
type InvitationService interface {
	// Invite creates an identity and admin record for email and arms the cooldown
	Invite(ctx context.Context, email string) (*model.AdminRecord, error)
	// Resend re-issues the invitation for an unverified admin once the cooldown has passed
	Resend(ctx context.Context, userID string) (*model.AdminRecord, error)
	// Cooldown remaining resend cooldown for userID
	Cooldown(ctx context.Context, userID string) (time.Duration, error)
}

// InvitationOptions invitation settings
type InvitationOptions struct {
	// RedirectURL page the invite link points at
	RedirectURL string
}

// invitationService invite workflow over auth, admin records and cooldowns
type invitationService struct {
	admins    repository.AdminRepository
	auth      AuthService
	cooldowns *cooldown.Manager
	mail      *mailer.Mailer
	validate  *validator.Validate
	opts      InvitationOptions
}

// NewInvitationService creates the invitation service and subscribes it to auth changes
func NewInvitationService(
	admins repository.AdminRepository,
	auth AuthService,
	cooldowns *cooldown.Manager,
	mail *mailer.Mailer,
	opts InvitationOptions,
) InvitationService {
	s := &invitationService{
		admins:    admins,
		auth:      auth,
		cooldowns: cooldowns,
		mail:      mail,
		validate:  validator.New(),
		opts:      opts,
	}
	auth.OnAuthStateChange(s.onAuthStateChange)
	return s
}

func inviteFailed(step string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInviteFailed, step, err)
}

// Invite 1) duplicate check 2) create identity 3) insert admin record 4) mail + arm cooldown.
// Steps already completed are not rolled back on failure.
func (s *invitationService) Invite(ctx context.Context, email string) (record *model.AdminRecord, err error) {
	defer func() { metrics.ObserveInvitation("invite", invitationResult(err)) }()

	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	// 1. duplicate check
	existing, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		return nil, inviteFailed("duplicate check", err)
	}
	if existing != nil {
		log.Printf("[INFO] [Invite] %s is already an admin (%s)", email, existing.UserID)
		return nil, ErrAlreadyInvited
	}

	// 2. identity, rebinding an orphan left by an earlier failed invite
	identity, err := s.bindIdentity(ctx, "", email)
	if err != nil {
		return nil, err
	}

	// 3. admin record
	record = &model.AdminRecord{
		UserID:      identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName(),
	}
	if err := s.admins.Create(ctx, record); err != nil {
		return nil, inviteFailed("insert admin record", err)
	}

	// 4. mail and cooldown
	if err := s.deliver(ctx, record); err != nil {
		return nil, err
	}
	log.Printf("[INFO] [Invite] Invited %s as %s", record.Email, record.UserID)
	return record, nil
}

// Resend re-runs identity, mail and cooldown for an admin that has not accepted yet
func (s *invitationService) Resend(ctx context.Context, userID string) (record *model.AdminRecord, err error) {
	defer func() { metrics.ObserveInvitation("resend", invitationResult(err)) }()

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}

	record, err = s.admins.GetByUserID(ctx, userID)
	if err != nil {
		return nil, inviteFailed("load admin record", err)
	}
	if record == nil {
		return nil, ErrAdminNotFound
	}
	if record.IsVerified {
		return nil, ErrAlreadyVerified
	}

	remaining, err := s.cooldowns.Seed(ctx, userID)
	if err != nil {
		return nil, inviteFailed("read cooldown", err)
	}
	if remaining > 0 {
		return nil, &CooldownActiveError{Remaining: remaining}
	}

	if _, err := s.bindIdentity(ctx, record.UserID, record.Email); err != nil {
		return nil, err
	}
	if err := s.deliver(ctx, record); err != nil {
		return nil, err
	}
	log.Printf("[INFO] [Invite] Resent invitation to %s", record.Email)
	return record, nil
}

// Cooldown seeds and returns the remaining cooldown
func (s *invitationService) Cooldown(ctx context.Context, userID string) (time.Duration, error) {
	return s.cooldowns.Seed(ctx, userID)
}

// bindIdentity returns an identity for email ready to accept an invite.
// With id unset an existing identity is only reused when it is an orphan of
// an earlier failed invite; any other account yields ErrUserExists. A
// missing identity is created pre-confirmed under id when id is set. The
// initial secret is rotated only on identities that never signed in.
func (s *invitationService) bindIdentity(ctx context.Context, id, email string) (*model.Identity, error) {
	var (
		identity *model.Identity
		err      error
	)
	if id != "" {
		identity, err = s.auth.GetUserByID(ctx, id)
	} else {
		identity, err = s.auth.GetUserByEmail(ctx, email)
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, inviteFailed("look up identity", err)
	}

	if identity != nil {
		if id == "" {
			if !isInviteOrphan(identity) {
				log.Printf("[WARN] [Invite] %s already has an account (%s), not inviting", email, identity.ID)
				return nil, fmt.Errorf("%w: %s already has an account", ErrUserExists, email)
			}
			log.Printf("[WARN] [Invite] Rebinding orphaned identity %s for %s", identity.ID, email)
		}
		if identity.LastSignInAt != nil {
			return identity, nil
		}
		secret, err := GenerateInitialSecret()
		if err != nil {
			return nil, inviteFailed("generate secret", err)
		}
		if err := s.auth.UpdatePassword(ctx, identity.ID, secret); err != nil {
			return nil, inviteFailed("rotate initial secret", err)
		}
		return identity, nil
	}

	secret, err := GenerateInitialSecret()
	if err != nil {
		return nil, inviteFailed("generate secret", err)
	}
	identity, err = s.auth.CreateUser(ctx, &model.CreateIdentityRequest{
		ID:           id,
		Email:        email,
		Password:     secret,
		EmailConfirm: true,
	})
	if err != nil {
		return nil, inviteFailed("create identity", err)
	}
	return identity, nil
}

// isInviteOrphan an identity created pre-confirmed by an invite that failed
// before its admin record was written. Self sign-ups start unconfirmed and
// confirming them signs the user in, so neither matches.
func isInviteOrphan(identity *model.Identity) bool {
	return identity.EmailConfirmed() && identity.LastSignInAt == nil
}

// deliver mails the invite link and restarts the cooldown
func (s *invitationService) deliver(ctx context.Context, record *model.AdminRecord) error {
	link, code, err := s.auth.GenerateLink(ctx, model.OTPInvite, record.Email, s.opts.RedirectURL)
	if err != nil {
		return inviteFailed("generate invite link", err)
	}
	if _, err := s.mail.SendTemplate(ctx, record.Email, "You are invited to e-lapor", mailer.TemplateInvite, linkData(record.Email, code, link)); err != nil {
		return inviteFailed("send invite mail", err)
	}
	if err := s.cooldowns.Restart(ctx, record.UserID); err != nil {
		return inviteFailed("arm cooldown", err)
	}
	return nil
}

// onAuthStateChange marks admins verified once they accept an invite or recovery link
func (s *invitationService) onAuthStateChange(change model.AuthStateChange) {
	ctx := context.Background()
	switch change.Event {
	case model.AuthEventSignedIn:
		if change.OTPType != model.OTPInvite && change.OTPType != model.OTPRecovery {
			return
		}
		record, err := s.admins.GetByUserID(ctx, change.UserID)
		if err != nil {
			log.Printf("[ERROR] [Invite] Failed to load admin %s: %v", change.UserID, err)
			return
		}
		if record == nil || record.IsVerified {
			return
		}
		if err := s.admins.MarkVerified(ctx, change.UserID); err != nil {
			log.Printf("[ERROR] [Invite] Failed to mark %s verified: %v", change.UserID, err)
			return
		}
		s.cooldowns.Teardown(change.UserID)
		log.Printf("[INFO] [Invite] %s accepted the invitation", record.Email)
	case model.AuthEventUserDeleted:
		s.cooldowns.Teardown(change.UserID)
	}
}

func invitationResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrAlreadyInvited):
		return "already_invited"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrUserExists):
		return "user_exists"
	case errors.Is(err, ErrCooldownActive):
		return "cooldown"
	case errors.Is(err, ErrAdminNotFound):
		return "not_found"
	default:
		return "failed"
	}
}
