package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"elapor/internal/model"
	"elapor/pkg/mailer"
)

func linkData(email, code, link string) mailer.LinkData {
	return mailer.LinkData{Email: email, Code: code, Link: link}
}

// GenerateLink issues a code for email and returns the link carrying it
func (s *authService) GenerateLink(ctx context.Context, typ model.OTPType, email, redirectTo string) (string, string, error) {
	if !typ.Valid() {
		return "", "", fmt.Errorf("%w: unknown otp type %q", ErrValidation, typ)
	}
	identity, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return "", "", err
	}

	code, err := s.otps.Issue(ctx, typ, identity)
	if err != nil {
		return "", "", err
	}
	link, err := s.buildLink(typ, identity.Email, code, redirectTo)
	if err != nil {
		return "", "", err
	}
	return link, code, nil
}

// VerifyOtp accepts a signup, invite or recovery code and signs the user in
func (s *authService) VerifyOtp(ctx context.Context, typ model.OTPType, email, token string) (*model.Session, error) {
	if !typ.Valid() {
		return nil, ErrInvalidOTP
	}
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrInvalidOTP
	}
	if err := s.otps.Verify(ctx, typ, identity, token); err != nil {
		return nil, err
	}

	now := time.Now()
	if !identity.EmailConfirmed() {
		if err := s.identities.ConfirmEmail(ctx, identity.ID, now); err != nil {
			return nil, err
		}
		identity.EmailConfirmedAt = &now
	}
	if err := s.identities.UpdateLastSignIn(ctx, identity.ID, now); err != nil {
		log.Printf("[WARN] [Auth] Failed to record sign-in time for %s: %v", identity.ID, err)
	}

	session, err := s.newSession(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.emit(model.AuthStateChange{
		Event:   model.AuthEventSignedIn,
		UserID:  identity.ID,
		Email:   identity.Email,
		OTPType: typ,
	})
	return session, nil
}

// ResetPasswordForEmail mails a recovery link; unknown emails succeed silently
func (s *authService) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if identity == nil {
		log.Printf("[DEBUG] [Auth] Recovery requested for unknown email %s", email)
		return nil
	}

	link, code, err := s.GenerateLink(ctx, model.OTPRecovery, identity.Email, redirectTo)
	if err != nil {
		return err
	}
	if _, err := s.mail.SendTemplate(ctx, identity.Email, "Reset your password", mailer.TemplateRecovery, linkData(identity.Email, code, link)); err != nil {
		return fmt.Errorf("failed to send recovery mail: %w", err)
	}
	log.Printf("[INFO] [Auth] Recovery mail sent to %s", identity.Email)
	return nil
}
