package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"elapor/internal/model"
	"elapor/pkg/redis"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	otpIssuer = "e-lapor"
	otpPeriod = 600 // seconds
)

var otpOpts = totp.ValidateOpts{
	Period:    otpPeriod,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// OTPService email one-time codes bound to a purpose
type OTPService interface {
	// NewSecret generates a base32 secret for a new identity
	NewSecret(email string) (string, error)
	// Issue returns a fresh code for typ and records that it was issued
	Issue(ctx context.Context, typ model.OTPType, identity *model.Identity) (string, error)
	// Verify accepts an issued code once
	Verify(ctx context.Context, typ model.OTPType, identity *model.Identity, code string) error
}

type otpService struct {
	store redis.Store
	now   func() time.Time
}

// NewOTPService creates the OTP service
func NewOTPService(store redis.Store) OTPService {
	return &otpService{store: store, now: time.Now}
}

func otpKey(typ model.OTPType, userID string) string {
	return fmt.Sprintf("otp:%s:%s", typ, userID)
}

func (s *otpService) NewSecret(email string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer,
		AccountName: email,
		Period:      otpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate otp secret: %w", err)
	}
	return key.Secret(), nil
}

func (s *otpService) Issue(ctx context.Context, typ model.OTPType, identity *model.Identity) (string, error) {
	if !typ.Valid() {
		return "", ErrInvalidOTP
	}
	if identity.OTPSecret == "" {
		return "", fmt.Errorf("identity %s has no otp secret", identity.ID)
	}

	code, err := totp.GenerateCodeCustom(identity.OTPSecret, s.now(), otpOpts)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	// the code stays valid for the current and the next period
	if err := s.store.Set(ctx, otpKey(typ, identity.ID), "issued", 2*otpPeriod*time.Second); err != nil {
		return "", err
	}
	return code, nil
}

func (s *otpService) Verify(ctx context.Context, typ model.OTPType, identity *model.Identity, code string) error {
	if !typ.Valid() || identity.OTPSecret == "" {
		return ErrInvalidOTP
	}

	if _, err := s.store.Get(ctx, otpKey(typ, identity.ID)); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	ok, err := totp.ValidateCustom(code, identity.OTPSecret, s.now(), otpOpts)
	if err != nil || !ok {
		return ErrInvalidOTP
	}
	return s.store.Del(ctx, otpKey(typ, identity.ID))
}
