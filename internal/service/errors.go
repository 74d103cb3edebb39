package service

import "errors"

// Invitation and roster workflow errors
var (
	// ErrValidation malformed or missing input, detected before any backend call
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyInvited an admin record already exists for the email
	ErrAlreadyInvited = errors.New("already invited")
	// ErrAlreadyVerified the admin already accepted the invitation
	ErrAlreadyVerified = errors.New("admin already verified")
	// ErrInviteFailed a backend step of invite/resend failed; completed steps are kept
	ErrInviteFailed = errors.New("invite failed")
	// ErrCooldownActive resend requested inside the cooldown window
	ErrCooldownActive = errors.New("resend cooldown active")
	// ErrRosterLoadFailed roster or session fetch failed
	ErrRosterLoadFailed = errors.New("roster load failed")
	// ErrSaveFailed batch upsert failed; pending edits are kept
	ErrSaveFailed = errors.New("save failed")
	// ErrDeleteFailed identity removal failed
	ErrDeleteFailed = errors.New("delete failed")
	// ErrSelfMutation the acting user targeted their own row
	ErrSelfMutation = errors.New("cannot modify your own admin row")
	// ErrNotVerified the row has not accepted its invitation yet
	ErrNotVerified = errors.New("admin is not verified")
	// ErrNoSuperAdminSlot every super-admin slot is taken
	ErrNoSuperAdminSlot = errors.New("no super admin slot available")
	// ErrAdminNotFound no admin record for the user
	ErrAdminNotFound = errors.New("admin not found")
	// ErrRosterNotLoaded the roster must be loaded first
	ErrRosterNotLoaded = errors.New("roster not loaded")
)

// Auth errors
var (
	// ErrInvalidCredentials wrong email or password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotConfirmed sign-in before confirming the email
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrUserExists an identity with that email already exists
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound no identity
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidOTP wrong, expired, reused or mistyped one-time code
	ErrInvalidOTP = errors.New("invalid or expired code")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// Storage errors
var (
	// ErrFileTooLarge upload exceeds the configured limit
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedType upload content type is not an image
	ErrUnsupportedType = errors.New("unsupported content type")
)
