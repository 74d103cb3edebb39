package model

// OTPType one-time code purpose
type OTPType string

const (
	OTPSignup   OTPType = "signup"
	OTPInvite   OTPType = "invite"
	OTPRecovery OTPType = "recovery"
)

// Valid reports whether t is a known OTP type
func (t OTPType) Valid() bool {
	switch t {
	case OTPSignup, OTPInvite, OTPRecovery:
		return true
	}
	return false
}

// AuthEvent auth state change kind
type AuthEvent string

const (
	AuthEventSignedIn       AuthEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	AuthEventUserUpdated    AuthEvent = "USER_UPDATED"
	AuthEventUserDeleted    AuthEvent = "USER_DELETED"
)

// AuthStateChange payload delivered to auth state listeners
type AuthStateChange struct {
	Event   AuthEvent
	UserID  string
	Email   string
	OTPType OTPType // set when the sign-in came from a one-time code
}

// Session signed-in session
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	User         *Identity `json:"user"`
}

// SignInRequest password sign-in
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUpRequest self sign-up
type SignUpRequest struct {
	Email    string                 `json:"email" binding:"required,email"`
	Password string                 `json:"password" binding:"required,min=8"`
	Metadata map[string]interface{} `json:"data"`
}

// VerifyOTPRequest one-time code verification
type VerifyOTPRequest struct {
	Type  OTPType `json:"type" binding:"required"`
	Email string  `json:"email" binding:"required,email"`
	Token string  `json:"token" binding:"required"`
}

// RecoverRequest password reset request
type RecoverRequest struct {
	Email      string `json:"email" binding:"required,email"`
	RedirectTo string `json:"redirect_to"`
}

// RefreshRequest refresh token exchange
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateUserRequest changes for the signed-in identity
type UpdateUserRequest struct {
	Password string                 `json:"password" binding:"omitempty,min=8"`
	Metadata map[string]interface{} `json:"data"`
}

// CreateIdentityRequest admin-side identity creation
type CreateIdentityRequest struct {
	ID           string
	Email        string
	Password     string
	EmailConfirm bool
	Metadata     map[string]interface{}
}
