package v1

import (
	"net/http"

	"elapor/internal/model"
	"elapor/internal/service"
	"elapor/pkg/api"
	"elapor/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AuthHandler authentication endpoints
type AuthHandler struct {
	authService  service.AuthService
	secureCookie bool
}

// NewAuthHandler creates the auth handler; secureCookie marks the session cookie Secure
func NewAuthHandler(authService service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session *model.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieAccessToken, session.AccessToken, int(session.ExpiresIn), "/", "", h.secureCookie, true)
}

// SignIn password sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	session, err := h.authService.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, session)
	api.Success(c, session)
}

// SignUp self registration; the account stays unconfirmed until the mailed code is verified
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	identity, err := h.authService.SignUp(c.Request.Context(), req.Email, req.Password, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	api.Created(c, identity)
}

// Verify exchanges a signup, invite or recovery code for a session
func (h *AuthHandler) Verify(c *gin.Context) {
	var req model.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if !req.Type.Valid() {
		api.Error(c, http.StatusBadRequest, "unknown verification type", nil)
		return
	}

	session, err := h.authService.VerifyOtp(c.Request.Context(), req.Type, req.Email, req.Token)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, session)
	api.Success(c, session)
}

// Refresh exchanges a refresh token for a new session
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	session, err := h.authService.RefreshSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, session)
	api.Success(c, session)
}

// SignOut revokes the current session
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.authService.SignOut(c.Request.Context(), middleware.GetAccessToken(c)); err != nil {
		writeError(c, err)
		return
	}

	c.SetCookie(middleware.CookieAccessToken, "", -1, "/", "", h.secureCookie, true)
	api.Success(c, nil)
}

// Recover mails a recovery code; unknown addresses get the same response
func (h *AuthHandler) Recover(c *gin.Context) {
	var req model.RecoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.authService.ResetPasswordForEmail(c.Request.Context(), req.Email, req.RedirectTo); err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, nil)
}

// Session current session and user
func (h *AuthHandler) Session(c *gin.Context) {
	session, err := h.authService.GetSession(c.Request.Context(), middleware.GetAccessToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, session)
}

// UpdateUser changes the signed-in user's password and/or metadata
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	claims := middleware.MustGetUserFromContext(c)
	ctx := c.Request.Context()

	if req.Password != "" {
		if err := h.authService.UpdatePassword(ctx, claims.UserID, req.Password); err != nil {
			writeError(c, err)
			return
		}
	}

	var (
		identity *model.Identity
		err      error
	)
	if len(req.Metadata) > 0 {
		identity, err = h.authService.UpdateUserByID(ctx, claims.UserID, req.Metadata)
	} else {
		identity, err = h.authService.GetUserByID(ctx, claims.UserID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, identity)
}
