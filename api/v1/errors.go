package v1

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"elapor/internal/service"
	"elapor/pkg/api"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes
var statusFor = []struct {
	err     error
	code    int
	message string
}{
	{service.ErrValidation, http.StatusBadRequest, "invalid request"},
	{service.ErrAlreadyInvited, http.StatusConflict, "user is already an admin"},
	{service.ErrAlreadyVerified, http.StatusConflict, "admin already accepted the invitation"},
	{service.ErrUserExists, http.StatusConflict, "user already exists"},
	{service.ErrSelfMutation, http.StatusUnprocessableEntity, "cannot change your own account"},
	{service.ErrNotVerified, http.StatusUnprocessableEntity, "admin has not accepted the invitation yet"},
	{service.ErrNoSuperAdminSlot, http.StatusUnprocessableEntity, "super admin limit reached"},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file too large"},
	{service.ErrUnsupportedType, http.StatusUnsupportedMediaType, "unsupported file type"},
	{service.ErrAdminNotFound, http.StatusNotFound, "admin not found"},
	{service.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
	{service.ErrEmailNotConfirmed, http.StatusForbidden, "email not confirmed"},
	{service.ErrInvalidOTP, http.StatusUnauthorized, "invalid or expired code"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "invalid token"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "token expired"},
	{service.ErrTokenRevoked, http.StatusUnauthorized, "token revoked"},
	{service.ErrRosterLoadFailed, http.StatusServiceUnavailable, "failed to load admin roster"},
	{service.ErrInviteFailed, http.StatusBadGateway, "failed to send invitation"},
	{service.ErrSaveFailed, http.StatusBadGateway, "failed to save changes"},
	{service.ErrDeleteFailed, http.StatusBadGateway, "failed to delete admin"},
}

// writeError writes err using the status table. AlreadyInvited carries a
// warning flag; an active cooldown carries the remaining delay.
func writeError(c *gin.Context, err error) {
	var cooldownErr *service.CooldownActiveError
	if errors.As(err, &cooldownErr) {
		ms := cooldownErr.Remaining.Milliseconds()
		c.Header("Retry-After", strconv.FormatInt((ms+999)/1000, 10))
		api.ErrorWithData(c, http.StatusTooManyRequests, "invitation was sent recently", err,
			gin.H{"retry_after_ms": ms})
		return
	}

	for _, entry := range statusFor {
		if !errors.Is(err, entry.err) {
			continue
		}
		if entry.err == service.ErrAlreadyInvited {
			api.ErrorWithData(c, entry.code, entry.message, err, gin.H{"warning": true})
			return
		}
		if entry.code >= http.StatusInternalServerError {
			log.Printf("[ERROR] [API] %s %s: %v", c.Request.Method, c.FullPath(), err)
		}
		api.Error(c, entry.code, entry.message, err)
		return
	}

	log.Printf("[ERROR] [API] %s %s: %v", c.Request.Method, c.FullPath(), err)
	api.Error(c, http.StatusInternalServerError, "internal server error", err)
}
