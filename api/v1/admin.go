package v1

import (
	"errors"
	"net/http"

	"elapor/internal/model"
	"elapor/internal/notify"
	"elapor/internal/service"
	"elapor/pkg/api"
	"elapor/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Publisher pushes roster notifications to connected dashboards
type Publisher interface {
	Publish(msgType string, payload interface{})
}

// AdminHandler admin roster and invitation endpoints
type AdminHandler struct {
	invitations service.InvitationService
	rosters     service.RosterProvider
	events      Publisher
}

// NewAdminHandler creates the admin handler
func NewAdminHandler(invitations service.InvitationService, rosters service.RosterProvider, events Publisher) *AdminHandler {
	return &AdminHandler{
		invitations: invitations,
		rosters:     rosters,
		events:      events,
	}
}

// withRoster runs fn on the caller's roster, loading it first when needed
func (h *AdminHandler) withRoster(c *gin.Context, fn func(r service.AdminRoster) error) error {
	claims := middleware.MustGetUserFromContext(c)
	r := h.rosters.Roster(claims.UserID)

	err := fn(r)
	if !errors.Is(err, service.ErrRosterNotLoaded) {
		return err
	}
	if err := r.Load(c.Request.Context(), middleware.GetAccessToken(c)); err != nil {
		return err
	}
	return fn(r)
}

func (h *AdminHandler) publish(c *gin.Context, action, userID string) {
	if h.events == nil {
		return
	}
	claims := middleware.MustGetUserFromContext(c)
	h.events.Publish(notify.TypeRoster, notify.RosterPayload{Action: action, UserID: userID, By: claims.UserID})
}

// List filtered page of the caller's roster
func (h *AdminHandler) List(c *gin.Context) {
	var filter model.RosterFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid filter", err)
		return
	}

	var page *model.RosterPage
	err := h.withRoster(c, func(r service.AdminRoster) (err error) {
		page, err = r.View(filter)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, page)
}

// Reload refetches the roster; staged edits are kept
func (h *AdminHandler) Reload(c *gin.Context) {
	var filter model.RosterFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid filter", err)
		return
	}

	claims := middleware.MustGetUserFromContext(c)
	r := h.rosters.Roster(claims.UserID)
	if err := r.Load(c.Request.Context(), middleware.GetAccessToken(c)); err != nil {
		writeError(c, err)
		return
	}
	page, err := r.View(filter)
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, page)
}

// Pending staged super-admin edits
func (h *AdminHandler) Pending(c *gin.Context) {
	claims := middleware.MustGetUserFromContext(c)
	pending := h.rosters.Roster(claims.UserID).Pending()
	api.Success(c, gin.H{"pending": pending, "count": len(pending)})
}

// Cooldown remaining resend cooldown for one admin
func (h *AdminHandler) Cooldown(c *gin.Context) {
	userID := c.Param("user_id")
	remaining, err := h.invitations.Cooldown(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, model.CooldownResponse{
		UserID:      userID,
		RemainingMs: remaining.Milliseconds(),
		Active:      remaining > 0,
	})
}

// Invite invites a new admin by email
func (h *AdminHandler) Invite(c *gin.Context) {
	var req model.InviteAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	record, err := h.invitations.Invite(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	h.publish(c, "invited", record.UserID)
	api.Created(c, record)
}

// Resend re-sends an invitation once the cooldown has passed
func (h *AdminHandler) Resend(c *gin.Context) {
	record, err := h.invitations.Resend(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	h.publish(c, "resent", record.UserID)
	api.Success(c, record)
}

// ToggleSuperAdmin stages a super-admin flag flip; nothing is written until Save
func (h *AdminHandler) ToggleSuperAdmin(c *gin.Context) {
	var (
		edit    *model.PendingEdit
		pending int
	)
	err := h.withRoster(c, func(r service.AdminRoster) (err error) {
		edit, err = r.StageToggle(c.Param("user_id"))
		if err == nil {
			pending = len(r.Pending())
		}
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, gin.H{"edit": edit, "pending_count": pending})
}

// Save persists every staged edit
func (h *AdminHandler) Save(c *gin.Context) {
	claims := middleware.MustGetUserFromContext(c)
	saved, err := h.rosters.Roster(claims.UserID).Save(c.Request.Context())
	if err != nil && saved == 0 {
		writeError(c, err)
		return
	}

	if saved > 0 {
		h.publish(c, "saved", "")
	}
	resp := gin.H{"saved": saved}
	if err != nil {
		// written, but the follow-up reload failed
		resp["reload_error"] = err.Error()
	}
	api.Success(c, resp)
}

// Delete removes another admin's identity and admin record
func (h *AdminHandler) Delete(c *gin.Context) {
	userID := c.Param("user_id")
	err := h.withRoster(c, func(r service.AdminRoster) error {
		return r.Delete(c.Request.Context(), userID)
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.publish(c, "deleted", userID)
	api.Success(c, nil)
}
