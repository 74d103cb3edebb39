package v1

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"elapor/internal/model"
	"elapor/internal/repository"
	"elapor/internal/service"
	"elapor/pkg/api"
	"elapor/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// ProfileHandler settings page and avatar storage
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates the profile handler
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// GetProfile the caller's admin record
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	claims := middleware.MustGetUserFromContext(c)
	profile, err := h.profileService.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, profile)
}

// UpdateProfile changes the caller's display name
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	claims := middleware.MustGetUserFromContext(c)
	profile, err := h.profileService.UpdateProfile(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, profile)
}

// UploadAvatar multipart upload, form field "file"
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		api.Error(c, http.StatusBadRequest, "no file uploaded", err)
		return
	}

	src, err := file.Open()
	if err != nil {
		api.Error(c, http.StatusBadRequest, "failed to read upload", err)
		return
	}
	defer src.Close()

	claims := middleware.MustGetUserFromContext(c)
	profile, err := h.profileService.UploadAvatar(c.Request.Context(), claims.UserID, src, file.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, profile)
}

// RemoveAvatar deletes the caller's avatar
func (h *ProfileHandler) RemoveAvatar(c *gin.Context) {
	claims := middleware.MustGetUserFromContext(c)
	profile, err := h.profileService.RemoveAvatar(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	api.Success(c, profile)
}

// GetObject streams a stored object
func (h *ProfileHandler) GetObject(c *gin.Context) {
	body, obj, err := h.profileService.OpenObject(c.Request.Context(), c.Param("bucket"), c.Param("path"))
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			api.Error(c, http.StatusNotFound, "object not found", nil)
			return
		}
		writeError(c, err)
		return
	}
	defer body.Close()

	if obj.CacheControl != "" {
		if _, err := strconv.Atoi(obj.CacheControl); err == nil {
			c.Header("Cache-Control", "public, max-age="+obj.CacheControl)
		} else {
			c.Header("Cache-Control", obj.CacheControl)
		}
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		log.Printf("[WARN] [Storage] Failed to stream %s/%s: %v", obj.Bucket, obj.Path, err)
	}
}
