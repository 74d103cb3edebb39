package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"elapor/internal/model"
	"elapor/internal/repository"
)

const avatarCacheControl = "3600"

// ProfileService settings page: the signed-in admin's own profile and avatar
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*model.AdminRecord, error)
	// UpdateProfile changes the display name on the admin record and the identity metadata
	UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.AdminRecord, error)
	// UploadAvatar stores an image at avatars/<user_id>, replacing the previous one
	UploadAvatar(ctx context.Context, userID string, body io.Reader, contentType string) (*model.AdminRecord, error)
	RemoveAvatar(ctx context.Context, userID string) (*model.AdminRecord, error)
	// OpenObject streams a stored object
	OpenObject(ctx context.Context, bucket, path string) (io.ReadCloser, *model.StoredObject, error)
}

// ProfileOptions storage settings
type ProfileOptions struct {
	Bucket    string
	MaxBytes  int64
	PublicURL string
}

type profileService struct {
	admins  repository.AdminRepository
	objects repository.ObjectRepository
	auth    AuthService
	opts    ProfileOptions
}

// NewProfileService creates the profile service
func NewProfileService(admins repository.AdminRepository, objects repository.ObjectRepository, auth AuthService, opts ProfileOptions) ProfileService {
	if opts.Bucket == "" {
		opts.Bucket = "avatars"
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 2 << 20
	}
	return &profileService{admins: admins, objects: objects, auth: auth, opts: opts}
}

func avatarPath(userID string) string {
	return "avatars/" + userID
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*model.AdminRecord, error) {
	record, err := s.admins.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrAdminNotFound
	}
	return record, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.AdminRecord, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display_name is required", ErrValidation)
	}
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.admins.UpdateProfile(ctx, userID, map[string]interface{}{"display_name": name}); err != nil {
		return nil, err
	}
	if _, err := s.auth.UpdateUserByID(ctx, userID, map[string]interface{}{"display_name": name}); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *profileService) UploadAvatar(ctx context.Context, userID string, body io.Reader, contentType string) (*model.AdminRecord, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(body, s.opts.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.opts.MaxBytes {
		return nil, ErrFileTooLarge
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrUnsupportedType
	}

	path := avatarPath(userID)
	if _, err := s.objects.Upload(ctx, s.opts.Bucket, path, bytes.NewReader(data), model.UploadOptions{
		CacheControl: avatarCacheControl,
		ContentType:  contentType,
		Upsert:       true,
	}); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/storage/%s/%s", strings.TrimRight(s.opts.PublicURL, "/"), s.opts.Bucket, path)
	if err := s.admins.UpdateProfile(ctx, userID, map[string]interface{}{"profile_img": url}); err != nil {
		return nil, err
	}
	log.Printf("[INFO] [Storage] Avatar of %s updated (%d bytes)", userID, len(data))
	return s.GetProfile(ctx, userID)
}

func (s *profileService) RemoveAvatar(ctx context.Context, userID string) (*model.AdminRecord, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.objects.Remove(ctx, s.opts.Bucket, []string{avatarPath(userID)}); err != nil {
		return nil, fmt.Errorf("failed to remove avatar: %w", err)
	}
	if err := s.admins.UpdateProfile(ctx, userID, map[string]interface{}{"profile_img": ""}); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *profileService) OpenObject(ctx context.Context, bucket, path string) (io.ReadCloser, *model.StoredObject, error) {
	return s.objects.Open(ctx, bucket, strings.TrimPrefix(path, "/"))
}
