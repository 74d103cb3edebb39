package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"elapor/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader enough bytes for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUpdateProfileSyncsIdentityMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := env.addAdmin(t, "me@example.com", true, false)

	updated, err := env.profiles.UpdateProfile(ctx, rec.UserID, &model.UpdateProfileRequest{DisplayName: "  Budi  "})
	require.NoError(t, err)
	assert.Equal(t, "Budi", updated.DisplayName)

	identity, err := env.identities.GetByID(ctx, rec.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Budi", identity.DisplayName())

	_, err = env.profiles.UpdateProfile(ctx, rec.UserID, &model.UpdateProfileRequest{DisplayName: " "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := env.addAdmin(t, "me@example.com", true, false)

	updated, err := env.profiles.UploadAvatar(ctx, rec.UserID, bytes.NewReader(pngHeader), "")
	require.NoError(t, err)
	assert.Equal(t, "https://api.elapor.test/api/v1/storage/avatars/avatars/"+rec.UserID, updated.ProfileImg)

	body, obj, err := env.profiles.OpenObject(ctx, "avatars", "/avatars/"+rec.UserID)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "3600", obj.CacheControl)

	// a second upload replaces the first
	_, err = env.profiles.UploadAvatar(ctx, rec.UserID, bytes.NewReader(append(pngHeader, 'x')), "image/png")
	require.NoError(t, err)

	removed, err := env.profiles.RemoveAvatar(ctx, rec.UserID)
	require.NoError(t, err)
	assert.Empty(t, removed.ProfileImg)
	_, _, err = env.profiles.OpenObject(ctx, "avatars", "avatars/"+rec.UserID)
	assert.Error(t, err)
}

func TestUploadAvatarRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := env.addAdmin(t, "me@example.com", true, false)

	_, err := env.profiles.UploadAvatar(ctx, rec.UserID, strings.NewReader(strings.Repeat("a", 2048)), "image/png")
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = env.profiles.UploadAvatar(ctx, rec.UserID, strings.NewReader("plain text"), "text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = env.profiles.UploadAvatar(ctx, "missing", bytes.NewReader(pngHeader), "image/png")
	assert.ErrorIs(t, err, ErrAdminNotFound)
}
