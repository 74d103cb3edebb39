package service

import (
	"context"
	"testing"

	"elapor/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInAndSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := env.addAdmin(t, "admin@example.com", true, true)

	var events []model.AuthStateChange
	unsubscribe := env.auth.OnAuthStateChange(func(c model.AuthStateChange) { events = append(events, c) })
	defer unsubscribe()

	_, err := env.auth.SignInWithPassword(ctx, "admin@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := env.auth.SignInWithPassword(ctx, "ADMIN@example.com", "Password#123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, rec.UserID, session.User.ID)

	current, err := env.auth.GetSession(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, rec.UserID, current.User.ID)

	require.NoError(t, env.auth.SignOut(ctx, session.AccessToken))
	_, err = env.auth.GetSession(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = env.auth.RefreshSession(ctx, session.RefreshToken)
	assert.Error(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, model.AuthEventSignedIn, events[0].Event)
	assert.Equal(t, model.AuthEventSignedOut, events[1].Event)
}

func TestRefreshSessionRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAdmin(t, "admin@example.com", true, true)

	session, err := env.auth.SignInWithPassword(ctx, "admin@example.com", "Password#123")
	require.NoError(t, err)

	refreshed, err := env.auth.RefreshSession(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, refreshed.RefreshToken)

	// the old refresh token no longer matches the stored one
	_, err = env.auth.RefreshSession(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignUpRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	identity, err := env.auth.SignUp(ctx, "citizen@example.com", "Password#123", map[string]interface{}{"display_name": "Citizen"})
	require.NoError(t, err)
	assert.False(t, identity.EmailConfirmed())
	assert.Equal(t, "Citizen", identity.DisplayName())

	_, err = env.auth.SignInWithPassword(ctx, "citizen@example.com", "Password#123")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	_, err = env.auth.SignUp(ctx, "citizen@example.com", "Password#123", nil)
	assert.ErrorIs(t, err, ErrUserExists)

	code := env.mail.lastCode(t, "citizen@example.com")
	// a signup code is not accepted as a recovery code
	_, err = env.auth.VerifyOtp(ctx, model.OTPRecovery, "citizen@example.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	session, err := env.auth.VerifyOtp(ctx, model.OTPSignup, "citizen@example.com", code)
	require.NoError(t, err)
	assert.True(t, session.User.EmailConfirmed())

	_, err = env.auth.SignInWithPassword(ctx, "citizen@example.com", "Password#123")
	assert.NoError(t, err)
}

func TestPasswordRecovery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := env.addAdmin(t, "forgot@example.com", false, false)

	require.NoError(t, env.auth.ResetPasswordForEmail(ctx, "unknown@example.com", ""))
	assert.Zero(t, env.mail.count())

	require.NoError(t, env.auth.ResetPasswordForEmail(ctx, "forgot@example.com", "https://admin.elapor.test/reset"))
	code := env.mail.lastCode(t, "forgot@example.com")
	assert.Contains(t, env.mail.sent[0].HTML, "https://admin.elapor.test/reset?")

	session, err := env.auth.VerifyOtp(ctx, model.OTPRecovery, "forgot@example.com", code)
	require.NoError(t, err)
	require.NoError(t, env.auth.UpdatePassword(ctx, session.User.ID, "BrandNew#456"))

	_, err = env.auth.SignInWithPassword(ctx, "forgot@example.com", "BrandNew#456")
	assert.NoError(t, err)

	// recovery through the link also verifies a pending admin
	stored, _ := env.admins.get(rec.UserID)
	assert.True(t, stored.IsVerified)
}

func TestUpdateUserByIDMergesMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	identity, err := env.auth.CreateUser(ctx, &model.CreateIdentityRequest{
		Email:    "meta@example.com",
		Password: "Password#123",
		Metadata: map[string]interface{}{"display_name": "Old", "locale": "id"},
	})
	require.NoError(t, err)

	updated, err := env.auth.UpdateUserByID(ctx, identity.ID, map[string]interface{}{"display_name": "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.DisplayName())
	assert.Equal(t, "id", updated.Metadata["locale"])

	_, err = env.auth.UpdateUserByID(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	err := env.auth.DeleteUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
