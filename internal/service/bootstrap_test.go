package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapCreatesFirstSuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	boot := NewBootstrapService(env.admins, env.auth)

	created, err := boot.CheckAndInitSuperAdmin(ctx, "Root@Example.com", "")
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := env.admins.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.IsSuperAdmin)
	assert.True(t, admin.IsVerified)
	assert.Equal(t, 1, env.mail.count())

	created, err = boot.CheckAndInitSuperAdmin(ctx, "root@example.com", "")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestBootstrapWithoutEmail(t *testing.T) {
	env := newTestEnv(t)
	created, err := NewBootstrapService(env.admins, env.auth).CheckAndInitSuperAdmin(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, env.identities.count())
}
