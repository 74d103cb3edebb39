package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: s3cret
database:
  host: db
  dbname: elapor
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "elapor", cfg.Database.DBName)
	assert.Equal(t, 3, cfg.Admin.MaxSuperAdmins)
	assert.Equal(t, 60, cfg.Cooldown.WindowSeconds)
	assert.Equal(t, 1000, cfg.Cooldown.StepMillis)
	assert.Equal(t, 1, cfg.Cooldown.PersistDays)
	assert.Equal(t, "log", cfg.Mail.Provider)
	assert.Equal(t, int64(2<<20), cfg.Storage.MaxAvatarBytes)
	assert.True(t, cfg.Server.SecureCookie)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: s3cret\nserver:\n  port: 9000\n")
	t.Setenv("ELAPOR_SERVER_PORT", "9100")
	t.Setenv("ELAPOR_ADMIN_MAX_SUPER_ADMINS", "5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Admin.MaxSuperAdmins)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server:\n  port: 8080\n"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
