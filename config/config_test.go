package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  host: db.internal
  conn_max_lifetime: 2m
jwt:
  secret: `+testSecret+`
notifications:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 2*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, int64(6<<20), cfg.Server.MaxUploadSize)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: short\n")
	t.Setenv("DOCTOR_JWT_SECRET", testSecret)
	t.Setenv("DOCTOR_DB_PASSWORD", "hunter2")
	t.Setenv("DOCTOR_DB_PORT", "6543")
	t.Setenv("DOCTOR_REDIS_URL", "redis://cache:6379/1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, testSecret, cfg.JWT.Secret)
	assert.Equal(t, "hunter2", cfg.Database.Password)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.ToBrokerConfig().URL)
}

func TestLoadRejectsWeakSecret(t *testing.T) {
	_, err := Load(writeConfig(t, "jwt:\n  secret: short\n"))
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadDotenv(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("DOCTOR_SMTP_PASSWORD=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DOCTOR_SMTP_PASSWORD") })

	orig := dotenvFiles
	dotenvFiles = []string{filepath.Join(t.TempDir(), "missing.env"), env}
	t.Cleanup(func() { dotenvFiles = orig })

	cfg, err := Load(writeConfig(t, "jwt:\n  secret: "+testSecret+"\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.SMTP.ToEmailConfig().Password)
}
