package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/assure")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AI_PROVIDER", "offline")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "http://localhost:5173", cfg.Server.FrontendURL)
	assert.Equal(t, int64(50), cfg.Server.BodyLimitMB)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 16384, cfg.AI.MaxTokens)
	assert.Equal(t, "postgres://u:p@db:5432/assure", cfg.PostgresDSN())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: 8080
database:
  host: localhost
  user: app
  password: pw
  name: assurance
auth:
  jwtSecret: from-file
  accessTokenTTL: 1h
ai:
  provider: Gemini
  gemini:
    apiKey: g-key
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "postgres://app:pw@localhost:5432/assurance?sslmode=disable", cfg.PostgresDSN())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv("PORT", "eighty")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.AI.Provider = "llama"
	assert.Contains(t, cfg.Validate().Error(), `unknown ai provider "llama"`)
}

func TestMinioEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.MinioEnabled())
	cfg.Minio.Endpoint = "minio:9000"
	cfg.Minio.BucketName = "exports"
	assert.True(t, cfg.MinioEnabled())
}

func TestValidate_MemoryDriverNeedsNoDSN(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "Memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AI_PROVIDER", "offline")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "sqlite"
	assert.Contains(t, cfg.Validate().Error(), `unknown database driver "sqlite"`)
}
