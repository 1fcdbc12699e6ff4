package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("SOUSCHEF_DATABASE_HOST", "db")
	t.Setenv("SOUSCHEF_DATABASE_PORT", "5433")
	t.Setenv("SOUSCHEF_AUTH_DEV_SECRET", "test-secret")
	t.Setenv("SOUSCHEF_REDIS_URL", "redis://localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Environment)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "souschef", cfg.Database.Name)
	assert.Equal(t, "test-secret", cfg.Auth.DevSecret)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.cerebras.ai/v1", cfg.LLM.BaseURL)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoadConfigReadsSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("s3cret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-file"), 0o600))

	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("SOUSCHEF_AUTH_DEV_SECRET", "from-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "from-file", cfg.Auth.DevSecret)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "database:\n  driver: sqlite\n  path: /tmp/test.db\nauth:\n  dev_secret: yaml-secret\nserver:\n  trusted_proxies: [\"10.0.0.0/8\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	t.Setenv("SECRETS_DIR", t.TempDir())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: Development,
			Server:      ServerConfig{Port: 8080},
			Database:    DatabaseConfig{Driver: "postgres", Host: "localhost", Name: "souschef"},
			Redis:       RedisConfig{Addr: "localhost:6379"},
			Auth:        AuthConfig{DevSecret: "secret"},
			RateLimit:   RateLimitConfig{ChatPerHour: 10, GeneratePerHour: 5},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateConfig(valid()))
	})

	t.Run("bad port and driver", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 0
		cfg.Database.Driver = "mysql"

		err := ValidateConfig(cfg)
		require.Error(t, err)
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Len(t, verrs, 2)
	})

	t.Run("production requires keys", func(t *testing.T) {
		cfg := valid()
		cfg.Environment = Production

		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.clerk_public_key")
		assert.Contains(t, err.Error(), "auth.dev_secret")
		assert.Contains(t, err.Error(), "database.password")
		assert.Contains(t, err.Error(), "llm.api_key")
	})

	t.Run("development requires some verifier", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.DevSecret = ""
		assert.Error(t, ValidateConfig(cfg))
	})
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "production")
	assert.Equal(t, Production, GetEnvironment())

	t.Setenv("ENV", "")
	assert.Equal(t, Development, GetEnvironment())

	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())
}
