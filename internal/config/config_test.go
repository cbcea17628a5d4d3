package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "facebook:\n  app_id: \"123\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "123", cfg.Facebook.AppID)
	assert.Equal(t, 300*time.Second, cfg.Facebook.CacheTTL)
	assert.Equal(t, "https://graph.facebook.com/", cfg.Facebook.GraphURL)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: redis
database:
  redis:
    host: cache.internal
    port: 6380
facebook:
  app_id: "123"
  cache_ttl: 2m
  file_upload: true
`)
	t.Setenv("FACEBOOK_APP_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "cache.internal", cfg.Database.Redis.Host)
	assert.Equal(t, 6380, cfg.Database.Redis.Port)
	assert.Equal(t, 2*time.Minute, cfg.Facebook.CacheTTL)
	assert.True(t, cfg.Facebook.FileUpload)
	assert.Equal(t, "from-env", cfg.Facebook.AppSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestJWTConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"Empty", "", true},
		{"TooShort", "0123456789abcdef0123456789abcde", true},
		{"MinimumLength", "0123456789abcdef0123456789abcdef", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := JWTConfig{SigningKey: tt.key}.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakSigningKey)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_DefaultSigningKeyIsRejected(t *testing.T) {
	cfg, err := Load(writeConfig(t, "facebook:\n  app_id: \"123\"\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.JWT.Validate(), ErrWeakSigningKey)
}
