package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, time.Hour, cfg.JWT.VerificationTTL)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, 100, cfg.RateLimit.Limit)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.True(t, cfg.Security.CSRFEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	content := []byte("env: production\njwt:\n  access_secret: from-file\n  refresh_ttl: 720h\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o600))

	t.Setenv("APP_JWT_ACCESS_SECRET", "from-env")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.AccessSecret)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		cfg.JWT.AccessSecret = "a"
		cfg.JWT.RefreshSecret = "r"
		cfg.JWT.VerificationSecret = "v"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.JWT.RefreshSecret = "" }, "jwt secrets"},
		{"zero rate window", func(c *Config) { c.RateLimit.Window = 0 }, "rate_limit.window"},
		{"negative reaper interval", func(c *Config) { c.Security.ReaperInterval = -time.Second }, "security.reaper_interval"},
		{"zero rate limit", func(c *Config) { c.RateLimit.Limit = 0 }, "rate_limit.limit"},
		{"zero otp attempts", func(c *Config) { c.OTP.MaxAttempts = 0 }, "otp.max_attempts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("otp attempts above three", func(t *testing.T) {
		cfg := valid()
		cfg.OTP.MaxAttempts = 5
		assert.NoError(t, cfg.Validate())
	})
}
