package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PLATFORM_MODE", "")
	t.Setenv("POLICY_MAX_DISCOUNT_PERCENT", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, PlatformModeSandbox, cfg.Platform.Mode)
	assert.Equal(t, 40.0, cfg.Policy.MaxDiscountPercent)
	assert.Equal(t, 0.99, cfg.Policy.PriceFloor)
	assert.Equal(t, 1, cfg.Policy.BulkConcurrency)
	assert.False(t, cfg.OpenAI.Enabled)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PLATFORM_MODE", "HTTP")
	t.Setenv("PLATFORM_TIMEOUT", "45")
	t.Setenv("OPENAI_TIMEOUT", "1m")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("POLICY_BULK_CONCURRENCY", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, PlatformModeHTTP, cfg.Platform.Mode)
	assert.Equal(t, 45*time.Second, cfg.Platform.Timeout)
	assert.Equal(t, time.Minute, cfg.OpenAI.Timeout)
	assert.True(t, cfg.OpenAI.Enabled)
	assert.Equal(t, 4, cfg.Policy.BulkConcurrency)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Platform: PlatformConfig{Mode: PlatformModeSandbox},
			Policy:   PolicyConfig{MaxDiscountPercent: 40, PriceFloor: 0.99, BulkConcurrency: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad mode", func(c *Config) { c.Platform.Mode = "ftp" }, true},
		{"zero ceiling", func(c *Config) { c.Policy.MaxDiscountPercent = 0 }, true},
		{"negative floor", func(c *Config) { c.Policy.PriceFloor = -1 }, true},
		{"confidence above one", func(c *Config) { c.Policy.MinConfidence = 1.5 }, true},
		{"no workers", func(c *Config) { c.Policy.BulkConcurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetPostgreSQLDSN(t *testing.T) {
	c := &Config{PostgreSQL: PostgreSQLConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", c.GetPostgreSQLDSN())

	c.PostgreSQL.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", c.GetPostgreSQLDSN())
}
