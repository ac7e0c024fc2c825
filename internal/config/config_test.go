package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-scheduling-api/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	for _, k := range []string{"DATABASE_URL", "TOKEN_TTL", "CONFLICT_POLICY", "CORS_ORIGINS", "PUBLIC_AVAILABILITY"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.SlotLockTTL)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, "appointments", cfg.AMQPExchange)
	assert.True(t, cfg.PublicAvailability)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, model.IntervalOverlap, cfg.Policy())
	assert.True(t, cfg.InMemory())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL", "2m")
	t.Setenv("CONFLICT_POLICY", "instant")
	t.Setenv("PUBLIC_AVAILABILITY", "false")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DATABASE_URL", "postgres://localhost/clinic")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2*time.Minute, cfg.TokenTTL)
	assert.Equal(t, model.InstantEquality, cfg.Policy())
	assert.False(t, cfg.PublicAvailability)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.False(t, cfg.InMemory())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			GRPCPort: "50051", HTTPPort: "8080", JWTSecret: "s", TokenTTL: time.Minute,
			DBMaxConns: 10, DBMinConns: 2, RateLimitRPS: 5, RateLimitBurst: 10,
			LogFormat: "json", ConflictPolicy: "overlap",
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"bad policy", func(c *Config) { c.ConflictPolicy = "fuzzy" }, "CONFLICT_POLICY"},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, "TOKEN_TTL"},
		{"pool bounds", func(c *Config) { c.DBMinConns = 20 }, "DB_MIN_CONNS"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"rate limit", func(c *Config) { c.RateLimitBurst = 0 }, "RATE_LIMIT"},
	}
	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
