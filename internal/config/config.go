package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"clinic-scheduling-api/internal/model"
)

type Config struct {
	GRPCPort           string        `mapstructure:"GRPC_PORT"`
	HTTPPort           string        `mapstructure:"HTTP_PORT"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	TokenTTL           time.Duration `mapstructure:"TOKEN_TTL"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	SlotLockTTL        time.Duration `mapstructure:"SLOT_LOCK_TTL"`
	AMQPURL            string        `mapstructure:"AMQP_URL"`
	AMQPExchange       string        `mapstructure:"AMQP_EXCHANGE"`
	ConflictPolicy     string        `mapstructure:"CONFLICT_POLICY"`
	PublicAvailability bool          `mapstructure:"PUBLIC_AVAILABILITY"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
}

var defaults = map[string]any{
	"GRPC_PORT":           "50051",
	"HTTP_PORT":           "8080",
	"DB_MAX_CONNS":        10,
	"DB_MIN_CONNS":        2,
	"TOKEN_TTL":           "15m",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "json",
	"SLOT_LOCK_TTL":       "5s",
	"AMQP_EXCHANGE":       "appointments",
	"CONFLICT_POLICY":     "overlap",
	"PUBLIC_AVAILABILITY": true,
	"CORS_ORIGINS":        "*",
	"RATE_LIMIT_RPS":      5,
	"RATE_LIMIT_BURST":    10,
}

var keys = []string{
	"GRPC_PORT", "HTTP_PORT", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"JWT_SECRET", "TOKEN_TTL", "LOG_LEVEL", "LOG_FORMAT", "REDIS_URL", "SLOT_LOCK_TTL",
	"AMQP_URL", "AMQP_EXCHANGE", "CONFLICT_POLICY", "PUBLIC_AVAILABILITY", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// Load reads .env (when present) into the environment, then the environment into
// a Config. It does not validate.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	// Unmarshal only sees keys viper knows about
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.GRPCPort == "" || c.HTTPPort == "" {
		errs = append(errs, errors.New("GRPC_PORT and HTTP_PORT must be set"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.DBMinConns > c.DBMaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	if _, err := model.ParseConflictPolicy(c.ConflictPolicy); err != nil {
		errs = append(errs, fmt.Errorf("CONFLICT_POLICY: %w", err))
	}
	return errors.Join(errs...)
}

// Policy is only meaningful after Validate succeeded.
func (c *Config) Policy() model.ConflictPolicy {
	p, _ := model.ParseConflictPolicy(c.ConflictPolicy)
	return p
}

// InMemory reports whether no database is configured.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == ""
}
