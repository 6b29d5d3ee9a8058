package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	WebPort         string        `mapstructure:"WEB_PORT"`
	DBDriver        string        `mapstructure:"DB_DRIVER"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	SuggestURL      string        `mapstructure:"SUGGEST_URL"`
	SuggestToken    string        `mapstructure:"SUGGEST_TOKEN"`
	SuggestCacheTTL time.Duration `mapstructure:"SUGGEST_CACHE_TTL"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	SeedOnStart     bool          `mapstructure:"SEED_ON_START"`
}

var keys = []string{
	"ENV", "PORT", "WEB_PORT", "DB_DRIVER", "DATABASE_URL", "DB_MAX_CONNS", "JWT_SECRET",
	"REDIS_URL", "SUGGEST_URL", "SUGGEST_TOKEN", "SUGGEST_CACHE_TTL", "RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST", "CORS_ORIGINS", "SEED_ON_START",
}

// Load reads settings from the environment, falling back to a .env file in
// the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "50051")
	v.SetDefault("WEB_PORT", "8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("SUGGEST_CACHE_TTL", "24h")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SEED_ON_START", false)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// env values arrive as a single comma-separated string
	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	if cfg.DatabaseURL == "" && cfg.DBDriver == "sqlite" {
		cfg.DatabaseURL = "file:health_records.db?_foreign_keys=on&_busy_timeout=5000"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate refuses configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be \"sqlite\" or \"postgres\", got %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for %s", c.DBDriver)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
