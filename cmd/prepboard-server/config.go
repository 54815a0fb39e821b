package main

import (
	"fmt"
	"strings"
	"time"

	"prepboard/internal/bootstrap"
	"prepboard/internal/common/cache"
	"prepboard/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultRateWindow      = time.Minute
	defaultRateUserMax     = 120
	defaultSigninIPMax     = 20
	defaultRedisOpTimeout  = 200 * time.Millisecond
	defaultCatalogTTL      = 10 * time.Minute
	defaultCatalogEmptyTTL = time.Minute
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// AuthConfig holds token and sign-in settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwtSecret"`
	JWTIssuer      string        `yaml:"jwtIssuer"`
	AccessTokenTTL time.Duration `yaml:"accessTokenTTL"`
	LoginFailTTL   time.Duration `yaml:"loginFailTTL"`
	LoginFailLimit int           `yaml:"loginFailLimit"`
}

// RateLimitConfig caps write traffic per user and sign-in traffic per IP.
type RateLimitConfig struct {
	Window       time.Duration `yaml:"window"`
	UserMax      int           `yaml:"userMax"`
	SigninIPMax  int           `yaml:"signinIPMax"`
	RedisTimeout time.Duration `yaml:"redisTimeout"`
}

// CatalogConfig holds catalog cache lifetimes.
type CatalogConfig struct {
	CacheTTL      time.Duration `yaml:"cacheTTL"`
	EmptyCacheTTL time.Duration `yaml:"emptyCacheTTL"`
}

// AppConfig holds the prepboard-server configuration.
type AppConfig struct {
	Server    ServerConfig             `yaml:"server"`
	Logger    logger.Config            `yaml:"logger"`
	Database  bootstrap.DatabaseConfig `yaml:"database"`
	Redis     cache.RedisConfig        `yaml:"redis"`
	Auth      AuthConfig               `yaml:"auth"`
	RateLimit RateLimitConfig          `yaml:"rateLimit"`
	Catalog   CatalogConfig            `yaml:"catalog"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := bootstrap.LoadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *AppConfig) applyDefaults() error {
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret is required")
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "json"
	}

	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = defaultRateWindow
	}
	if cfg.RateLimit.UserMax == 0 {
		cfg.RateLimit.UserMax = defaultRateUserMax
	}
	if cfg.RateLimit.SigninIPMax == 0 {
		cfg.RateLimit.SigninIPMax = defaultSigninIPMax
	}
	if cfg.RateLimit.RedisTimeout <= 0 {
		cfg.RateLimit.RedisTimeout = defaultRedisOpTimeout
	}

	if cfg.Catalog.CacheTTL <= 0 {
		cfg.Catalog.CacheTTL = defaultCatalogTTL
	}
	if cfg.Catalog.EmptyCacheTTL <= 0 {
		cfg.Catalog.EmptyCacheTTL = defaultCatalogEmptyTTL
	}
	return nil
}
