package main

import (
	"errors"
	"fmt"
	"io/fs"

	"prepboard/internal/bootstrap"
	"prepboard/internal/common/cache"
	"prepboard/internal/common/storage"
	"prepboard/pkg/utils/logger"
)

const (
	defaultConfigPath  = "configs/seed.yaml"
	defaultConcurrency = 4
)

// AppConfig holds the prepboard-seed configuration. Every field can be
// overridden from the command line.
type AppConfig struct {
	Logger      logger.Config            `yaml:"logger"`
	Database    bootstrap.DatabaseConfig `yaml:"database"`
	Redis       cache.RedisConfig        `yaml:"redis"`
	MinIO       storage.MinIOConfig      `yaml:"minio"`
	Concurrency int                      `yaml:"concurrency"`
}

// loadAppConfig reads path when it exists. A missing file is only an error
// when the caller asked for it explicitly.
func loadAppConfig(path string, required bool) (*AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		err := bootstrap.LoadYAML(path, &cfg)
		switch {
		case err == nil:
		case !required && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}
	return &cfg, nil
}

func (cfg *AppConfig) applyOptions(opts *options) error {
	if opts.driver != "" {
		cfg.Database.Driver = opts.driver
	}
	if opts.dsn != "" {
		cfg.Database.DSN = opts.dsn
	}
	if opts.schema {
		cfg.Database.EnsureSchema = true
	}
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if opts.bucket != "" {
		cfg.MinIO.Bucket = opts.bucket
	}
	if opts.prefix != "" {
		cfg.MinIO.Prefix = opts.prefix
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "console"
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required (config database.dsn or --dsn)")
	}
	return nil
}
