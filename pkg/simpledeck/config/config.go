// Package config builds the document service and the client from options and
// environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-deck/pkg/simpledeck"
	"github.com/tendant/simple-deck/pkg/simpledeck/store"
	"github.com/tendant/simple-deck/pkg/simpledeck/store/repo/memory"
	repopg "github.com/tendant/simple-deck/pkg/simpledeck/store/repo/postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:              "5000",
		Environment:       "development",
		DatabaseURL:       "memory",
		DBSchema:          "deck",
		StorageURL:        "memory://",
		MaxUploadSize:     "50MB",
		AllowedExtensions: append([]string(nil), simpledeck.PresentationExtensions...),
		Log:               LogConfig{Level: "info", Format: "text"},
	}
}

// ServerConfig represents configuration for the deckstore document service
type ServerConfig struct {
	Port        string `env:"PORT"`
	Environment string `env:"ENVIRONMENT"` // development, production, testing

	// Database configuration
	DatabaseURL string `env:"DATABASE_URL"`
	DBSchema    string `env:"DB_SCHEMA"` // Postgres schema to use (default: deck)

	// Storage configuration
	StorageURL string `env:"STORAGE_URL"`

	// Upload limits
	MaxUploadSize     string   `env:"MAX_UPLOAD_SIZE"`
	AllowedExtensions []string `env:"ALLOWED_EXTENSIONS" env-separator:","`

	Log LogConfig

	// Resolved from the fields above by Load
	DatabaseType   string // "memory", "postgres"
	Storage        StorageConfig
	MaxUploadBytes int64
}

// resolve derives the typed settings from their string forms
func (c *ServerConfig) resolve() error {
	switch {
	case c.DatabaseURL == "" || c.DatabaseURL == "memory":
		c.DatabaseType = "memory"
	case strings.HasPrefix(c.DatabaseURL, "postgresql://"), strings.HasPrefix(c.DatabaseURL, "postgres://"):
		c.DatabaseType = "postgres"
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", c.DatabaseURL)
	}

	storage, err := ParseStorageURL(c.StorageURL)
	if err != nil {
		return err
	}
	c.Storage = storage

	size, err := units.RAMInBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max upload size %q: %w", c.MaxUploadSize, err)
	}
	c.MaxUploadBytes = size
	return nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return errors.New("s3 bucket is required")
	}
	return c.Log.Validate()
}

// BuildService creates the document service. The returned cleanup function
// releases the database pool, if any.
func (c *ServerConfig) BuildService(ctx context.Context, opts ...store.Option) (*store.Service, func(), error) {
	repo, cleanup, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	blobs, err := c.Storage.Build(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Type, err)
	}

	options := []store.Option{
		store.WithRepository(repo),
		store.WithBlobStore(blobs),
		store.WithMaxUploadSize(c.MaxUploadBytes),
		store.WithAllowedExtensions(c.AllowedExtensions...),
	}
	svc, err := store.New(append(options, opts...)...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (store.Repository, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), func() {}, nil
	case "postgres":
		pool, err := c.newPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		repo := repopg.NewWithPool(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) newPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema := c.DBSchema; schema != "" {
		ident := pgx.Identifier{schema}.Sanitize()
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if _, err := conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
				return err
			}
			_, err := conn.Exec(ctx, "SET search_path TO "+ident)
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}
