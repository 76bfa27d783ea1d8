package storage

import (
	"fmt"
	"time"

	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/observability"
	"github.com/kbukum/blobkit/validation"
)

// Default configuration values.
const (
	DefaultPresignTTL = time.Hour
	DefaultKeyNaming  = KeyNamingUUID
)

// Config holds storage configuration.
type Config struct {
	// Enabled controls whether the storage component is active.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// ConnectionString selects and configures the backend, e.g.
	// "Provider=s3;Endpoint=http://minio:9000;AccessKey=...;SecretKey=...;PathStyle=true".
	// Empty targets the development emulator.
	ConnectionString string `mapstructure:"connection_string" json:"connection_string"`

	// DefaultContainer is used by operations that name no container.
	DefaultContainer string `mapstructure:"default_container" json:"default_container" validate:"omitempty,container_name"`

	// DefaultAccess is applied to containers created on first use.
	DefaultAccess string `mapstructure:"default_access" json:"default_access" validate:"oneof=private public-read"`

	// KeyNaming selects the key policy for uploads without a key: none, uuid or dated.
	KeyNaming string `mapstructure:"key_naming" json:"key_naming" validate:"oneof=none uuid dated"`

	// PresignTTL is the lifetime of signed URLs issued without an explicit expiry.
	PresignTTL time.Duration `mapstructure:"presign_ttl" json:"presign_ttl" validate:"gt=0"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DefaultAccess == "" {
		c.DefaultAccess = string(AccessPrivate)
	}
	if c.KeyNaming == "" {
		c.KeyNaming = DefaultKeyNaming
	}
	if c.PresignTTL == 0 {
		c.PresignTTL = DefaultPresignTTL
	}
}

// Validate checks the configuration, including the connection string syntax.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if _, err := ParseConnectionString(c.ConnectionString); err != nil {
		return invalidArgument("connection_string", err.Error()).WithCause(err)
	}
	return nil
}

// Options converts the configuration into Client options.
func (c *Config) Options(log *logger.Logger, metrics *observability.Metrics) (Options, error) {
	access, err := ParseAccess(c.DefaultAccess)
	if err != nil {
		return Options{}, err
	}
	keys, err := NewKeyNamer(c.KeyNaming)
	if err != nil {
		return Options{}, fmt.Errorf("storage: %w", err)
	}
	return Options{
		ConnectionString: c.ConnectionString,
		DefaultContainer: c.DefaultContainer,
		DefaultAccess:    access,
		KeyNamer:         keys,
		Logger:           log,
		Metrics:          metrics,
	}, nil
}
