package storage

import (
	"fmt"
	"os"

	"github.com/JaimeStill/pledge/pkg/formatting"
)

// Config holds Azure Blob Storage connection parameters for transcript blobs.
// An empty ConnectionString disables blob storage; transcripts must then be
// supplied inline.
type Config struct {
	ContainerName    string              `toml:"container_name"`
	ConnectionString string              `toml:"connection_string"`
	MaxBlobSize      formatting.ByteSize `toml:"max_blob_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	MaxBlobSize      string
}

// Enabled reports whether a connection string is configured.
func (c *Config) Enabled() bool {
	return c.ConnectionString != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.MaxBlobSize != 0 {
		c.MaxBlobSize = overlay.MaxBlobSize
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "transcripts"
	}
	if c.MaxBlobSize == 0 {
		c.MaxBlobSize = 2 << 20
	}
}

func (c *Config) loadEnv(env *Env) error {
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
	if env.MaxBlobSize != "" {
		if v := os.Getenv(env.MaxBlobSize); v != "" {
			if err := c.MaxBlobSize.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("invalid max_blob_size: %w", err)
			}
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.MaxBlobSize <= 0 {
		return fmt.Errorf("max_blob_size must be positive")
	}
	return nil
}
