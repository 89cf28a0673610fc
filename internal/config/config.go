// Package config provides configuration loading for the reconciler server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Address is the HTTP listen address of the notification and health
	// endpoints. Defaults to ":8080".
	Address string `yaml:"address,omitempty"`

	Cluster    ClusterConfig     `yaml:"cluster"`
	Database   *DatabaseConfig   `yaml:"database,omitempty"`
	Reconciler *ReconcilerConfig `yaml:"reconciler,omitempty"`
}

// ClusterConfig describes how remote registries reach this gateway cluster.
type ClusterConfig struct {
	// Hostname is the externally resolvable hostname of the cluster.
	Hostname string `yaml:"hostname"`

	// Port is the external HTTPS port. Defaults to 443.
	Port int `yaml:"port,omitempty"`
}

// ReconcilerConfig tunes the reconciliation workflows. All fields are
// optional; zero values select the built-in defaults.
type ReconcilerConfig struct {
	// SubscriptionExpiry is how far in the future registry subscriptions
	// expire (e.g., "24h").
	SubscriptionExpiry string `yaml:"subscriptionExpiry,omitempty"`

	// RenewThreshold is the remaining subscription lifetime below which a
	// renewal is raised (e.g., "12h").
	RenewThreshold string `yaml:"renewThreshold,omitempty"`

	// MetricsCleanupInterval is the fixed period of the metrics cleanup
	// timer (e.g., "1m").
	MetricsCleanupInterval string `yaml:"metricsCleanupInterval,omitempty"`

	// PolicySweepInterval is the fixed period of the per-registry policy
	// attachment sweep (e.g., "1m").
	PolicySweepInterval string `yaml:"policySweepInterval,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from UDDI_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	// Priority 1: Read from file if specified
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		// Trim whitespace (including newlines) from file content
		password := strings.TrimSpace(string(data))
		return password, nil
	}

	// Priority 2: Check environment variable
	if envPassword := os.Getenv("UDDI_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or UDDI_DATABASE_PASSWORD environment variable",
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	// URL-escape the password to handle special characters
	escapedPassword := url.QueryEscape(password)

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		escapedPassword,
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetAddress returns the HTTP listen address, defaulting to ":8080".
func (c *Config) GetAddress() string {
	if c.Address == "" {
		return ":8080"
	}
	return c.Address
}

// SubscriptionExpiry returns the configured subscription expiry, or zero
// when unset so callers fall back to their default.
func (c *Config) SubscriptionExpiry() time.Duration {
	return c.reconcilerDuration(func(r *ReconcilerConfig) string { return r.SubscriptionExpiry })
}

// RenewThreshold returns the configured renew threshold, or zero when
// unset.
func (c *Config) RenewThreshold() time.Duration {
	return c.reconcilerDuration(func(r *ReconcilerConfig) string { return r.RenewThreshold })
}

// MetricsCleanupInterval returns the configured cleanup interval, or zero
// when unset.
func (c *Config) MetricsCleanupInterval() time.Duration {
	return c.reconcilerDuration(func(r *ReconcilerConfig) string { return r.MetricsCleanupInterval })
}

// PolicySweepInterval returns the configured policy sweep interval, or zero
// when unset.
func (c *Config) PolicySweepInterval() time.Duration {
	return c.reconcilerDuration(func(r *ReconcilerConfig) string { return r.PolicySweepInterval })
}

func (c *Config) reconcilerDuration(get func(*ReconcilerConfig) string) time.Duration {
	if c.Reconciler == nil {
		return 0
	}
	raw := get(c.Reconciler)
	if raw == "" {
		return 0
	}
	// Validation already guaranteed the value parses.
	d, _ := time.ParseDuration(raw)
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Cluster.Hostname == "" {
		return fmt.Errorf("cluster.hostname is required")
	}
	if c.Cluster.Port < 0 || c.Cluster.Port > 65535 {
		return fmt.Errorf("cluster.port must be a valid port number, got %d", c.Cluster.Port)
	}

	if c.Reconciler != nil {
		if err := validateDuration("reconciler.subscriptionExpiry", c.Reconciler.SubscriptionExpiry); err != nil {
			return err
		}
		if err := validateDuration("reconciler.renewThreshold", c.Reconciler.RenewThreshold); err != nil {
			return err
		}
		if err := validateDuration("reconciler.metricsCleanupInterval", c.Reconciler.MetricsCleanupInterval); err != nil {
			return err
		}
		if err := validateDuration("reconciler.policySweepInterval", c.Reconciler.PolicySweepInterval); err != nil {
			return err
		}
	}

	if c.Database != nil {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
		if err := validateDuration("database.connMaxLifetime", c.Database.ConnMaxLifetime); err != nil {
			return err
		}
	}

	return nil
}

func validateDuration(field, raw string) error {
	if raw == "" {
		return nil
	}
	if _, err := time.ParseDuration(raw); err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30m', '1h'): %w", field, err)
	}
	return nil
}
