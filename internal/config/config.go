package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials is returned by ValidateWriter when a write path lacks
// what it needs to reach the index service or the Listing Store.
var ErrMissingCredentials = errors.New("missing credentials")

// Config holds the gymdex configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Index    IndexConfig    `yaml:"index"`
	Listings ListingsConfig `yaml:"listings"`
	Sync     SyncConfig     `yaml:"sync"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for admin routes.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds index service (Redis Stack) connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	NoAuth           bool     `yaml:"no_auth"` // allow writers without a password (local only)
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds search collection and query settings.
type IndexConfig struct {
	KeyPrefix         string `yaml:"key_prefix"`
	Collection        string `yaml:"collection"`
	ReadTimeoutMs     int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs    int    `yaml:"write_timeout_ms"`
	DefaultPageSize   int    `yaml:"default_page_size"`
	MaxPageSize       int    `yaml:"max_page_size"`
	AutocompleteLimit int    `yaml:"autocomplete_limit"`
	RelevanceWindow   int    `yaml:"relevance_window"`
	FacetLimit        int    `yaml:"facet_limit"`
}

// ReadTimeout is the dial/write timeout of the search client.
func (c IndexConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

// WriteTimeout is the dial/write timeout of the indexing client.
func (c IndexConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}

// ListingsConfig holds the Listing Store connection.
type ListingsConfig struct {
	Driver  string `yaml:"driver"` // postgres, sqlite
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"` // create tables on start (sqlite development only)
}

// SyncConfig holds index synchronization settings.
type SyncConfig struct {
	BatchSize     int    `yaml:"batch_size"`
	WebhookSecret string `yaml:"webhook_secret"`
	FeedURL       string `yaml:"feed_url"` // optional websocket change feed
}

// SearchConfig holds query parsing settings.
type SearchConfig struct {
	AliasFile string `yaml:"alias_file"` // optional YAML location aliases
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "gymdex:"
	}
	if c.Index.Collection == "" {
		c.Index.Collection = "listings"
	}
	if c.Index.ReadTimeoutMs <= 0 {
		c.Index.ReadTimeoutMs = 1500
	}
	if c.Index.WriteTimeoutMs <= 0 {
		c.Index.WriteTimeoutMs = 15000
	}
	if c.Index.DefaultPageSize <= 0 {
		c.Index.DefaultPageSize = 20
	}
	if c.Index.MaxPageSize <= 0 {
		c.Index.MaxPageSize = 100
	}
	if c.Index.AutocompleteLimit <= 0 {
		c.Index.AutocompleteLimit = 8
	}
	if c.Index.RelevanceWindow <= 0 {
		c.Index.RelevanceWindow = 1000
	}
	if c.Index.FacetLimit <= 0 {
		c.Index.FacetLimit = 20
	}
	if c.Listings.Driver == "" {
		c.Listings.Driver = "postgres"
	}
	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if !slices.Contains([]string{"postgres", "sqlite"}, c.Listings.Driver) {
		return fmt.Errorf("listings.driver must be \"postgres\" or \"sqlite\", got %q", c.Listings.Driver)
	}
	if c.Index.DefaultPageSize > c.Index.MaxPageSize {
		return fmt.Errorf("index.default_page_size %d exceeds index.max_page_size %d",
			c.Index.DefaultPageSize, c.Index.MaxPageSize)
	}
	if c.Index.ReadTimeoutMs > c.Index.WriteTimeoutMs {
		return fmt.Errorf("index.read_timeout_ms must not exceed index.write_timeout_ms")
	}
	if c.Sync.BatchSize > 1000 {
		return fmt.Errorf("sync.batch_size must be at most 1000, got %d", c.Sync.BatchSize)
	}
	return nil
}

// ValidateWriter checks what write paths (reindex, webhook, feed) need on top
// of Validate. Missing values are never silently skipped.
func (c *Config) ValidateWriter() error {
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("%w: database.addrs", ErrMissingCredentials)
	}
	if c.Database.Password == "" && !c.Database.NoAuth {
		return fmt.Errorf("%w: database.password (set database.no_auth for unauthenticated local stores)",
			ErrMissingCredentials)
	}
	if c.Listings.DSN == "" {
		return fmt.Errorf("%w: listings.dsn", ErrMissingCredentials)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
