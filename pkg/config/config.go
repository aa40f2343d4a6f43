package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers understood by checkpoint.Open
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverMinio  = "minio"
)

// Config holds all configuration options for the dated reader
type Config struct {
	// Checkpoint persistence
	Store StoreConfig `yaml:"store" json:"store"`

	// Defaults applied to every read
	Reader ReaderConfig `yaml:"reader" json:"reader"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StoreConfig selects and configures the checkpoint store backend
type StoreConfig struct {
	Driver string      `yaml:"driver" json:"driver"`
	Path   string      `yaml:"path" json:"path"`
	Minio  MinioConfig `yaml:"minio" json:"minio"`

	// Remote backends retry transient failures; local ones never do
	RetryAttempts int           `yaml:"retry_attempts" json:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// MinioConfig holds S3-compatible object storage settings
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// ReaderConfig holds defaults for reading dated files
type ReaderConfig struct {
	DateFormat      string `yaml:"date_format" json:"date_format"`
	Location        string `yaml:"location" json:"location"`
	StrictTemplates bool   `yaml:"strict_templates" json:"strict_templates"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultDateFormat renders dates as year/month/day path segments
const DefaultDateFormat = "%Y/%m/%d"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DriverJSON,
			Path:   "", // empty means the platform data directory
			Minio: MinioConfig{
				Prefix: "checkpoints",
				UseSSL: true,
			},
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Reader: ReaderConfig{
			DateFormat:      DefaultDateFormat,
			Location:        "Local",
			StrictTemplates: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if driver := os.Getenv("DATEDREADER_STORE_DRIVER"); driver != "" {
		c.Store.Driver = driver
	}
	if path := os.Getenv("DATEDREADER_STORE_PATH"); path != "" {
		c.Store.Path = path
	}

	// MinIO
	if endpoint := os.Getenv("DATEDREADER_MINIO_ENDPOINT"); endpoint != "" {
		c.Store.Minio.Endpoint = endpoint
	}
	if accessKey := os.Getenv("DATEDREADER_MINIO_ACCESS_KEY"); accessKey != "" {
		c.Store.Minio.AccessKey = accessKey
	}
	if secretKey := os.Getenv("DATEDREADER_MINIO_SECRET_KEY"); secretKey != "" {
		c.Store.Minio.SecretKey = secretKey
	}
	if bucket := os.Getenv("DATEDREADER_MINIO_BUCKET"); bucket != "" {
		c.Store.Minio.Bucket = bucket
	}

	// Reader defaults
	if format := os.Getenv("DATEDREADER_DATE_FORMAT"); format != "" {
		c.Reader.DateFormat = format
	}
	if loc := os.Getenv("DATEDREADER_LOCATION"); loc != "" {
		c.Reader.Location = loc
	}
	if strict := os.Getenv("DATEDREADER_STRICT_TEMPLATES"); strict != "" {
		c.Reader.StrictTemplates = strings.ToLower(strict) == "true"
	}

	// Logging level
	if logLevel := os.Getenv("DATEDREADER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".datedreader.yaml",
		".datedreader.yml",
		filepath.Join(home, ".config", "datedreader", "config.yaml"),
		filepath.Join(home, ".config", "datedreader", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Store.Driver) {
	case DriverJSON, DriverSQLite:
	case DriverMinio:
		if c.Store.Minio.Endpoint == "" {
			errs = append(errs, errors.New("minio endpoint is required"))
		}
		if c.Store.Minio.Bucket == "" {
			errs = append(errs, errors.New("minio bucket is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Store.RetryAttempts < 0 || c.Store.RetryAttempts > 10 {
		errs = append(errs, errors.New("retry_attempts must be between 0 and 10"))
	}
	if c.Store.RetryDelay < 0 {
		errs = append(errs, errors.New("retry_delay cannot be negative"))
	}

	if c.Reader.DateFormat == "" {
		errs = append(errs, errors.New("date format is required"))
	}
	if _, err := c.Reader.LoadLocation(); err != nil {
		errs = append(errs, fmt.Errorf("invalid location: %w", err))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// LoadLocation resolves the configured zone used to decide what "today" is
func (r ReaderConfig) LoadLocation() (*time.Location, error) {
	switch r.Location {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(r.Location)
	}
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Secrets may be present, keep it private
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if driver, ok := flags["store"].(string); ok && driver != "" {
		c.Store.Driver = driver
	}
	if path, ok := flags["store-path"].(string); ok && path != "" {
		c.Store.Path = path
	}
	if format, ok := flags["date-format"].(string); ok && format != "" {
		c.Reader.DateFormat = format
	}
	if loc, ok := flags["location"].(string); ok && loc != "" {
		c.Reader.Location = loc
	}
	if strict, ok := flags["strict"].(bool); ok {
		c.Reader.StrictTemplates = strict
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".datedreader.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
