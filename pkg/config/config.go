package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the album downloader
type Config struct {
	// Platform endpoints and identity
	Platform PlatformConfig `yaml:"platform" json:"platform"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PlatformConfig describes the remote blogging platform
type PlatformConfig struct {
	Domain    string `yaml:"domain" json:"domain"`
	AuthURL   string `yaml:"auth_url" json:"auth_url"`
	APIURL    string `yaml:"api_url" json:"api_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	RequestTimeout      time.Duration `yaml:"request_timeout" json:"request_timeout"`
	ContinueOnError     bool          `yaml:"continue_on_error" json:"continue_on_error"`
}

// OutputConfig holds output directory and console configuration
type OutputConfig struct {
	Directory    string `yaml:"directory" json:"directory"`
	FolderPrefix string `yaml:"folder_prefix" json:"folder_prefix"`
	Quiet        bool   `yaml:"quiet" json:"quiet"`
	Progress     bool   `yaml:"progress" json:"progress"`
}

// RateLimitConfig holds request pacing configuration. Zero disables pacing.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

const (
	// DefaultConcurrentDownloads is the number of simultaneous image transfers
	DefaultConcurrentDownloads = 5

	// MaxConcurrentDownloads keeps the remote server from being hammered
	MaxConcurrentDownloads = 20
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			Domain:  "livejournal.com",
			AuthURL: "https://www.livejournal.com/__api/?request=ljuniq",
			APIURL:  "https://www.livejournal.com/__api/",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: DefaultConcurrentDownloads,
			RequestTimeout:      30 * time.Second,
			ContinueOnError:     false,
		},
		Output: OutputConfig{
			Directory:    "",
			FolderPrefix: "lj",
			Quiet:        false,
			Progress:     true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			BurstSize:         DefaultConcurrentDownloads,
		},
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if dir := os.Getenv("LJDL_DIRECTORY"); dir != "" {
		c.Output.Directory = dir
	}
	if ua := os.Getenv("LJDL_USER_AGENT"); ua != "" {
		c.Platform.UserAgent = ua
	}
	if concurrent := os.Getenv("LJDL_CONCURRENT_DOWNLOADS"); concurrent != "" {
		val, err := strconv.Atoi(concurrent)
		if err != nil {
			return fmt.Errorf("invalid LJDL_CONCURRENT_DOWNLOADS %q: %w", concurrent, err)
		}
		c.Download.ConcurrentDownloads = val
	}
	if rpm := os.Getenv("LJDL_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid LJDL_REQUESTS_PER_MINUTE %q: %w", rpm, err)
		}
		c.RateLimit.RequestsPerMinute = val
	}
	if cont := os.Getenv("LJDL_CONTINUE_ON_ERROR"); cont != "" {
		c.Download.ContinueOnError = strings.EqualFold(cont, "true") || cont == "1"
	}
	if logLevel := os.Getenv("LJDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("LJDL_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
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
		".ljdl.yaml",
		".ljdl.yml",
		filepath.Join(home, ".config", "ljdl", "config.yaml"),
		filepath.Join(home, ".config", "ljdl", "config.yml"),
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

	if c.Platform.Domain == "" {
		errs = append(errs, errors.New("platform domain is required"))
	}
	if c.Platform.AuthURL == "" {
		errs = append(errs, errors.New("platform auth URL is required"))
	}
	if c.Platform.APIURL == "" {
		errs = append(errs, errors.New("platform API URL is required"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > MaxConcurrentDownloads {
		errs = append(errs, fmt.Errorf("concurrent downloads should not exceed %d", MaxConcurrentDownloads))
	}
	if c.Download.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive when rate limiting is enabled"))
	}

	if c.Output.FolderPrefix == "" {
		errs = append(errs, errors.New("folder prefix is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dir, ok := flags["directory"].(string); ok && dir != "" {
		c.Output.Directory = dir
	}
	if concurrent, ok := flags["concurrent"].(int); ok {
		c.Download.ConcurrentDownloads = concurrent
	}
	if rpm, ok := flags["rate-limit"].(int); ok {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if cont, ok := flags["continue-on-error"].(bool); ok {
		c.Download.ContinueOnError = cont
	}
	if ua, ok := flags["user-agent"].(string); ok && ua != "" {
		c.Platform.UserAgent = ua
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if quiet, ok := flags["quiet"].(bool); ok {
		c.Output.Quiet = quiet
	}
	if progress, ok := flags["progress"].(bool); ok {
		c.Output.Progress = progress
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ljdl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
