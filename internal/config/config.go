package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration validation constants
const (
	MinPollInterval    = 5     // Minimum poll interval in seconds
	MinPort            = 1     // Minimum valid port number
	MaxPort            = 65535 // Maximum valid port number
	MinConnectTimeout  = 100   // Minimum connect timeout in milliseconds
	MaxConnectTimeout  = 60000 // Maximum connect timeout in milliseconds

	// Default values
	DefaultEndpoint               = "https://management.azure.com"
	DefaultResourceProvider       = "Microsoft.Compute"
	DefaultResourceType           = "virtualMachineScaleSets"
	DefaultAPIVersion             = "2019-12-01"
	DefaultPollInterval           = 60 // seconds
	DefaultHTTPPort               = 8080
	DefaultLogLevel               = "info"
	DefaultConnectTimeoutMillis   = 4000
	DefaultMaxConsecutiveFailures = 2
)

// Required credential environment variables
const (
	EnvClientID     = "AZURE_CLIENT_ID"
	EnvClientSecret = "AZURE_CLIENT_SECRET"
	EnvTenantID     = "AZURE_TENANT_ID"
)

// Credentials holds the service principal secrets. They are read only from
// the environment, never from the config file, and all three are required.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TenantID     string
}

// Config represents the application configuration
type Config struct {
	SubscriptionID       string `yaml:"subscription_id"`
	Endpoint             string `yaml:"endpoint"`
	ResourceProvider     string `yaml:"resource_provider"`
	ResourceType         string `yaml:"resource_type"`
	APIVersion           string `yaml:"api_version"`
	PollInterval         int    `yaml:"poll_interval"` // seconds
	HTTPPort             int    `yaml:"http_port"`
	LogLevel             string `yaml:"log_level"`
	ConnectTimeoutMillis int    `yaml:"connect_timeout_millis"`

	// Pointer to distinguish between an explicit 0 (escalate on the first
	// failure) and unset
	MaxConsecutiveFailures *int `yaml:"max_consecutive_failures"`

	Credentials Credentials `yaml:"-"`
}

// FailureCeiling returns the configured consecutive-failure ceiling
func (c *Config) FailureCeiling() int {
	if c.MaxConsecutiveFailures == nil {
		return DefaultMaxConsecutiveFailures
	}
	return *c.MaxConsecutiveFailures
}

// Load loads configuration from a YAML file, applies environment variable
// overrides, and reads the required credentials from the environment
func Load(path string) (*Config, error) {
	// #nosec G304 -- Config file path is provided by administrator via CLI flag, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment variable error: %w", err)
	}

	if err := loadCredentials(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for configuration
func applyDefaults(cfg *Config) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.ResourceProvider == "" {
		cfg.ResourceProvider = DefaultResourceProvider
	}
	if cfg.ResourceType == "" {
		cfg.ResourceType = DefaultResourceType
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = DefaultHTTPPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.ConnectTimeoutMillis == 0 {
		cfg.ConnectTimeoutMillis = DefaultConnectTimeoutMillis
	}
	if cfg.MaxConsecutiveFailures == nil {
		ceiling := DefaultMaxConsecutiveFailures
		cfg.MaxConsecutiveFailures = &ceiling
	}
}

// applyEnvOverrides applies environment variable overrides to configuration
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("AZURE_RATELIMIT_SUBSCRIPTION_ID"); val != "" {
		cfg.SubscriptionID = strings.TrimSpace(val)
	}

	if val := os.Getenv("AZURE_RATELIMIT_ENDPOINT"); val != "" {
		cfg.Endpoint = val
	}

	if val := os.Getenv("AZURE_RATELIMIT_POLL_INTERVAL"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid AZURE_RATELIMIT_POLL_INTERVAL: must be an integer, got %q", val)
		}
		cfg.PollInterval = i
	}

	if val := os.Getenv("AZURE_RATELIMIT_HTTP_PORT"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid AZURE_RATELIMIT_HTTP_PORT: must be an integer, got %q", val)
		}
		cfg.HTTPPort = i
	}

	if val := os.Getenv("AZURE_RATELIMIT_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	if val := os.Getenv("AZURE_RATELIMIT_MAX_CONSECUTIVE_FAILURES"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid AZURE_RATELIMIT_MAX_CONSECUTIVE_FAILURES: must be an integer, got %q", val)
		}
		cfg.MaxConsecutiveFailures = &i
	}

	return nil
}

// loadCredentials reads the required service principal secrets from the
// environment. A missing variable is fatal here, before any cycle runs.
func loadCredentials(cfg *Config) error {
	var missing []string

	cfg.Credentials.ClientID = os.Getenv(EnvClientID)
	if cfg.Credentials.ClientID == "" {
		missing = append(missing, EnvClientID)
	}

	cfg.Credentials.ClientSecret = os.Getenv(EnvClientSecret)
	if cfg.Credentials.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}

	cfg.Credentials.TenantID = os.Getenv(EnvTenantID)
	if cfg.Credentials.TenantID == "" {
		missing = append(missing, EnvTenantID)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.SubscriptionID == "" {
		return fmt.Errorf("subscription_id is required")
	}

	if !strings.HasPrefix(cfg.Endpoint, "https://") && !strings.HasPrefix(cfg.Endpoint, "http://") {
		return fmt.Errorf("endpoint must be an http(s) URL, got %q", cfg.Endpoint)
	}

	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %d", cfg.PollInterval)
	}

	if cfg.PollInterval < MinPollInterval {
		return fmt.Errorf("poll_interval must be at least %d seconds", MinPollInterval)
	}

	if cfg.HTTPPort < MinPort || cfg.HTTPPort > MaxPort {
		return fmt.Errorf("http_port must be between %d and %d", MinPort, MaxPort)
	}

	if cfg.ConnectTimeoutMillis < MinConnectTimeout || cfg.ConnectTimeoutMillis > MaxConnectTimeout {
		return fmt.Errorf("connect_timeout_millis must be between %d and %d", MinConnectTimeout, MaxConnectTimeout)
	}

	if cfg.MaxConsecutiveFailures != nil && *cfg.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("max_consecutive_failures cannot be negative, got %d", *cfg.MaxConsecutiveFailures)
	}

	return nil
}
