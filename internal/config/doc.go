// Package config provides configuration management for the Azure throttling
// exporter.
//
// This package handles loading configuration from YAML files, applying
// environment variable overrides, setting defaults, and validating the
// configuration. Service principal credentials are deliberately excluded from
// the file: they are read only from the environment, and Load fails if any of
// them is missing so that a misconfigured exporter never starts polling.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// Supported environment variables:
//   - AZURE_CLIENT_ID, AZURE_CLIENT_SECRET, AZURE_TENANT_ID: service
//     principal credentials (required, environment only)
//   - AZURE_RATELIMIT_SUBSCRIPTION_ID: subscription to probe
//   - AZURE_RATELIMIT_ENDPOINT: ARM endpoint (default https://management.azure.com)
//   - AZURE_RATELIMIT_POLL_INTERVAL: poll interval in seconds (minimum: 5)
//   - AZURE_RATELIMIT_HTTP_PORT: HTTP server port (1-65535)
//   - AZURE_RATELIMIT_LOG_LEVEL: log level (debug, info, warn, error)
//   - AZURE_RATELIMIT_MAX_CONSECUTIVE_FAILURES: failure ceiling before the
//     exporter gives up (0 escalates on the first failure)
//
// Example configuration file (config.yaml):
//
//	subscription_id: "00000000-0000-0000-0000-000000000000"
//	poll_interval: 60
//	http_port: 8080
//	log_level: "info"
//	resource_provider: "Microsoft.Compute"
//	resource_type: "virtualMachineScaleSets"
//	api_version: "2019-12-01"
//	connect_timeout_millis: 4000
//	max_consecutive_failures: 2
package config
