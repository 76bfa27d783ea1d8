// Package config loads configuration for blobkit binaries.
//
// It uses Viper to read a YAML file found in the standard locations
// (./cmd/<service>/config.yml, ./config/config.yml, ./config.yml), loads an
// optional .env file with godotenv, and lets environment variables override
// file values. Nested keys map from underscores, so with
// WithEnvPrefix("BLOBCTL") the variable BLOBCTL_STORAGE_DEFAULT_CONTAINER
// sets storage.default_container.
//
// # Usage
//
//	var cfg Config
//	err := config.LoadConfig("blobctl", &cfg, config.WithEnvPrefix("BLOBCTL"))
package config
