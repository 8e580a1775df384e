// Package config loads, normalizes, and validates the TOML configuration for
// scribe. Credentials fall back to environment variables so the config file
// can stay secret-free when operators prefer that.
package config
