// Package config handles loading and validating Inkwell configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with INKWELL_* environment variables
//   - Validation of required fields
//
// Secrets (JWT signing key, broker and Redis passwords, InfluxDB token)
// should be supplied through the environment rather than the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
