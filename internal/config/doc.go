// Package config loads, normalizes, and validates tunekeep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TUNEKEEP_LIBRARY_DIR. The Config type centralizes every knob the CLI and the
// library service need so catalog, backup, and trash locations are discovered
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical hash and log names, and clear validation errors.
package config
