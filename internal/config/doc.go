// Package config loads, normalizes, and validates muxprep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, applies named presets, and canonicalizes
// language allow-lists. The Config type centralizes every knob the CLI and the
// per-file workflow need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language codes, and clear validation errors.
package config
