// Package config loads, normalizes, and validates structmeta configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STRUCTMETA_SAMPLE_DIR. The Config type centralizes the sample directory,
// the per-source annotation file templates, and the external service
// endpoints so the pipeline and CLI discover them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
