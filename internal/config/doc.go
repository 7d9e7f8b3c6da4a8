// Package config loads, normalizes, and validates stitch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and centralizes every knob the matching
// engine needs: match type, dataset field maps, blocking passes, comparer
// parameters, database connection, worker pool size, and output layout.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, ordered passes, and clear validation errors.
package config
