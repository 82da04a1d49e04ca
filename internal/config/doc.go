// Package config loads, normalizes, and validates curator configuration.
//
// Configuration lives in a single TOML document covering watched folders,
// category routes, retry/backoff tuning, history capacity, and notification
// settings. Load applies defaults, expands paths, pulls secrets from the
// environment where appropriate, and fails fast on malformed routing so the
// engine never starts against a partially valid configuration.
package config
