// Package config loads, normalizes, and validates variantshare configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for search,
// mail, and API credentials. The Config type centralizes every knob the daemon
// and CLI need: search index connection, the remote document generation
// service, the dispatch backend, and the export layout rules (image-bearing
// application types, locator and URL suppression, timezone and locale).
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
