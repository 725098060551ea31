// Package config loads, normalizes, and validates Prama configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as PRAMA_API_TOKEN. The Config type centralizes every knob
// the server and CLI need: where uploads and generated media live, where the
// wrapped models are installed, and how the translation backend is reached.
//
// Always obtain settings through this package so downstream code receives
// absolute paths and clear validation errors.
package config
