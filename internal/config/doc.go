// Package config loads, normalizes, and validates voicegrab configuration.
//
// Configuration is read from a TOML file (default
// ~/.config/voicegrab/config.toml) layered over repository defaults. All
// path fields are expanded and absolute after Load returns.
package config
