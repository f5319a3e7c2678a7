// Package config loads queryops settings.
//
// Load layers its sources in a fixed order:
//
//  1. Default values.
//  2. A YAML (.yaml, .yml) or TOML (.toml) file, chosen by extension.
//  3. QUERYOPS_* environment variables.
//  4. ${VAR} expansion in path-like fields.
//  5. Validate.
//
// Durations are expressed in seconds in every source so that files and
// environment variables read the same way.
package config
