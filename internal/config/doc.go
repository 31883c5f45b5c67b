// Package config loads the INI configuration file (spec.md §6):
// defaults first, then the file, then environment variable overrides,
// then struct-tag validation, mirroring the defaults -> override ->
// Validate() layering the rest of this codebase's config loading uses.
package config
