// Package app builds the explicit dependency-injection context every CLI
// command runs against: backend, upstream client and config,
// constructed once in main and passed down
// instead of living as package-level globals.
package app
