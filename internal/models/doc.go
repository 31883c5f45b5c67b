// Package models defines the data shapes the ingestion pipeline moves
// between the crawler, fetcher, release mapper, dedupe, and snapshot
// components; the Backend interface that persists them lives in
// internal/backend.
package models
