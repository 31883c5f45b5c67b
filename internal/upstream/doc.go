// Package upstream implements the rate-limited, circuit-broken HTTP client
// the fetcher and crawler use to reach the Wargaming stats API and the
// WoTInspector replay archive. Resilience follows cartographus's
// internal/sync circuit breaker (sony/gobreaker/v2, state-change metrics,
// failure-ratio trip condition) combined with its internal/auth per-client
// token-bucket limiter (golang.org/x/time/rate); both are adapted here to
// wrap outbound calls instead of gating inbound ones.
package upstream
