// Package common provides shared utilities for Nestegg
package common

import "time"

// Freshness TTLs for cached market data, per kind. Portfolio and memory
// documents are read from disk on demand and never cached. FX rates hold
// for five minutes to bound outbound call volume when valuing a
// multi-currency portfolio.
const (
	FreshnessFXRate = 5 * time.Minute
	FreshnessQuote  = 5 * time.Minute
	FreshnessNews   = 15 * time.Minute
	FreshnessMacro  = 1 * time.Hour
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
