package security

import "time"

// NewTestTokenProvider returns a TokenProvider with a fixed secret and a 24h
// access TTL. For unit tests only. Callers must not use in production.
func NewTestTokenProvider() *TokenProvider {
	return NewTokenProvider("unit-test-secret", 24*time.Hour)
}
