// Package service contains the business rules of the portal.
//
// THE LAYERS:
//
//	Handler (HTTP)    → parses requests, writes responses
//	Service (rules)   → validates, aggregates, orchestrates
//	Repository (data) → reads and writes rows in one of the store backends
//
// Services take the narrow repository interfaces they need, never a concrete backend, so
// tests run them against the in-memory sqlite store or a fake that injects failures.
//
// TWO ERROR STYLES:
// Write paths (submitting a score, signing up, editing content) return apperror values
// that the handler turns into 4xx responses. Read paths that feed the scoreboards
// (StatsService) never fail: a store error is logged and the caller gets "no stats" or an
// empty leaderboard, so a flaky backend degrades the page instead of breaking it.
package service

import (
	"strings"
	"time"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// clampLimit applies the default and the ceiling to a caller-supplied page size.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
