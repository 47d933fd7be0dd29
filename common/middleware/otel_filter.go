package middleware

import "strings"

// skipTracePaths are paths that should not be traced (health checks, metrics)
var skipTracePaths = []string{
	"/metrics",
	"/health",
	"/healthz",
	"/ready",
	"/readiness",
	"/live",
	"/liveness",
	"/ping",
}

// ShouldSkipTrace returns true if the path should not be traced
func ShouldSkipTrace(path string) bool {
	for _, skip := range skipTracePaths {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}
