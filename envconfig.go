package main

import (
	"strings"

	env "github.com/xyproto/env/v2"
)

// envIncludePaths reads TMASM_INCLUDE (colon-separated, like $PATH),
// appended after any -I paths per spec.md §6's search order.
func envIncludePaths() []string {
	raw := env.Str("TMASM_INCLUDE")
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ":") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envCaseSensitive reads TMASM_CASE_SENSITIVE, accepting "1" or "true".
func envCaseSensitive(fallback bool) bool {
	if !env.Has("TMASM_CASE_SENSITIVE") {
		return fallback
	}
	return env.Bool("TMASM_CASE_SENSITIVE")
}

// envVerbose reads TMASM_VERBOSE the same way.
func envVerbose(fallback bool) bool {
	if !env.Has("TMASM_VERBOSE") {
		return fallback
	}
	return env.Bool("TMASM_VERBOSE")
}
