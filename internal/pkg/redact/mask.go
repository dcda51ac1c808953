// Package redact scrubs credentials from strings before they are logged.
package redact

import (
	"regexp"
	"strings"
)

var (
	rePassword = regexp.MustCompile(`(?i)(password=)([^\s;&]+)`)
	reToken    = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._-]+)`)
	reDSNPass  = regexp.MustCompile(`(?i)(://)([^:/@\s]+):([^@\s]+)(@)`)
	reAPIKey   = regexp.MustCompile(`(?i)(apikey=|api_key=|x-api-key:\s*|key=)([^\s;&]+)`)
	reEnvPass  = regexp.MustCompile(`(PGPASSWORD=)(\S+)`)
)

// Mask replaces sensitive values in s with "***". DSN user info is masked as "*:*".
func Mask(s string) string {
	out := s
	out = reEnvPass.ReplaceAllString(out, "$1***")
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reDSNPass.ReplaceAllString(out, "$1*:*$4")
	out = reAPIKey.ReplaceAllString(out, "$1***")
	return out
}

// Env returns a copy of env with secret values masked, for logging child
// process environments.
func Env(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		key, _, ok := strings.Cut(kv, "=")
		if ok && isSecretKey(key) {
			out = append(out, key+"=***")
			continue
		}
		out = append(out, kv)
	}
	return out
}

func isSecretKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range []string{"PASSWORD", "SECRET", "TOKEN", "API_KEY"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
