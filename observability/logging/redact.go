package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces secret material in log lines.
const RedactedValue = "[REDACTED]"

// secretKeys name attributes whose string values never reach a log line:
// admin bearer tokens, the JWT signing secret and the token subject.
var secretKeys = map[string]struct{}{
	"authorization": {},
	"token":         {},
	"admin_token":   {},
	"jwt_secret":    {},
	"hmac_secret":   {},
	"subject":       {},
	"otel_headers":  {},
}

// IsSecret reports whether values logged under key are masked.
func IsSecret(key string) bool {
	_, ok := secretKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskValue masks a secret value. An authorization scheme prefix such as
// "Bearer" is kept so rejected requests stay diagnosable. Empty values pass
// through.
func MaskValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	if scheme, _, found := strings.Cut(trimmed, " "); found && isAuthScheme(scheme) {
		return scheme + " " + RedactedValue
	}
	return RedactedValue
}

// MaskField builds a string attribute, masking value when key is secret.
func MaskField(key, value string) slog.Attr {
	if !IsSecret(key) {
		return slog.String(key, value)
	}
	return slog.String(key, MaskValue(value))
}

// redactAttr is the handler hook that masks secret string attributes logged
// without MaskField.
func redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindString || !IsSecret(attr.Key) {
		return attr
	}
	return slog.String(attr.Key, MaskValue(attr.Value.String()))
}

func isAuthScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "bearer", "basic":
		return true
	}
	return false
}
