// Package redact masks cipher keys, plaintext and credentials before they
// reach an audit log.
package redact

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	neverPersistKey = "never_persist"
	redactedSecret  = "[REDACTED_SECRET]"
	redactedText    = "[REDACTED_TEXT]"
)

// sensitiveFields are masked wholesale whatever their value.
var sensitiveFields = map[string]string{
	"key":        redactedSecret,
	"cipher_key": redactedSecret,
	"secret":     redactedSecret,
	"token":      redactedSecret,
	"auth_token": redactedSecret,
	"password":   redactedSecret,
	"plaintext":  redactedText,
	"message":    redactedText,
}

var (
	kvSecretRe = regexp.MustCompile(`(?i)\b((?:cipher[-_ ]?)?(?:key|secret|token|password)\s*[:=]\s*)(['"]?)([^\s'",]+)(['"]?)`)
	bearerRe   = regexp.MustCompile(`(?i)\b(bearer)\s+([A-Za-z0-9._\-]{6,})`)
)

// String masks key=value style secrets and bearer tokens in free text.
func String(in string) string {
	if strings.TrimSpace(in) == "" {
		return in
	}
	masked := kvSecretRe.ReplaceAllString(in, `$1$2`+redactedSecret+`$4`)
	masked = bearerRe.ReplaceAllString(masked, `$1 `+redactedSecret)
	return masked
}

// Interface redacts recognised sensitive values within nested structures.
func Interface(value any) any {
	switch v := value.(type) {
	case string:
		return String(v)
	case fmt.Stringer:
		return String(v.String())
	case []string:
		return Slice(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Interface(elem)
		}
		return out
	case map[string]string:
		return MapString(v)
	case map[string]any:
		return Map(v)
	default:
		return value
	}
}

// Map redacts sensitive values within a map of arbitrary values. Fields named
// like a key or plaintext are replaced outright, fields listed under
// "never_persist" are masked, and every other value is scanned.
func Map(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	extra := map[string]struct{}{}
	if raw, ok := lookupFold(in, neverPersistKey); ok {
		for _, name := range collectNames(raw) {
			extra[strings.ToLower(name)] = struct{}{}
		}
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		if strings.EqualFold(k, neverPersistKey) {
			continue
		}
		if mask, ok := maskFor(k, extra); ok {
			out[k] = mask
			continue
		}
		out[k] = Interface(v)
	}
	return out
}

// MapString redacts sensitive values within a string map.
func MapString(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	extra := map[string]struct{}{}
	if raw, ok := in[neverPersistKey]; ok {
		for _, name := range collectNames(raw) {
			extra[strings.ToLower(name)] = struct{}{}
		}
	}

	out := make(map[string]string, len(in))
	for k, v := range in {
		if strings.EqualFold(k, neverPersistKey) {
			continue
		}
		if mask, ok := maskFor(k, extra); ok {
			out[k] = mask
			continue
		}
		out[k] = String(v)
	}
	return out
}

// Slice redacts sensitive values within a slice of strings.
func Slice(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = String(v)
	}
	return out
}

func maskFor(field string, extra map[string]struct{}) (string, bool) {
	lower := strings.ToLower(field)
	if mask, ok := sensitiveFields[lower]; ok {
		return mask, true
	}
	if _, ok := extra[lower]; ok {
		return redactedSecret, true
	}
	return "", false
}

func lookupFold(in map[string]any, key string) (any, bool) {
	for k, v := range in {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func collectNames(value any) []string {
	switch v := value.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			out = append(out, fmt.Sprint(elem))
		}
		return out
	default:
		return nil
	}
}
