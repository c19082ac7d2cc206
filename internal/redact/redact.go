// Package redact masks credentials and cipher keys before they reach audit
// logs or printed configuration.
package redact

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	neverPersistKey = "never_persist"
	// Secret replaces any masked value.
	Secret = "[REDACTED_SECRET]"
)

// CipherParamKeys are operation parameters that carry key material. They are
// masked wherever a parameter map is logged.
var CipherParamKeys = []string{"key", "a", "b"}

var (
	jwtRe      = regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]*`)
	kvSecretRe = regexp.MustCompile(`(?i)((?:api|token|secret|key|password|signing)[-_ ]*(?:id|key|token|secret)?\s*[:=]\s*)(['\"]?)([^\s'\",;&]{4,})(['\"]?)`)
	bearerRe   = regexp.MustCompile(`(?i)\b(bearer)\s+([A-Za-z0-9._\-]{10,})`)
)

// String masks bearer tokens, JWTs and key=value secrets in a free-form string.
func String(in string) string {
	if strings.TrimSpace(in) == "" {
		return in
	}
	masked := bearerRe.ReplaceAllString(in, `$1 `+Secret)
	masked = jwtRe.ReplaceAllString(masked, Secret)
	masked = kvSecretRe.ReplaceAllString(masked, `$1$2`+Secret+`$4`)
	return masked
}

// Interface masks recognised sensitive values within nested structures.
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

// Map masks sensitive values within a map. Keys named by a never_persist
// entry are replaced outright and the never_persist entry itself is dropped.
func Map(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	var masked []string
	if raw, ok := lookupFold(in, neverPersistKey); ok {
		masked = neverPersistList(raw)
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch {
		case strings.EqualFold(k, neverPersistKey):
			continue
		case containsKey(masked, k):
			out[k] = Secret
		default:
			out[k] = Interface(v)
		}
	}
	return out
}

// MapString is Map for string maps. A never_persist value is a comma
// separated list of keys.
func MapString(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	var masked []string
	if raw, ok := lookupFold(in, neverPersistKey); ok {
		masked = splitList(raw)
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch {
		case strings.EqualFold(k, neverPersistKey):
			continue
		case containsKey(masked, k):
			out[k] = Secret
		default:
			out[k] = String(v)
		}
	}
	return out
}

// Slice masks every element.
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

// Params returns a copy of an operation parameter map with the cipher key
// parameters masked. Other values pass through String.
func Params(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	withMask := make(map[string]any, len(params)+1)
	for k, v := range params {
		withMask[k] = v
	}
	withMask[neverPersistKey] = CipherParamKeys
	return Map(withMask)
}

func lookupFold[V any](in map[string]V, key string) (V, bool) {
	for k, v := range in {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

func neverPersistList(value any) []string {
	switch v := value.(type) {
	case string:
		return splitList(v)
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			out = append(out, strings.TrimSpace(fmt.Sprint(elem)))
		}
		return out
	default:
		return nil
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
