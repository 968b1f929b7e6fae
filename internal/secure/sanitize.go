package secure

import (
	"reflect"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	scriptBlockPattern  = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	markupTagPattern    = regexp.MustCompile(`<[^>]*>?`)
	jsSchemePattern     = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerPattern = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// SanitizeString strips script blocks, markup tags, javascript: scheme
// references and inline event-handler assignments from one string. Input
// is NFKC-normalized first so homoglyph variants of the payloads do not
// slip through. Stripping repeats until a fixed point so the result is
// idempotent even for nested payloads.
func SanitizeString(s string) string {
	s = norm.NFKC.String(s)
	for {
		next := scriptBlockPattern.ReplaceAllString(s, "")
		next = markupTagPattern.ReplaceAllString(next, "")
		next = jsSchemePattern.ReplaceAllString(next, "")
		next = eventHandlerPattern.ReplaceAllString(next, "")
		if next == s {
			return s
		}
		s = next
	}
}

// SanitizeInput walks an arbitrarily nested value and sanitizes every
// string leaf, preserving the shape of the input. Non-string leaves pass
// through unchanged. The input itself is not mutated; a sanitized copy is
// returned. Sanitization never fails: malicious input degrades to a safe
// form instead of being rejected.
func SanitizeInput[T any](input T) T {
	v := reflect.ValueOf(&input).Elem()
	v.Set(sanitizeValue(v))
	return input
}

func sanitizeValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.String:
		out := reflect.New(v.Type()).Elem()
		out.SetString(SanitizeString(v.String()))
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(sanitizeValue(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(sanitizeValue(v.Elem()))
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(sanitizeValue(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(sanitizeValue(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), sanitizeValue(iter.Value()))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(sanitizeValue(v.Field(i)))
			}
		}
		return out
	default:
		return v
	}
}

// defaultDenyList names the fields SecureDTO always removes.
var defaultDenyList = []string{"password", "password_hash", "internal_notes", "api_key", "secret"}

// sensitiveSubstrings triggers removal of any remaining key containing one
// of them, case-insensitively.
var sensitiveSubstrings = []string{"password", "secret", "token", "api_key"}

// SecureDTO shallow-copies data, removing every deny-listed key and any
// key whose name contains a sensitive substring. Only top-level keys are
// inspected; nested sensitive fields are the caller's responsibility.
// An empty denyList falls back to the default list.
func SecureDTO(data map[string]any, denyList ...string) map[string]any {
	if data == nil {
		return nil
	}
	if len(denyList) == 0 {
		denyList = defaultDenyList
	}
	denied := make(map[string]struct{}, len(denyList))
	for _, field := range denyList {
		denied[field] = struct{}{}
	}

	dto := make(map[string]any, len(data))
	for key, value := range data {
		if _, ok := denied[key]; ok {
			continue
		}
		if containsSensitive(key) {
			continue
		}
		dto[key] = value
	}
	return dto
}

func containsSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, sub := range sensitiveSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
