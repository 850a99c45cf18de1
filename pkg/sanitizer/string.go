package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeLabel(label string) string {
	return strings.ToLower(TrimAndNormalize(label))
}

// NormalizeInstagram reduces a handle or profile URL to the bare handle.
func NormalizeInstagram(handle string) string {
	h := strings.TrimSpace(handle)
	for _, prefix := range []string{"https://", "http://", "www.", "instagram.com/"} {
		if len(h) >= len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			h = h[len(prefix):]
		}
	}
	h = strings.TrimSuffix(h, "/")
	h = strings.TrimPrefix(h, "@")
	return strings.ToLower(h)
}
