package sanitizer

import (
	"strings"
)

func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	domain, path, hasPath := strings.Cut(url, "/")
	result := "https://" + strings.ToLower(domain)
	if hasPath {
		result += "/" + path
	}
	return strings.TrimSuffix(result, "/")
}
