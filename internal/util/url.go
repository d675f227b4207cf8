package util

import (
	"net/url"
	"strings"
)

// NormalizeURL produces the canonical form used for source deduplication:
// lowercase scheme and host, default ports stripped, trailing slash removed
// from non-root paths. Query strings are preserved since they can identify
// distinct documents. Unparseable URLs normalize to their lowercase trimmed
// form so comparisons stay stable.
func NormalizeURL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(trimmed)
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)

	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}

	path := parsed.EscapedPath()
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	normalized := scheme + "://" + host + path
	if parsed.RawQuery != "" {
		normalized += "?" + parsed.RawQuery
	}

	return normalized
}
