package router

import (
	"net/url"
	"strings"
)

// ParseQuery decodes a raw query string into a name -> value map.
// A leading '?' is ignored, a key without '=' maps to "", and the last
// occurrence of a repeated key wins. Keys and values are percent-decoded
// ('+' as space); text that fails to decode is kept verbatim.
func ParseQuery(raw string) map[string]string {
	params := make(map[string]string)

	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return params
	}

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		key = unescapeQuery(key)
		if key == "" {
			continue
		}
		params[key] = unescapeQuery(value)
	}

	return params
}

func unescapeQuery(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
