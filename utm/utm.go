// Package utm composes stored tracking parameters onto destination URLs.
//
// Composition is pure and deterministic: existing query parameters keep
// their original order, stored UTM values overwrite colliding keys in place,
// and parameters missing from the URL are appended in a fixed order
// (source, medium, campaign, term, content). Stored attribution always wins
// over whatever the destination URL carries, so a campaign's tracking cannot
// be masked by the target's own query string.
package utm

import (
	"net/url"
	"strings"

	"github.com/Alirezastar2/utmkit-sub001/model"
)

type pair struct {
	key   string
	value string
	hasEq bool // Distinguishes "k=" from a bare "k" when re-encoding
}

// Compose merges the link's stored UTM parameters into baseURL and returns
// the final redirect target. Fragments are preserved after the query string,
// and composing an already composed URL with the same parameters yields the
// identical result.
func Compose(baseURL string, p model.UTMParams) string {
	if p.IsZero() {
		return baseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return appendFallback(baseURL, p)
	}

	pairs := parseQuery(u.RawQuery)

	for _, utm := range []struct {
		key   string
		value string
	}{
		{"utm_source", p.Source},
		{"utm_medium", p.Medium},
		{"utm_campaign", p.Campaign},
		{"utm_term", p.Term},
		{"utm_content", p.Content},
	} {
		if utm.value == "" {
			continue
		}
		pairs = setParam(pairs, utm.key, utm.value)
	}

	u.RawQuery = encodeQuery(pairs)
	return u.String()
}

// parseQuery splits a raw query into ordered key/value pairs without
// losing duplicate keys or empty values.
func parseQuery(rawQuery string) []pair {
	if rawQuery == "" {
		return nil
	}

	parts := strings.Split(rawQuery, "&")
	pairs := make([]pair, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		key, value, hasEq := strings.Cut(part, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			decodedKey = key
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			decodedValue = value
		}
		pairs = append(pairs, pair{key: decodedKey, value: decodedValue, hasEq: hasEq})
	}
	return pairs
}

// setParam overwrites the first occurrence of key in place, drops any
// further duplicates and appends the pair when the key is absent.
func setParam(pairs []pair, key, value string) []pair {
	replaced := false
	out := pairs[:0]
	for _, p := range pairs {
		if p.key == key {
			if replaced {
				continue
			}
			p.value = value
			p.hasEq = true
			replaced = true
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, pair{key: key, value: value, hasEq: true})
	}
	return out
}

func encodeQuery(pairs []pair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		if p.hasEq {
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.value))
		}
	}
	return b.String()
}

// appendFallback handles base URLs net/url refuses to parse: parameters are
// appended blindly, keeping the result usable rather than dropping
// attribution entirely.
func appendFallback(baseURL string, p model.UTMParams) string {
	params := make([]string, 0, 5)
	add := func(key, value string) {
		if value != "" && !strings.Contains(baseURL, key+"=") {
			params = append(params, key+"="+url.QueryEscape(value))
		}
	}
	add("utm_source", p.Source)
	add("utm_medium", p.Medium)
	add("utm_campaign", p.Campaign)
	add("utm_term", p.Term)
	add("utm_content", p.Content)

	if len(params) == 0 {
		return baseURL
	}
	separator := "?"
	if strings.Contains(baseURL, "?") {
		separator = "&"
	}
	return baseURL + separator + strings.Join(params, "&")
}
