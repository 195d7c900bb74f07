// Package querytext encodes GraphQL query text into request URLs and recovers
// it again for diagnostics.
package querytext

import (
	"net/url"
	"strings"
)

// queryParam separates the endpoint from the encoded query in a request URL.
const queryParam = "?query="

// Escape percent-encodes s the same way ECMAScript encodeURIComponent does:
// every byte except A-Z a-z 0-9 and - _ . ! ~ * ' ( ) is escaped.
func Escape(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// BuildURL appends the escaped query to endpoint as the query parameter.
func BuildURL(endpoint, query string) string {
	return endpoint + queryParam + Escape(query)
}

// FromURL extracts and decodes the query text from a URL built by BuildURL.
// A URL without a query parameter yields an empty string. Malformed escapes
// are returned undecoded.
func FromURL(rawURL string) string {
	idx := strings.Index(rawURL, queryParam)
	if idx < 0 {
		return ""
	}
	encoded := rawURL[idx+len(queryParam):]
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return encoded
	}
	return decoded
}

// Normalize removes the indentation shared by every non-empty line after the
// first, so a query written inline in indented source prints flush left.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	prefix, found := "", false
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found {
			prefix, found = indent, true
			continue
		}
		prefix = commonPrefix(prefix, indent)
		if prefix == "" {
			break
		}
	}
	if prefix == "" {
		return text
	}

	for i := 1; i < len(lines); i++ {
		lines[i] = strings.TrimPrefix(lines[i], prefix)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// FromURLNormalized is FromURL followed by Normalize.
func FromURLNormalized(rawURL string) string {
	return Normalize(FromURL(rawURL))
}
