package graphin

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"net/http"
	"sort"
)

// canDeduplicate reports whether a call with method may share its response
// with other in-flight calls. Only safe, idempotent methods qualify.
func canDeduplicate(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// deduplicationKey identifies identical requests: same method, URL,
// credentials policy, headers and body. Header names are canonicalized and
// sorted, so the order they were set in does not matter.
func deduplicationKey(url string, opts FetchOptions) string {
	h := sha256.New()
	writeField(h, opts.Method)
	writeField(h, url)
	writeField(h, string(opts.Credentials))

	names := make([]string, 0, len(opts.Header))
	values := make(map[string][]string, len(opts.Header))
	for name, vs := range opts.Header {
		canonical := http.CanonicalHeaderKey(name)
		if _, seen := values[canonical]; !seen {
			names = append(names, canonical)
		}
		values[canonical] = append(values[canonical], vs...)
	}
	sort.Strings(names)
	for _, name := range names {
		writeField(h, name)
		for _, v := range values[name] {
			writeField(h, v)
		}
	}

	writeField(h, string(opts.Body))
	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes s so adjacent fields cannot run together.
func writeField(h hash.Hash, s string) {
	fmt.Fprintf(h, "%d:%s;", len(s), s)
}
